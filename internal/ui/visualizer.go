// ABOUTME: Spectrum analyzer for the playback TUI
// ABOUTME: Runs an FFT over tapped samples and renders colored band bars
package ui

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mjibson/go-dsp/fft"
)

const (
	// NumBands is the number of spectrum bars
	NumBands = 10
	// FFTSize is the analysis window in frames
	FFTSize = 2048

	floorDB = -60.0
)

var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// band edges in Hz
var bandEdges = [NumBands + 1]float64{20, 100, 200, 400, 800, 1600, 3200, 6400, 12800, 16000, 20000}

var (
	specLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(10))
	specMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(11))
	specHighStyle = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(9))
)

// Visualizer turns interleaved samples into smoothed band levels in [0, 1]
type Visualizer struct {
	rate   float64
	window []float64
	buf    []float64
	prev   [NumBands]float64
}

// NewVisualizer creates a visualizer for the given sample rate
func NewVisualizer(rate int) *Visualizer {
	window := make([]float64, FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return &Visualizer{
		rate:   float64(rate),
		window: window,
		buf:    make([]float64, FFTSize),
	}
}

// Analyze downmixes the newest FFTSize frames of samples and returns band levels.
// Rising levels follow quickly, falling levels decay slowly.
func (v *Visualizer) Analyze(samples []float64, channels int) [NumBands]float64 {
	channels = max(channels, 1)
	frames := len(samples) / channels
	if frames > FFTSize {
		samples = samples[(frames-FFTSize)*channels:]
		frames = FFTSize
	}

	clear(v.buf)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[f*channels+c]
		}
		v.buf[f] = sum / float64(channels) * v.window[f]
	}

	spectrum := fft.FFTReal(v.buf)
	binHz := v.rate / FFTSize
	half := len(spectrum) / 2
	full := float64(FFTSize) / 4 // Hann-windowed full scale sine peak

	var bands [NumBands]float64
	for b := range NumBands {
		lo := max(1, int(bandEdges[b]/binHz))
		hi := min(half-1, int(bandEdges[b+1]/binHz))

		var sum float64
		count := 0
		for i := lo; i <= hi; i++ {
			sum += cmplx.Abs(spectrum[i])
			count++
		}

		var level float64
		if count > 0 && sum > 0 {
			db := 20 * math.Log10(sum/float64(count)/full)
			level = max(0, min(1, (db-floorDB)/-floorDB))
		}

		if level > v.prev[b] {
			level = level*0.6 + v.prev[b]*0.4
		} else {
			level = level*0.25 + v.prev[b]*0.75
		}
		v.prev[b] = level
		bands[b] = level
	}

	return bands
}

// RenderBands draws the levels as bars filling width columns
func RenderBands(bands [NumBands]float64, width int) string {
	if width < NumBands {
		return ""
	}
	bw := max(1, (width-(NumBands-1))/NumBands)

	var sb strings.Builder
	for i, level := range bands {
		idx := max(0, min(int(level*float64(len(barBlocks)-1)), len(barBlocks)-1))

		style := specLowStyle
		switch {
		case level > 0.75:
			style = specHighStyle
		case level > 0.45:
			style = specMidStyle
		}

		sb.WriteString(style.Render(strings.Repeat(barBlocks[idx], bw)))
		if i < NumBands-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
