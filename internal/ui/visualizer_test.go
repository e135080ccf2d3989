// ABOUTME: Tests for the spectrum analyzer
// ABOUTME: Checks band placement of a pure tone and silence handling
package ui

import (
	"math"
	"strings"
	"testing"
)

func sine(freq float64, rate, frames, channels int) []float64 {
	out := make([]float64, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		for c := 0; c < channels; c++ {
			out = append(out, v)
		}
	}
	return out
}

func TestAnalyzeTone(t *testing.T) {
	v := NewVisualizer(48000)
	bands := v.Analyze(sine(1000, 48000, 4096, 2), 2)

	loudest := 0
	for b := range bands {
		if bands[b] > bands[loudest] {
			loudest = b
		}
	}
	// 1 kHz sits in the 800-1600 Hz band
	if loudest != 4 {
		t.Errorf("expected band 4 loudest, got %d (%v)", loudest, bands)
	}
	for b, level := range bands {
		if level < 0 || level > 1 {
			t.Errorf("band %d out of range: %f", b, level)
		}
	}
}

func TestAnalyzeSilence(t *testing.T) {
	v := NewVisualizer(44100)
	bands := v.Analyze(make([]float64, 1000), 1)
	for b, level := range bands {
		if level != 0 {
			t.Errorf("band %d: expected 0 for silence, got %f", b, level)
		}
	}
}

func TestAnalyzeDecay(t *testing.T) {
	v := NewVisualizer(48000)
	loud := v.Analyze(sine(1000, 48000, FFTSize, 1), 1)
	quiet := v.Analyze(nil, 1)

	if quiet[4] <= 0 || quiet[4] >= loud[4] {
		t.Errorf("expected band to decay gradually, got %f after %f", quiet[4], loud[4])
	}
}

func TestRenderBands(t *testing.T) {
	if RenderBands([NumBands]float64{}, 5) != "" {
		t.Error("expected empty render for narrow width")
	}

	bands := [NumBands]float64{1, 0.5, 0}
	out := RenderBands(bands, 52)
	if !strings.Contains(out, "█") {
		t.Error("expected a full block for level 1")
	}
}
