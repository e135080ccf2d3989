// ABOUTME: Version and product identification
// ABOUTME: Shared by the CLI banner, the log and the TUI header
package version

import "fmt"

const (
	Version      = "0.1.0"
	Product      = "ringplay"
	Manufacturer = "Resonate"
)

// String returns the product name and version
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
