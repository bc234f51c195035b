// ABOUTME: Build version information
// ABOUTME: Identifies rawview in server hellos and the version command
package version

import "fmt"

// Version can be overridden with -ldflags "-X .../internal/version.Version=..."
var Version = "0.3.0"

const (
	Product      = "rawview"
	Manufacturer = "Resonate Protocol"
)

// String returns "rawview 0.3.0"
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
