// ABOUTME: Entry point for the rawview CLI
// ABOUTME: Runs the cobra command tree
package main

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/rawview/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
