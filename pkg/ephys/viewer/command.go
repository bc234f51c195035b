// ABOUTME: Viewer command vocabulary
// ABOUTME: Maps key names and prompt text to navigation commands
package viewer

import (
	"fmt"
	"strings"
)

// Kind identifies a navigation command
type Kind string

const (
	StepLeft  Kind = "left"
	StepRight Kind = "right"
	ZoomIn    Kind = "zoom_in"
	ZoomOut   Kind = "zoom_out"
	Home      Kind = "home"
	End       Kind = "end"
	Goto      Kind = "goto"
	Reset     Kind = "reset"
)

// Command is one user action. Text carries the goto prompt contents.
type Command struct {
	Kind Kind   `json:"command"`
	Text string `json:"text,omitempty"`
}

// ParseKey maps a key name to a command kind.
// Both keypad and main keyboard spellings are accepted.
func ParseKey(key string) (Kind, error) {
	switch strings.ToLower(key) {
	case "left":
		return StepLeft, nil
	case "right":
		return StepRight, nil
	case "+", "=", "kp_add", "zoom_in":
		return ZoomIn, nil
	case "-", "kp_subtract", "zoom_out":
		return ZoomOut, nil
	case "home":
		return Home, nil
	case "end":
		return End, nil
	case "g", "goto":
		return Goto, nil
	case "r", "reset":
		return Reset, nil
	}
	return "", fmt.Errorf("unknown key %q", key)
}
