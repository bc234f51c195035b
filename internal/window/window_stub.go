//go:build !cgo

// ABOUTME: Window stub for builds without cgo
// ABOUTME: Reports that the desktop window is unavailable
package window

import (
	"context"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

// Run reports ErrUnavailable; the window backend needs cgo
func Run(ctx context.Context, v *viewer.Viewer, opts Options) error {
	return ErrUnavailable
}
