// ABOUTME: Display image buffer
// ABOUTME: Channels x frames RGBA image with fixed opaque alpha
package display

import (
	"fmt"
	"image"
	"image/color"
)

// Image is a channels x frames RGBA buffer: row j is channel j, column i is frame i.
// Alpha is set once at creation and never rewritten.
type Image struct {
	Channels int
	Frames   int
	Pix      []uint8
}

// NewImage allocates an opaque black image
func NewImage(channels, frames int) *Image {
	pix := make([]uint8, channels*frames*4)
	for k := 3; k < len(pix); k += 4 {
		pix[k] = 255
	}
	return &Image{Channels: channels, Frames: frames, Pix: pix}
}

// Fill writes normalized frames x channels bytes transposed into the RGB planes
func (m *Image) Fill(norm []uint8) error {
	if len(norm) != m.Channels*m.Frames {
		return fmt.Errorf("normalized window has %d values, image needs %d", len(norm), m.Channels*m.Frames)
	}
	for i := 0; i < m.Frames; i++ {
		for j := 0; j < m.Channels; j++ {
			v := norm[i*m.Channels+j]
			k := (j*m.Frames + i) * 4
			m.Pix[k] = v
			m.Pix[k+1] = v
			m.Pix[k+2] = v
		}
	}
	return nil
}

// FillLUT is Fill through a 256-entry colour lookup table
func (m *Image) FillLUT(norm []uint8, lut *[256]color.RGBA) error {
	if len(norm) != m.Channels*m.Frames {
		return fmt.Errorf("normalized window has %d values, image needs %d", len(norm), m.Channels*m.Frames)
	}
	for i := 0; i < m.Frames; i++ {
		for j := 0; j < m.Channels; j++ {
			c := lut[norm[i*m.Channels+j]]
			k := (j*m.Frames + i) * 4
			m.Pix[k] = c.R
			m.Pix[k+1] = c.G
			m.Pix[k+2] = c.B
		}
	}
	return nil
}

// At returns the pixel of channel j, frame i
func (m *Image) At(j, i int) color.RGBA {
	k := (j*m.Frames + i) * 4
	return color.RGBA{m.Pix[k], m.Pix[k+1], m.Pix[k+2], m.Pix[k+3]}
}

// Clone returns a deep copy of the image
func (m *Image) Clone() *Image {
	c := *m
	c.Pix = append([]uint8(nil), m.Pix...)
	return &c
}

// Screen returns the image for top-down display: the highest channel is the
// first row, so screen y grows towards channel 0.
func (m *Image) Screen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Frames, m.Channels))
	stride := m.Frames * 4
	for r := 0; r < m.Channels; r++ {
		j := m.Channels - 1 - r
		copy(img.Pix[r*img.Stride:r*img.Stride+stride], m.Pix[j*stride:(j+1)*stride])
	}
	return img
}
