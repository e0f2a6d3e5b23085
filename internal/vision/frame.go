// Package vision implements the crack-detection pipeline: it preprocesses a
// captured frame, extracts edges, groups them into line segments, filters
// them by geometry, and produces a count, confidence score, and annotated
// copy of the frame.
package vision

import (
	"errors"
	"image"
	"image/draw"
)

// ErrInvalidFrame indicates a nil, empty, or otherwise undecodable frame.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is one captured or uploaded image to be scanned for cracks. The
// pipeline never retains a Frame past one invocation and never mutates it
// in place.
type Frame struct {
	rgba *image.RGBA
}

// NewFrame wraps a decoded image. The pixels are copied so the caller's
// image stays untouched.
func NewFrame(src image.Image) (*Frame, error) {
	if src == nil {
		return nil, ErrInvalidFrame
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidFrame
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return &Frame{rgba: rgba}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.rgba.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.rgba.Bounds().Dy() }

// Image exposes the frame's pixels.
func (f *Frame) Image() image.Image { return f.rgba }

// Clone returns a deep copy, used to build the annotated output without
// touching the original.
func (f *Frame) Clone() *Frame {
	dst := image.NewRGBA(f.rgba.Bounds())
	copy(dst.Pix, f.rgba.Pix)
	return &Frame{rgba: dst}
}
