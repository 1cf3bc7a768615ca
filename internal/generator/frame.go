package generator

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Frame is a display-ready image: Height x Width x 3, channel-last, 8 bit.
type Frame struct {
	Width          int
	Height         int
	Pix            []uint8
	Representation Representation
}

// At returns the RGB triple at (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Image converts the frame into an image.Image for encoding.
func (f *Frame) Image() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}

// FrameFromTensor permutes an NCHW tensor to HWC and maps [-1, 1] onto [0, 255]
// with v*127.5+128, clamped and truncated to uint8.
func FrameFromTensor(t Tensor) (*Frame, error) {
	if t.Channels != 3 {
		return nil, fmt.Errorf("%w: want 3 channels, got %d", ErrTensorShape, t.Channels)
	}
	plane := t.Height * t.Width
	if t.Height <= 0 || t.Width <= 0 || len(t.Data) != t.Channels*plane {
		return nil, fmt.Errorf("%w: %dx%dx%d with %d values", ErrTensorShape, t.Channels, t.Height, t.Width, len(t.Data))
	}

	pix := make([]uint8, plane*3)
	for c := 0; c < 3; c++ {
		src := t.Data[c*plane : (c+1)*plane]
		for i, v := range src {
			pix[i*3+c] = quantize(v)
		}
	}
	return &Frame{Width: t.Width, Height: t.Height, Pix: pix}, nil
}

func quantize(v float32) uint8 {
	s := float64(v)*127.5 + 128
	switch {
	case math.IsNaN(s) || s <= 0:
		return 0
	case s >= 255:
		return 255
	default:
		return uint8(s)
	}
}
