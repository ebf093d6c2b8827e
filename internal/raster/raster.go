package raster

import (
	"image"
	"image/color"
)

// Ink is the pixel value used for foreground (stroke) pixels.
// Background pixels are always 0.
const Ink = 255

// Bitmap is a two-level raster with one byte per pixel.
//
// Pix is stored in row-major order: the pixel at (x, y) lives at
// Pix[y*Width+x]. Values are restricted to {0, Ink}.
type Bitmap struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewBitmap allocates an all-background bitmap of the given dimensions.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the pixel value at (x, y). Out-of-bounds coordinates read as
// background.
func (b *Bitmap) At(x, y int) uint8 {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return 0
	}
	return b.Pix[y*b.Width+x]
}

// Set writes a pixel value at (x, y). Out-of-bounds coordinates are ignored.
func (b *Bitmap) Set(x, y int, v uint8) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.Pix[y*b.Width+x] = v
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	out := NewBitmap(b.Width, b.Height)
	copy(out.Pix, b.Pix)
	return out
}

// InkCount returns the number of ink pixels.
func (b *Bitmap) InkCount() int {
	n := 0
	for _, v := range b.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the bitmap contains no ink at all.
func (b *Bitmap) Empty() bool {
	return b.InkCount() == 0
}

// ToGray converts the bitmap to a standard grayscale image, ink rendered
// white on black.
func (b *Bitmap) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// FromGray builds a bitmap from a grayscale image, treating any value above
// 127 as ink. The input image is not modified.
func FromGray(img *image.Gray) *Bitmap {
	bounds := img.Bounds()
	out := NewBitmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > 127 {
				out.Pix[y*out.Width+x] = Ink
			}
		}
	}
	return out
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
// Formula: Y = 0.299*R + 0.587*G + 0.114*B
func grayValue(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114)
}

// grayscale converts an arbitrary image to a tightly packed grayscale plane
// using BT.601 weights. The returned image always has Min at (0,0).
func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.SetGray(x, y, color.Gray{Y: grayValue(img.At(bounds.Min.X+x, bounds.Min.Y+y))})
		}
	}
	return out
}
