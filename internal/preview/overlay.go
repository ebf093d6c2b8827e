// Package preview renders debugging views of intermediate pipeline stages.
package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/inkwell-tools/handfont/internal/raster"
)

// OverlayResult contains a segmentation overlay encoded as base64 PNG.
type OverlayResult struct {
	// Width of the overlay in pixels (same as the labeled image).
	Width int `json:"width"`

	// Height of the overlay in pixels (same as the labeled image).
	Height int `json:"height"`

	// ComponentCount is the number of distinct components rendered.
	ComponentCount int `json:"component_count"`

	// ImageBase64 is the overlay encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// RenderComponents paints every labeled component in its own color on a
// white background, making segmentation mistakes (merged letters, split
// strokes, surviving noise) visible at a glance.
//
// Component colors come from a perceptually spread palette, so adjacent
// components stay distinguishable even when dozens of letters share one
// line.
func RenderComponents(li *raster.LabeledImage) (*OverlayResult, error) {
	palette := colorful.FastHappyPalette(max(len(li.Components), 1))

	img := image.NewRGBA(image.Rect(0, 0, li.Width, li.Height))
	for y := 0; y < li.Height; y++ {
		for x := 0; x < li.Width; x++ {
			l := li.Labels[y*li.Width+x]
			if l < 0 {
				img.Set(x, y, color.White)
				continue
			}
			r, g, b := palette[int(l)%len(palette)].RGB255()
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &OverlayResult{
		Width:          li.Width,
		Height:         li.Height,
		ComponentCount: len(li.Components),
		ImageBase64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:       "image/png",
	}, nil
}
