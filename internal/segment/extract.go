package segment

import (
	"github.com/inkwell-tools/handfont/internal/raster"
	"github.com/inkwell-tools/handfont/internal/recognize"
)

// CharBitmap is a recognized character together with the tight binary crop
// of its ink.
type CharBitmap struct {
	Char   rune `json:"char"`
	Bitmap *raster.Bitmap
}

// ExtractorOptions tunes component matching and cropping. Both values are
// empirical, not correctness invariants; they are configuration precisely
// so callers can adjust them per capture setup.
type ExtractorOptions struct {
	// OverlapThreshold is the minimum fraction of a component's own
	// bounding-box area that must be covered by a character box for the
	// component to be claimed by that character. Typical: 0.30.
	OverlapThreshold float64

	// Padding is the margin in pixels added around the tight pixel
	// bounding box before cropping. Typical: 4.
	Padding int
}

// DefaultExtractorOptions returns the matching defaults used by the
// pipeline.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		OverlapThreshold: 0.30,
		Padding:          4,
	}
}

// Extract matches recognized characters to labeled components and crops one
// bitmap per distinct character.
//
// Character boxes are first rescaled by (scaleX, scaleY) from the
// recognizer's page space into the raster's pixel space. Components are
// then selected by the two-tier overlap policy described in the package
// documentation, the tight pixel bounding box over the selected components
// is padded by opts.Padding, and exactly those components' pixels are
// copied into the crop.
//
// Characters are deduplicated by first occurrence in recognition order.
// Characters matching no component are dropped from the result rather than
// reported as errors; an empty result is the caller's signal that nothing
// matched.
func Extract(li *raster.LabeledImage, chars []recognize.Character, scaleX, scaleY float64, opts ExtractorOptions) []CharBitmap {
	var out []CharBitmap
	seen := make(map[rune]bool)

	for _, ch := range chars {
		if seen[ch.Char] {
			continue
		}

		box := scaleBox(ch.Box, scaleX, scaleY)
		selected := selectComponents(li.Components, box, opts.OverlapThreshold)
		if len(selected) == 0 {
			continue
		}

		crop := cropComponents(li, selected, opts.Padding)
		if crop == nil {
			continue
		}
		seen[ch.Char] = true
		out = append(out, CharBitmap{Char: ch.Char, Bitmap: crop})
	}
	return out
}

// scaleBox maps a box from recognizer page space into raster pixel space.
func scaleBox(b raster.Box, sx, sy float64) raster.Box {
	return raster.Box{
		X: int(float64(b.X) * sx),
		Y: int(float64(b.Y) * sy),
		W: int(float64(b.W) * sx),
		H: int(float64(b.H) * sy),
	}
}

// selectComponents applies the two-tier overlap policy and returns the
// labels of the claimed components.
func selectComponents(components []raster.Component, box raster.Box, threshold float64) []int {
	var selected []int
	bestLabel := -1
	bestOverlap := 0

	for _, comp := range components {
		overlap := comp.Box.OverlapArea(box)
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestLabel = comp.Label
		}
		area := comp.Box.Area()
		if area > 0 && float64(overlap) >= threshold*float64(area) {
			selected = append(selected, comp.Label)
		}
	}

	if len(selected) == 0 && bestOverlap > 0 {
		selected = append(selected, bestLabel)
	}
	return selected
}

// cropComponents copies only the selected components' pixels into a padded
// crop around their tight pixel bounding box.
func cropComponents(li *raster.LabeledImage, labels []int, pad int) *raster.Bitmap {
	want := make(map[int32]bool, len(labels))
	for _, l := range labels {
		want[int32(l)] = true
	}

	// Tight bounding box over the selected components' pixels. Component
	// boxes are already tight per component, so their union suffices.
	first := true
	var minX, minY, maxX, maxY int
	for _, l := range labels {
		b := li.Components[l].Box
		if first {
			minX, minY = b.X, b.Y
			maxX, maxY = b.X+b.W-1, b.Y+b.H-1
			first = false
			continue
		}
		minX = min(minX, b.X)
		minY = min(minY, b.Y)
		maxX = max(maxX, b.X+b.W-1)
		maxY = max(maxY, b.Y+b.H-1)
	}
	if first {
		return nil
	}

	x1, y1 := max(minX-pad, 0), max(minY-pad, 0)
	x2, y2 := min(maxX+pad, li.Width-1), min(maxY+pad, li.Height-1)

	crop := raster.NewBitmap(x2-x1+1, y2-y1+1)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if want[li.Labels[y*li.Width+x]] {
				crop.Pix[(y-y1)*crop.Width+(x-x1)] = raster.Ink
			}
		}
	}
	return crop
}

// ExtractSingle crops a lone drawn glyph to its ink content and centers it
// in a square canvas with the given padding on each side. Used by the
// drawn-batch flow, where each canvas holds exactly one character.
//
// Returns nil when the bitmap contains no ink.
func ExtractSingle(bm *raster.Bitmap, pad int) *raster.Bitmap {
	minX, minY := bm.Width, bm.Height
	maxX, maxY := -1, -1
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			if bm.Pix[y*bm.Width+x] == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return nil
	}

	w, h := maxX-minX+1, maxY-minY+1
	size := max(w, h) + 2*pad
	out := raster.NewBitmap(size, size)
	ox, oy := (size-w)/2, (size-h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[(oy+y)*size+(ox+x)] = bm.Pix[(minY+y)*bm.Width+(minX+x)]
		}
	}
	return out
}
