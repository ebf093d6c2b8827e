package raster

// Box is an axis-aligned rectangle in pixel coordinates.
type Box struct {
	X int `json:"x"` // Left edge (inclusive)
	Y int `json:"y"` // Top edge (inclusive)
	W int `json:"w"` // Width in pixels
	H int `json:"h"` // Height in pixels
}

// Area returns W*H.
func (b Box) Area() int {
	return b.W * b.H
}

// Intersect returns the overlapping region of two boxes. A box with zero or
// negative extent means no overlap.
func (b Box) Intersect(o Box) Box {
	x1, y1 := max(b.X, o.X), max(b.Y, o.Y)
	x2, y2 := min(b.X+b.W, o.X+o.W), min(b.Y+b.H, o.Y+o.H)
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// OverlapArea returns the area of the intersection of two boxes, or 0 when
// they do not intersect.
func (b Box) OverlapArea(o Box) int {
	i := b.Intersect(o)
	if i.W <= 0 || i.H <= 0 {
		return 0
	}
	return i.Area()
}

// Component is one 8-connected ink region found during labeling.
type Component struct {
	// Label is the component's index in LabeledImage.Components.
	Label int `json:"label"`

	// Area is the number of ink pixels in the component.
	Area int `json:"area"`

	// Box is the tight bounding box of the component's pixels.
	Box Box `json:"box"`
}

// LabeledImage is the result of partitioning a bitmap into connected
// components.
//
// Labels has the same dimensions as the source bitmap; -1 marks background
// (including pixels of components dropped for being under the area
// threshold). Every non-negative entry indexes into Components.
type LabeledImage struct {
	Labels []int32 `json:"-"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Components lists surviving components; Components[i].Label == i.
	Components []Component `json:"components"`
}

// LabelAt returns the label at (x, y), or -1 for out-of-bounds coordinates.
func (li *LabeledImage) LabelAt(x, y int) int32 {
	if x < 0 || x >= li.Width || y < 0 || y >= li.Height {
		return -1
	}
	return li.Labels[y*li.Width+x]
}

// Label partitions a bitmap into 8-connected ink components.
//
// This is the single connected-component implementation in the module.
// Binarizer noise removal, glyph extraction and preview rendering all go
// through it; parameterizing on minArea is what keeps the call sites from
// re-deriving flood fill.
//
// # Algorithm
//
// Pixels are scanned in raster order. Each unlabeled ink pixel starts a
// stack-based (non-recursive) 8-connected flood fill that assigns the next
// label and accumulates area and bounding box as pixels are visited. A
// pixel is marked labeled at the moment it is pushed, not when popped;
// otherwise the same pixel can be queued from several directions and the
// stack grows quadratically on thick strokes.
//
// After the scan, components with area < minArea are dropped: their label
// entries are reset to -1 and the surviving components are compacted so
// that Components[i].Label == i.
func Label(b *Bitmap, minArea int) *LabeledImage {
	w, h := b.Width, b.Height
	labels := make([]int32, w*h)
	for i := range labels {
		labels[i] = -1
	}

	type point struct{ x, y int }
	var stack []point
	var components []Component

	next := int32(0)
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			if b.Pix[sy*w+sx] == 0 || labels[sy*w+sx] >= 0 {
				continue
			}

			comp := Component{
				Label: int(next),
				Box:   Box{X: sx, Y: sy, W: 1, H: 1},
			}
			maxX, maxY := sx, sy

			// Mark on push.
			labels[sy*w+sx] = next
			stack = append(stack[:0], point{sx, sy})

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				comp.Area++
				if p.x < comp.Box.X {
					comp.Box.X = p.x
				}
				if p.y < comp.Box.Y {
					comp.Box.Y = p.y
				}
				if p.x > maxX {
					maxX = p.x
				}
				if p.y > maxY {
					maxY = p.y
				}

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := p.x+dx, p.y+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						idx := ny*w + nx
						if b.Pix[idx] == 0 || labels[idx] >= 0 {
							continue
						}
						labels[idx] = next
						stack = append(stack, point{nx, ny})
					}
				}
			}

			comp.Box.W = maxX - comp.Box.X + 1
			comp.Box.H = maxY - comp.Box.Y + 1
			components = append(components, comp)
			next++
		}
	}

	// Drop sub-threshold components and compact the surviving labels.
	remap := make([]int32, len(components))
	kept := make([]Component, 0, len(components))
	for i := range components {
		if components[i].Area < minArea {
			remap[i] = -1
			continue
		}
		remap[i] = int32(len(kept))
		components[i].Label = len(kept)
		kept = append(kept, components[i])
	}
	for i, l := range labels {
		if l >= 0 {
			labels[i] = remap[l]
		}
	}

	return &LabeledImage{
		Labels:     labels,
		Width:      w,
		Height:     h,
		Components: kept,
	}
}
