package font

import (
	"errors"
	"fmt"
	"math"

	"github.com/inkwell-tools/handfont/internal/trace"
)

// Font design-space constants. The design square is UnitsPerEm tall with
// the baseline at y=0; ink spans [Descender, Ascender].
const (
	UnitsPerEm = 1000
	Ascender   = 800
	Descender  = -200

	// TargetHeight is the vertical extent glyphs are normalized into.
	TargetHeight = Ascender - Descender

	// bearingFraction of the scaled glyph width is reserved on each side.
	bearingFraction = 0.12
)

// ErrDegenerateOutline is reported when a glyph's bounding box has zero
// width or height, which would propagate non-finite numbers through the
// scale computation. Callers treat it like an empty trace: the character is
// omitted.
var ErrDegenerateOutline = errors.New("glyph outline has a degenerate bounding box")

// Mode selects how a glyph is scaled into the design square.
type Mode int

const (
	// ModeIndependent scales each glyph by its own bounding-box height.
	// Used for photo-derived glyphs, where every crop has a different
	// size and the sample gives no shared reference frame.
	ModeIndependent Mode = iota

	// ModeUniform scales every glyph by one shared factor derived from a
	// reference height supplied by the caller. Used when all glyphs come
	// from identically sized drawing canvases: independent scaling would
	// blow a narrow "i" up to the stroke weight of a wide "m" and destroy
	// baseline alignment.
	ModeUniform
)

// Placement is a glyph outline mapped into font design units together with
// its horizontal metrics.
type Placement struct {
	Commands    []Command `json:"-"`
	Advance     int       `json:"advance"`
	LeftBearing int       `json:"left_bearing"`
}

// punctuation placements: these marks get a fixed height as a fraction of
// TargetHeight and an explicit vertical offset from the baseline, because
// their own bounding boxes carry no meaningful scale (a period's box says
// nothing about how big a period should be).
var punctuation = map[rune]struct {
	heightFrac float64
	baseline   float64
}{
	'.':  {heightFrac: 0.10, baseline: 0},
	',':  {heightFrac: 0.16, baseline: -80},
	'-':  {heightFrac: 0.06, baseline: 380},
	'\'': {heightFrac: 0.18, baseline: 560},
}

// TransformGlyph parses a vectorized glyph's paths and maps them into the
// font design square.
//
// refHeight is only consulted in ModeUniform, where it is the shared
// coordinate-space height all glyphs are scaled against (typically the
// VectorizedGlyph.ScaleHeight of the common canvas size).
//
// In both modes the outline is left-aligned to its side bearing.
// Independent mode anchors the glyph bottom at the descender line; uniform
// mode keeps the glyph's vertical position within its source canvas (with
// the canvas bottom on the descender line), since the canvas guideline
// placement is exactly what the shared frame preserves.
func TransformGlyph(char rune, g *trace.VectorizedGlyph, mode Mode, refHeight float64) (*Placement, error) {
	var cmds []Command
	for _, d := range g.Paths {
		parsed, err := ParsePath(d)
		if err != nil {
			return nil, fmt.Errorf("glyph %q: %w", char, err)
		}
		cmds = append(cmds, parsed...)
	}

	// Normalize to Y-up before any placement math.
	if !g.YAxisUp {
		cmds = flipY(cmds, g.ScaleHeight)
	}

	bbox, ok := BoundingBox(cmds)
	if !ok || bbox.Width() <= 0 || bbox.Height() <= 0 {
		return nil, ErrDegenerateOutline
	}

	if p, isPunct := punctuation[char]; isPunct {
		return placePunctuation(cmds, bbox, p.heightFrac, p.baseline), nil
	}

	switch mode {
	case ModeUniform:
		if refHeight <= 0 {
			return nil, fmt.Errorf("uniform mode requires a positive reference height, got %g", refHeight)
		}
		scale := float64(TargetHeight) / refHeight
		return place(cmds, bbox, scale, bbox.MinY*scale+Descender), nil
	default:
		scale := float64(TargetHeight) / bbox.Height()
		return place(cmds, bbox, scale, Descender), nil
	}
}

// place maps commands by the given scale, aligning MinX to the left bearing
// and MinY to baselineY.
func place(cmds []Command, bbox Bounds, scale, baselineY float64) *Placement {
	scaledWidth := bbox.Width() * scale
	bearing := int(math.Round(scaledWidth * bearingFraction))
	advance := int(math.Round(scaledWidth)) + 2*bearing

	tx := func(x float64) float64 { return (x-bbox.MinX)*scale + float64(bearing) }
	ty := func(y float64) float64 { return (y-bbox.MinY)*scale + baselineY }

	return &Placement{
		Commands:    mapCommands(cmds, tx, ty),
		Advance:     advance,
		LeftBearing: bearing,
	}
}

// placePunctuation scales a mark to a fixed fraction of TargetHeight and
// sits its bottom at the given baseline offset.
func placePunctuation(cmds []Command, bbox Bounds, heightFrac, baseline float64) *Placement {
	scale := heightFrac * float64(TargetHeight) / bbox.Height()
	scaledWidth := bbox.Width() * scale
	bearing := int(math.Round(scaledWidth * bearingFraction * 2))
	advance := int(math.Round(scaledWidth)) + 2*bearing

	tx := func(x float64) float64 { return (x-bbox.MinX)*scale + float64(bearing) }
	ty := func(y float64) float64 { return (y-bbox.MinY)*scale + baseline }

	return &Placement{
		Commands:    mapCommands(cmds, tx, ty),
		Advance:     advance,
		LeftBearing: bearing,
	}
}

// flipY mirrors commands vertically within a space of the given height,
// converting Y-down coordinates to Y-up.
func flipY(cmds []Command, height float64) []Command {
	return mapCommands(cmds,
		func(x float64) float64 { return x },
		func(y float64) float64 { return height - y })
}

// mapCommands applies coordinate transforms to every variant, control
// points included.
func mapCommands(cmds []Command, tx, ty func(float64) float64) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		switch c := c.(type) {
		case MoveTo:
			out[i] = MoveTo{X: tx(c.X), Y: ty(c.Y)}
		case LineTo:
			out[i] = LineTo{X: tx(c.X), Y: ty(c.Y)}
		case CubicTo:
			out[i] = CubicTo{
				X1: tx(c.X1), Y1: ty(c.Y1),
				X2: tx(c.X2), Y2: ty(c.Y2),
				X: tx(c.X), Y: ty(c.Y),
			}
		case QuadTo:
			out[i] = QuadTo{X1: tx(c.X1), Y1: ty(c.Y1), X: tx(c.X), Y: ty(c.Y)}
		case Close:
			out[i] = Close{}
		}
	}
	return out
}
