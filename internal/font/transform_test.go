package font

import (
	"errors"
	"math"
	"testing"

	"github.com/inkwell-tools/handfont/internal/trace"
)

func glyphFromPaths(height float64, paths ...string) *trace.VectorizedGlyph {
	return &trace.VectorizedGlyph{
		Paths:       paths,
		ScaleHeight: height,
		YAxisUp:     true,
	}
}

func TestTransformGlyph_IndependentFillsDesignHeight(t *testing.T) {
	// A 200x400 rectangle in trace space.
	g := glyphFromPaths(1000, "M100 100 L300 100 L300 500 L100 500 Z")

	p, err := TransformGlyph('a', g, ModeIndependent, 0)
	if err != nil {
		t.Fatalf("TransformGlyph failed: %v", err)
	}

	b, ok := BoundingBox(p.Commands)
	if !ok {
		t.Fatal("placed glyph has no extent")
	}
	if math.Abs(b.MinY-Descender) > 1e-6 {
		t.Errorf("bottom: got %g, want descender %d", b.MinY, Descender)
	}
	if math.Abs(b.MaxY-Ascender) > 1e-6 {
		t.Errorf("top: got %g, want ascender %d", b.MaxY, Ascender)
	}

	// Height 400 scales by 2.5, so the 200-wide box becomes 500 wide.
	wantBearing := int(math.Round(500 * 0.12))
	if p.LeftBearing != wantBearing {
		t.Errorf("left bearing: got %d, want %d", p.LeftBearing, wantBearing)
	}
	if p.Advance != 500+2*wantBearing {
		t.Errorf("advance: got %d, want %d", p.Advance, 500+2*wantBearing)
	}
	if math.Abs(b.MinX-float64(wantBearing)) > 1e-6 {
		t.Errorf("left edge: got %g, want bearing %d", b.MinX, wantBearing)
	}
}

func TestTransformGlyph_UniformSharesScale(t *testing.T) {
	// Two glyphs from the same 1000-unit canvas: a tall one and a short
	// one. With refHeight 1000 the scale is exactly 1, so trace-space sizes
	// carry straight through.
	tall := glyphFromPaths(1000, "M100 200 L300 200 L300 800 L100 800 Z")
	short := glyphFromPaths(1000, "M100 200 L400 200 L400 500 L100 500 Z")

	pt, err := TransformGlyph('b', tall, ModeUniform, 1000)
	if err != nil {
		t.Fatalf("tall glyph failed: %v", err)
	}
	ps, err := TransformGlyph('o', short, ModeUniform, 1000)
	if err != nil {
		t.Fatalf("short glyph failed: %v", err)
	}

	bt, _ := BoundingBox(pt.Commands)
	bs, _ := BoundingBox(ps.Commands)

	if math.Abs(bt.Height()-600) > 1e-6 {
		t.Errorf("tall height: got %g, want 600", bt.Height())
	}
	if math.Abs(bs.Height()-300) > 1e-6 {
		t.Errorf("short height: got %g, want 300 (not stretched to the tall glyph)", bs.Height())
	}
	if math.Abs(bt.Width()-200) > 1e-6 || math.Abs(bs.Width()-300) > 1e-6 {
		t.Errorf("widths: got %g and %g, want 200 and 300", bt.Width(), bs.Width())
	}
}

func TestTransformGlyph_UniformPreservesCanvasPosition(t *testing.T) {
	// A glyph sitting 200 units above the canvas bottom keeps that offset
	// relative to the descender line.
	g := glyphFromPaths(1000, "M100 200 L300 200 L300 600 L100 600 Z")

	p, err := TransformGlyph('x', g, ModeUniform, 1000)
	if err != nil {
		t.Fatalf("TransformGlyph failed: %v", err)
	}
	b, _ := BoundingBox(p.Commands)
	if math.Abs(b.MinY-(200+Descender)) > 1e-6 {
		t.Errorf("bottom: got %g, want %d (canvas offset preserved)", b.MinY, 200+Descender)
	}
}

func TestTransformGlyph_UniformRequiresRefHeight(t *testing.T) {
	g := glyphFromPaths(1000, "M0 0 L10 0 L10 10 Z")
	if _, err := TransformGlyph('a', g, ModeUniform, 0); err == nil {
		t.Error("uniform mode accepted a zero reference height")
	}
}

func TestTransformGlyph_DegenerateOutline(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"zero height", "M0 100 L500 100 Z"},
		{"zero width", "M100 0 L100 500 Z"},
		{"single point", "M100 100 Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := glyphFromPaths(1000, tt.path)
			_, err := TransformGlyph('a', g, ModeIndependent, 0)
			if !errors.Is(err, ErrDegenerateOutline) {
				t.Errorf("got %v, want ErrDegenerateOutline", err)
			}
		})
	}
}

func TestTransformGlyph_PunctuationPeriod(t *testing.T) {
	// A period is scaled to 10% of the design height and sits on the
	// baseline regardless of its trace-space size.
	g := glyphFromPaths(1000, "M0 0 L400 0 L400 400 L0 400 Z")

	p, err := TransformGlyph('.', g, ModeIndependent, 0)
	if err != nil {
		t.Fatalf("TransformGlyph failed: %v", err)
	}
	b, _ := BoundingBox(p.Commands)
	if math.Abs(b.Height()-0.10*TargetHeight) > 1e-6 {
		t.Errorf("period height: got %g, want %g", b.Height(), 0.10*TargetHeight)
	}
	if math.Abs(b.MinY) > 1e-6 {
		t.Errorf("period bottom: got %g, want 0 (on the baseline)", b.MinY)
	}
}

func TestTransformGlyph_PunctuationApostropheRaised(t *testing.T) {
	g := glyphFromPaths(1000, "M0 0 L100 0 L100 300 L0 300 Z")

	p, err := TransformGlyph('\'', g, ModeIndependent, 0)
	if err != nil {
		t.Fatalf("TransformGlyph failed: %v", err)
	}
	b, _ := BoundingBox(p.Commands)
	if math.Abs(b.MinY-560) > 1e-6 {
		t.Errorf("apostrophe bottom: got %g, want 560 (raised above x-height)", b.MinY)
	}
}

func TestTransformGlyph_FlipsYDownInput(t *testing.T) {
	// Same rectangle in Y-down and Y-up encodings of a 1000-high space must
	// land identically.
	up := glyphFromPaths(1000, "M100 200 L300 200 L300 600 L100 600 Z")
	down := &trace.VectorizedGlyph{
		Paths:       []string{"M100 800 L300 800 L300 400 L100 400 Z"},
		ScaleHeight: 1000,
		YAxisUp:     false,
	}

	pu, err := TransformGlyph('k', up, ModeUniform, 1000)
	if err != nil {
		t.Fatalf("Y-up glyph failed: %v", err)
	}
	pd, err := TransformGlyph('k', down, ModeUniform, 1000)
	if err != nil {
		t.Fatalf("Y-down glyph failed: %v", err)
	}

	bu, _ := BoundingBox(pu.Commands)
	bd, _ := BoundingBox(pd.Commands)
	if math.Abs(bu.MinY-bd.MinY) > 1e-6 || math.Abs(bu.MaxY-bd.MaxY) > 1e-6 {
		t.Errorf("encodings disagree: Y-up %+v, Y-down %+v", bu, bd)
	}
	if pu.Advance != pd.Advance {
		t.Errorf("advances disagree: %d vs %d", pu.Advance, pd.Advance)
	}
}

func TestTransformGlyph_BadPathData(t *testing.T) {
	g := glyphFromPaths(1000, "M10 10 #garbage")
	if _, err := TransformGlyph('a', g, ModeIndependent, 0); err == nil {
		t.Error("malformed path data accepted")
	}
}
