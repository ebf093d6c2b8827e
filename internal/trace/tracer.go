package trace

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/dennwc/gotrace"
)

// Tracer converts a binary shape into vector markup.
//
// The input image must hold dark shapes on a light background; see the
// package documentation for the polarity contract. The returned bytes are
// SVG markup with one or more path elements.
type Tracer interface {
	Trace(ctx context.Context, img *image.Gray) ([]byte, error)
}

// PotraceTracer is the production tracer, a pure-Go potrace port tuned for
// handwriting: small speckles are suppressed and curve fitting is kept
// moderate so pen strokes stay rounded without corners being smoothed away.
type PotraceTracer struct {
	// TurdSize drops traced blobs below this pixel area. Typical: 2.
	TurdSize int

	// OptTolerance controls curve optimization aggressiveness. Typical: 0.2.
	OptTolerance float64
}

// NewPotraceTracer returns a tracer with the handwriting tuning defaults.
func NewPotraceTracer() *PotraceTracer {
	return &PotraceTracer{TurdSize: 2, OptTolerance: 0.2}
}

// Trace runs potrace over the image and serializes the traced paths as SVG
// markup in the potrace output convention (decipixel coordinates, Y axis
// up, translate/scale transform declaring both).
func (t *PotraceTracer) Trace(ctx context.Context, img *image.Gray) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The default threshold keys on alpha, and a grayscale image is opaque
	// everywhere; classify by luminance so dark pixels are the foreground.
	bm := gotrace.NewBitmapFromImage(img, func(_, _ int, c color.Color) bool {
		r, g, b, _ := c.RGBA()
		return (r+g+b)/3 < 0x8000
	})
	paths, err := gotrace.Trace(bm, &gotrace.Params{
		TurdSize:     t.TurdSize,
		TurnPolicy:   gotrace.TurnMinority,
		AlphaMax:     1.0,
		OptiCurve:    true,
		OptTolerance: t.OptTolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("trace failed: %w", err)
	}

	w := img.Rect.Dx()
	h := img.Rect.Dy()
	return writeMarkup(w, h, paths), nil
}

// writeMarkup serializes traced paths in the potrace SVG convention: path
// coordinates are multiplied by 10 and flipped to Y-up, and the wrapping
// group declares the inverse transform. Consumers recover the internal
// scale factor and axis direction from that transform.
func writeMarkup(w, h int, paths []gotrace.Path) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%dpt\" height=\"%dpt\" viewBox=\"0 0 %d %d\">\n", w, h, w*10, h*10)
	fmt.Fprintf(&buf, "<g transform=\"translate(0,%d) scale(0.1,-0.1)\" fill=\"#000000\" stroke=\"none\">\n", h*10)
	for _, p := range paths {
		writePath(&buf, p, h)
	}
	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes()
}

func writePath(buf *bytes.Buffer, p gotrace.Path, h int) {
	if len(p.Curve) == 0 {
		return
	}

	// A potrace curve is closed: each segment ends at Pnt[2], so the
	// subpath starts at the last segment's endpoint.
	start := p.Curve[len(p.Curve)-1].Pnt[2]
	buf.WriteString("<path d=\"")
	fmt.Fprintf(buf, "M%s %s", coord(start.X), coordY(start.Y, h))
	for _, seg := range p.Curve {
		switch seg.Type {
		case gotrace.TypeCorner:
			fmt.Fprintf(buf, " L%s %s L%s %s",
				coord(seg.Pnt[1].X), coordY(seg.Pnt[1].Y, h),
				coord(seg.Pnt[2].X), coordY(seg.Pnt[2].Y, h))
		case gotrace.TypeBezier:
			fmt.Fprintf(buf, " C%s %s %s %s %s %s",
				coord(seg.Pnt[0].X), coordY(seg.Pnt[0].Y, h),
				coord(seg.Pnt[1].X), coordY(seg.Pnt[1].Y, h),
				coord(seg.Pnt[2].X), coordY(seg.Pnt[2].Y, h))
		}
	}
	buf.WriteString(" Z\"/>\n")
}

// coord formats an X coordinate in decipixels.
func coord(v float64) string {
	return fmt.Sprintf("%.0f", v*10)
}

// coordY formats a Y coordinate in decipixels, flipped to the Y-up origin
// at the bottom-left.
func coordY(v float64, h int) string {
	return fmt.Sprintf("%.0f", (float64(h)-v)*10)
}
