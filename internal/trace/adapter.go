package trace

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/inkwell-tools/handfont/internal/raster"
)

// ErrEmptyTrace is reported when tracing a bitmap yields zero paths. It is
// non-fatal at the pipeline level: the affected character is omitted from
// the final set.
var ErrEmptyTrace = errors.New("trace produced no paths")

// VectorizedGlyph is a traced character shape plus the coordinate-space
// metadata needed to place it into a font later.
type VectorizedGlyph struct {
	// Paths holds the raw path data strings extracted from the markup. One
	// glyph may decompose into several closed subpaths (stem plus dot).
	Paths []string `json:"paths"`

	// SourceWidth and SourceHeight are the traced bitmap's dimensions in
	// pixels.
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`

	// ScaleHeight is the markup's internal coordinate-space height:
	// SourceHeight multiplied by the tracer's declared scale factor.
	// Glyphs traced from identically sized canvases share this value,
	// which is what lets them be scaled by one common factor.
	ScaleHeight float64 `json:"scale_height"`

	// YAxisUp records whether path coordinates have the Y axis pointing up
	// (origin bottom-left). Captured from the markup transform rather than
	// assumed, so a substituted tracer with a Y-down convention is
	// detected instead of silently inverting every glyph.
	YAxisUp bool `json:"y_axis_up"`
}

// Vectorize traces one character bitmap through the given tracer and parses
// the resulting markup.
//
// The raster's ink=255 convention is inverted here - once, for every tracer
// - into the dark-on-light polarity the Tracer contract requires.
//
// Returns ErrEmptyTrace when the markup contains no path elements.
func Vectorize(ctx context.Context, tracer Tracer, bm *raster.Bitmap) (*VectorizedGlyph, error) {
	markup, err := tracer.Trace(ctx, invert(bm))
	if err != nil {
		return nil, err
	}

	glyph, err := parseMarkup(markup)
	if err != nil {
		return nil, err
	}
	if len(glyph.Paths) == 0 {
		return nil, ErrEmptyTrace
	}
	glyph.SourceWidth = bm.Width
	glyph.SourceHeight = bm.Height
	return glyph, nil
}

// invert renders the bitmap with ink dark (0) on a light (255) background.
func invert(bm *raster.Bitmap) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, bm.Width, bm.Height))
	for i, v := range bm.Pix {
		img.Pix[i] = 255 - v
	}
	return img
}

// parseMarkup extracts path data strings, declared dimensions and the
// coordinate transform from SVG markup.
func parseMarkup(markup []byte) (*VectorizedGlyph, error) {
	glyph := &VectorizedGlyph{}
	scale := 1.0
	declaredHeight := 0.0

	dec := xml.NewDecoder(bytes.NewReader(markup))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed tracer markup: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "svg":
			for _, attr := range start.Attr {
				if attr.Name.Local == "height" {
					declaredHeight = parseLength(attr.Value)
				}
			}
		case "g":
			for _, attr := range start.Attr {
				if attr.Name.Local == "transform" {
					sx, sy, ok := parseTransformScale(attr.Value)
					if ok && sx != 0 {
						scale = 1 / abs(sx)
						glyph.YAxisUp = sy < 0
					}
				}
			}
		case "path":
			for _, attr := range start.Attr {
				if attr.Name.Local == "d" && strings.TrimSpace(attr.Value) != "" {
					glyph.Paths = append(glyph.Paths, attr.Value)
				}
			}
		}
	}

	glyph.ScaleHeight = declaredHeight * scale
	return glyph, nil
}

// parseLength reads a numeric SVG length, tolerating a trailing unit such
// as "pt" or "px".
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// parseTransformScale extracts the scale(x[,y]) factors from a transform
// attribute. Returns ok=false when no scale function is present.
func parseTransformScale(transform string) (sx, sy float64, ok bool) {
	idx := strings.Index(transform, "scale(")
	if idx < 0 {
		return 0, 0, false
	}
	rest := transform[idx+len("scale("):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, 0, false
	}
	fields := strings.FieldsFunc(rest[:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return 0, 0, false
	}
	sx, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	sy = sx
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			sy = v
		}
	}
	return sx, sy, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
