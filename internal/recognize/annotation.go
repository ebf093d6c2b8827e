package recognize

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/inkwell-tools/handfont/internal/raster"
)

// ErrNoAnnotation is reported when a recognizer response carries no usable
// annotation: no pages, or an explicit error field.
var ErrNoAnnotation = errors.New("recognizer returned no annotation")

// Recognizer turns compressed image bytes into a hierarchical text
// annotation.
//
// Implementations must be safe for sequential reuse; the pipeline performs
// exactly one blocking call per run and does not retry.
type Recognizer interface {
	Recognize(ctx context.Context, imageBytes []byte) (*Annotation, error)
}

// Vertex is one corner of a bounding polygon.
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Symbol is a single recognized character.
type Symbol struct {
	// Text is the recognized character. Recognizers occasionally emit
	// multi-rune symbols; consumers use the first rune.
	Text string `json:"text"`

	// BoundingBox is the 4-vertex polygon around the symbol, in the
	// recognizer's reported page-dimension space.
	BoundingBox [4]Vertex `json:"bounding_box"`

	// Confidence is the recognizer's certainty (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Word groups consecutive symbols.
type Word struct {
	Symbols []Symbol `json:"symbols"`
}

// Paragraph groups words.
type Paragraph struct {
	Words []Word `json:"words"`
}

// Block groups paragraphs.
type Block struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Page is one recognized page with its reported dimensions.
type Page struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Blocks []Block `json:"blocks"`
}

// Annotation is the full hierarchical recognition result.
type Annotation struct {
	// Error is a recognizer-reported failure message. A non-empty Error is
	// treated exactly like a missing annotation.
	Error string `json:"error,omitempty"`

	Pages []Page `json:"pages"`
}

// Character is a flattened recognized character ready for spatial matching.
type Character struct {
	Char       rune       `json:"char"`
	Box        raster.Box `json:"box"`
	Confidence float64    `json:"confidence"`
}

// Validate checks that the annotation is usable before any indexing:
// it must carry at least one page and no explicit error field.
func (a *Annotation) Validate() error {
	if a == nil {
		return ErrNoAnnotation
	}
	if a.Error != "" {
		return fmt.Errorf("%w: %s", ErrNoAnnotation, a.Error)
	}
	if len(a.Pages) == 0 {
		return ErrNoAnnotation
	}
	return nil
}

// Characters flattens the first page's symbols into recognition order,
// keeping only letters. Symbol polygons collapse to their axis-aligned
// bounding box.
//
// Callers must Validate the annotation first; Characters assumes at least
// one page exists.
func (a *Annotation) Characters() []Character {
	var out []Character
	for _, block := range a.Pages[0].Blocks {
		for _, par := range block.Paragraphs {
			for _, word := range par.Words {
				for _, sym := range word.Symbols {
					r := firstRune(sym.Text)
					if r == 0 || !unicode.IsLetter(r) {
						continue
					}
					out = append(out, Character{
						Char:       unicode.ToLower(r),
						Box:        polygonBounds(sym.BoundingBox),
						Confidence: sym.Confidence,
					})
				}
			}
		}
	}
	return out
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func polygonBounds(v [4]Vertex) raster.Box {
	minX, minY := v[0].X, v[0].Y
	maxX, maxY := v[0].X, v[0].Y
	for _, p := range v[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return raster.Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// BoxFromRect builds a 4-vertex polygon from a box, clockwise from the
// top-left corner. Useful for recognizer implementations and tests.
func BoxFromRect(b raster.Box) [4]Vertex {
	return [4]Vertex{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
}
