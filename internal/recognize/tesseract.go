package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer is the production Recognizer, backed by the Tesseract
// engine via gosseract. Tesseract must be installed on the system together
// with the language data for the configured language.
type TesseractRecognizer struct {
	// Language is the Tesseract language code. Defaults to "eng" when empty.
	Language string

	// Whitelist restricts recognition to the given characters when
	// non-empty. Handwriting capture typically passes the pangram's
	// alphabet to cut down on punctuation misreads.
	Whitelist string
}

// Recognize runs symbol-level OCR on the image bytes and shapes the result
// into the page/block/paragraph/word/symbol hierarchy.
//
// Tesseract reports flat word and symbol boxes rather than a nested tree,
// so the hierarchy is reconstructed: one page sized from the decoded image,
// a single block and paragraph, one Word per Tesseract word, and each
// symbol attached to the word whose box contains its center. Symbols whose
// center falls in no word box are appended as single-symbol words so no
// recognized ink is silently lost.
//
// Confidence scores are normalized from Tesseract's 0-100 range to [0,1].
func (t *TesseractRecognizer) Recognize(ctx context.Context, imageBytes []byte) (*Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.Whitelist != "" {
		if err := client.SetWhitelist(t.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	wordBoxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("word recognition failed: %w", err)
	}
	symBoxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("symbol recognition failed: %w", err)
	}

	words := make([]Word, len(wordBoxes))
	for _, sb := range symBoxes {
		if sb.Word == "" {
			continue
		}
		sym := Symbol{
			Text:        sb.Word,
			BoundingBox: rectVertices(sb.Box),
			Confidence:  sb.Confidence / 100.0,
		}
		cx := (sb.Box.Min.X + sb.Box.Max.X) / 2
		cy := (sb.Box.Min.Y + sb.Box.Max.Y) / 2
		placed := false
		for i, wb := range wordBoxes {
			if cx >= wb.Box.Min.X && cx < wb.Box.Max.X && cy >= wb.Box.Min.Y && cy < wb.Box.Max.Y {
				words[i].Symbols = append(words[i].Symbols, sym)
				placed = true
				break
			}
		}
		if !placed {
			words = append(words, Word{Symbols: []Symbol{sym}})
		}
	}

	// Drop words Tesseract boxed but attached no symbols to.
	kept := words[:0]
	for _, w := range words {
		if len(w.Symbols) > 0 {
			kept = append(kept, w)
		}
	}

	return &Annotation{
		Pages: []Page{{
			Width:  cfg.Width,
			Height: cfg.Height,
			Blocks: []Block{{
				Paragraphs: []Paragraph{{Words: kept}},
			}},
		}},
	}, nil
}

func rectVertices(r image.Rectangle) [4]Vertex {
	return [4]Vertex{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}
