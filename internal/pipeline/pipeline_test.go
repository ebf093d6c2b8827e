package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/sfnt"

	"github.com/inkwell-tools/handfont/internal/raster"
	"github.com/inkwell-tools/handfont/internal/recognize"
)

// stubRecognizer returns a canned annotation and counts invocations.
type stubRecognizer struct {
	ann   *recognize.Annotation
	err   error
	calls int32
}

func (s *stubRecognizer) Recognize(_ context.Context, _ []byte) (*recognize.Annotation, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.ann, s.err
}

// stubTracer emits one rectangular path in the potrace markup convention,
// sized from the handed image. When minDark is positive, images with fewer
// dark pixels trace to empty markup.
type stubTracer struct {
	minDark int
}

func (s *stubTracer) Trace(_ context.Context, img *image.Gray) ([]byte, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dark := 0
	for _, v := range img.Pix {
		if v < 128 {
			dark++
		}
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%dpt" height="%dpt" viewBox="0 0 %d %d">
<g transform="translate(0,%d) scale(0.1,-0.1)" fill="#000000" stroke="none">
`, w, h, w*10, h*10, h*10)
	if s.minDark > 0 && dark < s.minDark {
		return []byte(header + "</g>\n</svg>\n"), nil
	}
	d := fmt.Sprintf("M20 20 L%d 20 L%d %d L20 %d Z", w*10-20, w*10-20, h*10-20, h*10-20)
	return []byte(header + fmt.Sprintf("<path d=%q/>\n", d) + "</g>\n</svg>\n"), nil
}

// failingTracer always errors.
type failingTracer struct{ err error }

func (f *failingTracer) Trace(_ context.Context, _ *image.Gray) ([]byte, error) {
	return nil, f.err
}

// encodePaperPNG draws black rectangles on white paper and encodes as PNG.
func encodePaperPNG(t *testing.T, w, h int, blocks ...image.Rectangle) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	for _, b := range blocks {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func annotationFor(pageW, pageH int, syms ...recognize.Symbol) *recognize.Annotation {
	return &recognize.Annotation{
		Pages: []recognize.Page{{
			Width:  pageW,
			Height: pageH,
			Blocks: []recognize.Block{{
				Paragraphs: []recognize.Paragraph{{
					Words: []recognize.Word{{Symbols: syms}},
				}},
			}},
		}},
	}
}

func symAt(text string, b raster.Box) recognize.Symbol {
	return recognize.Symbol{Text: text, BoundingBox: recognize.BoxFromRect(b), Confidence: 0.95}
}

func drawnCanvas(w, h int, blocks ...image.Rectangle) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	for _, b := range blocks {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestGeneratePangramFont_EndToEnd(t *testing.T) {
	// Three ink blocks on one line, one recognized letter per block.
	imageBytes := encodePaperPNG(t, 200, 60,
		image.Rect(10, 10, 30, 40),
		image.Rect(80, 10, 100, 40),
		image.Rect(150, 10, 170, 40),
	)
	rec := &stubRecognizer{ann: annotationFor(200, 60,
		symAt("a", raster.Box{X: 8, Y: 8, W: 24, H: 34}),
		symAt("b", raster.Box{X: 78, Y: 8, W: 24, H: 34}),
		symAt("c", raster.Box{X: 148, Y: 8, W: 24, H: 34}),
	)}

	p := New(rec, &stubTracer{})
	result, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
	if err != nil {
		t.Fatalf("GeneratePangramFont failed: %v", err)
	}

	if string(result.CharsFound) != "abc" {
		t.Errorf("CharsFound: got %q, want %q", string(result.CharsFound), "abc")
	}
	if got := atomic.LoadInt32(&rec.calls); got != 1 {
		t.Errorf("recognizer calls: got %d, want 1", got)
	}

	f, err := sfnt.Parse(result.FontBytes)
	if err != nil {
		t.Fatalf("produced font does not parse: %v", err)
	}
	// .notdef + space + a, b, c.
	if got := f.NumGlyphs(); got != 5 {
		t.Errorf("NumGlyphs: got %d, want 5", got)
	}
}

func TestGeneratePangramFont_BlankImageSkipsRecognition(t *testing.T) {
	imageBytes := encodePaperPNG(t, 200, 60)
	rec := &stubRecognizer{ann: annotationFor(200, 60)}

	p := New(rec, &stubTracer{})
	_, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("got %v, want ErrEmptyInput", err)
	}
	if got := atomic.LoadInt32(&rec.calls); got != 0 {
		t.Errorf("recognizer called %d times for a blank image, want 0", got)
	}
}

func TestGeneratePangramFont_RecognizerError(t *testing.T) {
	imageBytes := encodePaperPNG(t, 200, 60, image.Rect(10, 10, 30, 40))

	tests := []struct {
		name string
		rec  *stubRecognizer
	}{
		{"transport error", &stubRecognizer{err: errors.New("connection refused")}},
		{"error annotation", &stubRecognizer{ann: &recognize.Annotation{Error: "quota exceeded"}}},
		{"no pages", &stubRecognizer{ann: &recognize.Annotation{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.rec, &stubTracer{})
			_, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
			if !errors.Is(err, ErrRecognitionFailed) {
				t.Errorf("got %v, want ErrRecognitionFailed", err)
			}
		})
	}
}

func TestGeneratePangramFont_NoExpectedLetters(t *testing.T) {
	imageBytes := encodePaperPNG(t, 200, 60, image.Rect(10, 10, 30, 40))
	// The recognizer reads something, but nothing from the pangram.
	rec := &stubRecognizer{ann: annotationFor(200, 60,
		symAt("x", raster.Box{X: 8, Y: 8, W: 24, H: 34}),
	)}

	p := New(rec, &stubTracer{})
	_, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("got %v, want ErrExtractionFailed", err)
	}
}

func TestGeneratePangramFont_BoxOverBlankPaper(t *testing.T) {
	imageBytes := encodePaperPNG(t, 200, 60, image.Rect(10, 10, 30, 40))
	// A recognized letter whose box overlaps no ink component at all.
	rec := &stubRecognizer{ann: annotationFor(200, 60,
		symAt("a", raster.Box{X: 120, Y: 10, W: 24, H: 34}),
	)}

	p := New(rec, &stubTracer{})
	_, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("got %v, want ErrExtractionFailed", err)
	}
}

func TestGeneratePangramFont_TracerErrorAborts(t *testing.T) {
	imageBytes := encodePaperPNG(t, 200, 60, image.Rect(10, 10, 30, 40))
	rec := &stubRecognizer{ann: annotationFor(200, 60,
		symAt("a", raster.Box{X: 8, Y: 8, W: 24, H: 34}),
	)}
	wantErr := errors.New("trace engine crashed")

	p := New(rec, &failingTracer{err: wantErr})
	_, err := p.GeneratePangramFont(context.Background(), imageBytes, "abc")
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want the tracer's error", err)
	}
}

func TestGenerateDrawnFont_EndToEnd(t *testing.T) {
	drawings := []Drawing{
		{Char: 'A', Image: drawnCanvas(100, 100, image.Rect(20, 20, 60, 80))}, // lowercased
		{Char: 'a', Image: drawnCanvas(100, 100, image.Rect(30, 30, 70, 70))}, // duplicate, dropped
		{Char: 'b', Image: drawnCanvas(100, 100, image.Rect(25, 10, 55, 90))},
		{Char: '.', Image: drawnCanvas(100, 100, image.Rect(45, 70, 55, 80))}, // supported mark
		{Char: '5', Image: drawnCanvas(100, 100, image.Rect(20, 20, 80, 80))}, // unsupported, dropped
		{Char: 'c', Image: drawnCanvas(100, 100)},                             // blank canvas, dropped
	}

	p := New(&stubRecognizer{}, &stubTracer{})
	result, err := p.GenerateDrawnFont(context.Background(), drawings)
	if err != nil {
		t.Fatalf("GenerateDrawnFont failed: %v", err)
	}

	if string(result.CharsFound) != ".ab" {
		t.Errorf("CharsFound: got %q, want %q", string(result.CharsFound), ".ab")
	}
	if _, err := sfnt.Parse(result.FontBytes); err != nil {
		t.Errorf("produced font does not parse: %v", err)
	}
}

func TestGenerateDrawnFont_AllBlank(t *testing.T) {
	drawings := []Drawing{
		{Char: 'a', Image: drawnCanvas(100, 100)},
		{Char: 'b', Image: drawnCanvas(100, 100)},
	}

	p := New(&stubRecognizer{}, &stubTracer{})
	_, err := p.GenerateDrawnFont(context.Background(), drawings)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("got %v, want ErrEmptyInput", err)
	}
}

func TestGenerateDrawnFont_EmptyTraceDropsCharacter(t *testing.T) {
	// The 'b' drawing is a speck small enough that the tracer finds nothing;
	// the run continues with the remaining character.
	drawings := []Drawing{
		{Char: 'a', Image: drawnCanvas(100, 100, image.Rect(20, 20, 60, 80))},
		{Char: 'b', Image: drawnCanvas(100, 100, image.Rect(50, 50, 54, 54))},
	}

	p := New(&stubRecognizer{}, &stubTracer{minDark: 50})
	result, err := p.GenerateDrawnFont(context.Background(), drawings)
	if err != nil {
		t.Fatalf("GenerateDrawnFont failed: %v", err)
	}
	if string(result.CharsFound) != "a" {
		t.Errorf("CharsFound: got %q, want %q", string(result.CharsFound), "a")
	}
}

func TestGenerateFont_EmptyPlacements(t *testing.T) {
	p := New(&stubRecognizer{}, &stubTracer{})
	_, err := p.GenerateFont(nil)
	if !errors.Is(err, ErrFontAssembly) {
		t.Errorf("got %v, want ErrFontAssembly", err)
	}
}

func TestVectorizeDrawing(t *testing.T) {
	p := New(&stubRecognizer{}, &stubTracer{})

	glyph, err := p.VectorizeDrawing(context.Background(), drawnCanvas(100, 100, image.Rect(30, 20, 50, 80)))
	if err != nil {
		t.Fatalf("VectorizeDrawing failed: %v", err)
	}
	if len(glyph.Paths) == 0 {
		t.Error("no paths traced")
	}
	// The glyph is centered in a square canvas before tracing.
	if glyph.SourceWidth != glyph.SourceHeight {
		t.Errorf("trace canvas not square: %dx%d", glyph.SourceWidth, glyph.SourceHeight)
	}

	_, err = p.VectorizeDrawing(context.Background(), drawnCanvas(100, 100))
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank canvas: got %v, want ErrEmptyInput", err)
	}
}

func TestFilterToPangram(t *testing.T) {
	chars := []recognize.Character{
		{Char: 'a'}, {Char: 'x'}, {Char: 'b'}, {Char: 'a'}, {Char: 'q'},
	}
	got := filterToPangram(chars, "A bad cab")
	want := "abab"
	var runes []rune
	for _, c := range got {
		runes = append(runes, c.Char)
	}
	if string(runes) != want {
		t.Errorf("filtered: got %q, want %q", string(runes), want)
	}
}
