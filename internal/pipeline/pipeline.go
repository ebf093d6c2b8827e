package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"runtime"
	"sort"
	"sync"
	"unicode"

	"github.com/inkwell-tools/handfont/internal/font"
	"github.com/inkwell-tools/handfont/internal/raster"
	"github.com/inkwell-tools/handfont/internal/recognize"
	"github.com/inkwell-tools/handfont/internal/segment"
	"github.com/inkwell-tools/handfont/internal/trace"
)

// Pipeline runs the image-to-font synthesis flows. Construct with New; the
// zero value is not usable.
type Pipeline struct {
	recognizer recognize.Recognizer
	tracer     trace.Tracer

	photoOpts raster.PhotoOptions
	extractor segment.ExtractorOptions
	metrics   font.Metrics
	workers   int
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPhotoOptions overrides photo binarization tuning.
func WithPhotoOptions(opts raster.PhotoOptions) Option {
	return func(p *Pipeline) { p.photoOpts = opts }
}

// WithExtractorOptions overrides glyph extraction tuning.
func WithExtractorOptions(opts segment.ExtractorOptions) Option {
	return func(p *Pipeline) { p.extractor = opts }
}

// WithMetrics overrides the font naming metrics.
func WithMetrics(m font.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithWorkers bounds the vectorization fan-out. Defaults to the available
// parallelism.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// New builds a Pipeline around the given collaborators. Both are required:
// the recognizer resolves character positions, the tracer turns crops into
// outlines. Passing them here, rather than reaching for globals, is what
// lets tests run the full flows against stubs.
func New(recognizer recognize.Recognizer, tracer trace.Tracer, opts ...Option) *Pipeline {
	p := &Pipeline{
		recognizer: recognizer,
		tracer:     tracer,
		photoOpts:  raster.DefaultPhotoOptions(),
		extractor:  segment.DefaultExtractorOptions(),
		metrics:    font.DefaultMetrics(),
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FontResult is the deliverable of a run.
type FontResult struct {
	// FontBytes is the complete font container, ready for installation.
	FontBytes []byte `json:"-"`

	// CharsFound lists the characters included in the font, sorted.
	CharsFound []rune `json:"chars_found"`
}

// GeneratePangramFont runs the photo flow: a photographed handwriting
// sample of the given pangram becomes a font.
//
// The empty-ink check runs before the recognition call, so a blank photo
// never costs a recognizer round-trip. Recognition is a single blocking
// await; extraction cannot begin until it resolves.
func (p *Pipeline) GeneratePangramFont(ctx context.Context, imageBytes []byte, pangram string) (*FontResult, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bm, _ := raster.BinarizePhoto(img, p.photoOpts)
	if bm.Empty() {
		return nil, ErrEmptyInput
	}

	ann, err := p.recognizer.Recognize(ctx, imageBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	if err := ann.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	chars := filterToPangram(ann.Characters(), pangram)
	if len(chars) == 0 {
		return nil, fmt.Errorf("%w: recognizer found none of the expected letters", ErrExtractionFailed)
	}

	// Recognizer boxes live in its reported page space; the working raster
	// may have been downscaled, so derive the mapping from the two sizes.
	page := ann.Pages[0]
	scaleX, scaleY := 1.0, 1.0
	if page.Width > 0 && page.Height > 0 {
		scaleX = float64(bm.Width) / float64(page.Width)
		scaleY = float64(bm.Height) / float64(page.Height)
	}

	labeled := raster.Label(bm, p.photoOpts.MinArea)
	crops := segment.Extract(labeled, chars, scaleX, scaleY, p.extractor)
	if len(crops) == 0 {
		return nil, ErrExtractionFailed
	}

	glyphs, err := p.vectorizeAll(ctx, crops)
	if err != nil {
		return nil, err
	}

	placements := make(map[rune]*font.Placement, len(glyphs))
	for r, g := range glyphs {
		placed, err := font.TransformGlyph(r, g, font.ModeIndependent, 0)
		if err != nil {
			if errors.Is(err, font.ErrDegenerateOutline) {
				continue // treated like an empty trace: drop the character
			}
			return nil, fmt.Errorf("glyph %q: %w", r, err)
		}
		placements[r] = placed
	}

	return p.assemble(placements)
}

// Drawing is one canvas capture for the drawn-batch flow.
type Drawing struct {
	Char  rune
	Image image.Image
}

// GenerateDrawnFont runs the batch flow: one drawing per character, all on
// identically sized canvases.
//
// Because every canvas shares its dimensions, glyphs are scaled in uniform
// mode by one factor derived from the canvas's traced coordinate height.
// Independent per-glyph scaling would make a narrow "i" as heavy as a wide
// "m" and scatter the baseline; the shared frame keeps stroke weight and
// vertical placement exactly as drawn.
func (p *Pipeline) GenerateDrawnFont(ctx context.Context, drawings []Drawing) (*FontResult, error) {
	var crops []segment.CharBitmap
	seen := make(map[rune]bool)
	for _, d := range drawings {
		r := unicode.ToLower(d.Char)
		if !unicode.IsLetter(r) && !isSupportedMark(r) {
			continue
		}
		if seen[r] {
			continue
		}
		bm := raster.BinarizeDrawing(d.Image)
		if bm.Empty() {
			continue
		}
		seen[r] = true
		crops = append(crops, segment.CharBitmap{Char: r, Bitmap: bm})
	}
	if len(crops) == 0 {
		return nil, ErrEmptyInput
	}

	glyphs, err := p.vectorizeAll(ctx, crops)
	if err != nil {
		return nil, err
	}

	// The shared reference height comes from any one glyph: same canvas,
	// same traced coordinate space.
	var refHeight float64
	for _, g := range glyphs {
		refHeight = g.ScaleHeight
		break
	}

	placements := make(map[rune]*font.Placement, len(glyphs))
	for r, g := range glyphs {
		placed, err := font.TransformGlyph(r, g, font.ModeUniform, refHeight)
		if err != nil {
			if errors.Is(err, font.ErrDegenerateOutline) {
				continue
			}
			return nil, fmt.Errorf("glyph %q: %w", r, err)
		}
		placements[r] = placed
	}

	return p.assemble(placements)
}

// VectorizeDrawing traces a single drawn character without building a font:
// the per-character preview path. The glyph is cropped to its ink and
// centered in a square canvas before tracing.
func (p *Pipeline) VectorizeDrawing(ctx context.Context, img image.Image) (*trace.VectorizedGlyph, error) {
	bm := raster.BinarizeDrawing(img)
	centered := segment.ExtractSingle(bm, 10)
	if centered == nil {
		return nil, ErrEmptyInput
	}
	return trace.Vectorize(ctx, p.tracer, centered)
}

// GenerateFont assembles a font from already-placed glyph outlines.
func (p *Pipeline) GenerateFont(placements map[rune]*font.Placement) (*FontResult, error) {
	return p.assemble(placements)
}

// assemble builds the container and the sorted character list.
func (p *Pipeline) assemble(placements map[rune]*font.Placement) (*FontResult, error) {
	fontBytes, err := font.Build(placements, p.metrics)
	if err != nil {
		if errors.Is(err, font.ErrNoGlyphs) {
			return nil, ErrFontAssembly
		}
		return nil, fmt.Errorf("font assembly: %w", err)
	}

	chars := make([]rune, 0, len(placements))
	for r, placed := range placements {
		if placed != nil && len(placed.Commands) > 0 {
			chars = append(chars, r)
		}
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	return &FontResult{FontBytes: fontBytes, CharsFound: chars}, nil
}

// vectorizeAll traces every crop concurrently, bounded by p.workers.
//
// Characters whose trace comes back empty are dropped; any other tracer
// error aborts the whole run (first error wins). Tasks only read their own
// crop and write their own map entry, so no ordering is needed beyond the
// final association being keyed by character.
func (p *Pipeline) vectorizeAll(ctx context.Context, crops []segment.CharBitmap) (map[rune]*trace.VectorizedGlyph, error) {
	workers := p.workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		out      = make(map[rune]*trace.VectorizedGlyph, len(crops))
		sem      = make(chan struct{}, workers)
	)

	for _, crop := range crops {
		crop := crop
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			glyph, err := trace.Vectorize(ctx, p.tracer, crop.Bitmap)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, trace.ErrEmptyTrace):
				// Non-fatal: the character is omitted.
			case err != nil:
				if firstErr == nil {
					firstErr = fmt.Errorf("vectorizing %q: %w", crop.Char, err)
				}
			default:
				out[crop.Char] = glyph
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// filterToPangram keeps recognized characters whose letter appears in the
// pangram, preserving recognition order.
func filterToPangram(chars []recognize.Character, pangram string) []recognize.Character {
	wanted := make(map[rune]bool)
	for _, r := range UniqueLetters(pangram) {
		wanted[r] = true
	}
	out := chars[:0:0]
	for _, c := range chars {
		if wanted[c.Char] {
			out = append(out, c)
		}
	}
	return out
}

// isSupportedMark reports whether a non-letter rune has a dedicated
// placement rule in the font transform.
func isSupportedMark(r rune) bool {
	switch r {
	case '.', ',', '-', '\'':
		return true
	}
	return false
}
