package raster

import (
	"image"
	"image/color"
	"testing"
)

// createPaperImage returns a white image with optional dark strokes drawn
// as filled rectangles.
func createPaperImage(w, h int, strokes ...image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{245, 245, 240, 255})
		}
	}
	for _, s := range strokes {
		for y := s.Min.Y; y < s.Max.Y; y++ {
			for x := s.Min.X; x < s.Max.X; x++ {
				img.Set(x, y, color.NRGBA{20, 20, 25, 255})
			}
		}
	}
	return img
}

func assertBinary(t *testing.T, bm *Bitmap) {
	t.Helper()
	for i, v := range bm.Pix {
		if v != 0 && v != Ink {
			t.Fatalf("pixel %d: got %d, want 0 or %d", i, v, Ink)
		}
	}
}

func TestBinarizePhoto_OutputIsBinary(t *testing.T) {
	img := createPaperImage(200, 100,
		image.Rect(20, 30, 80, 38),
		image.Rect(120, 30, 128, 80),
	)

	bm, scale := BinarizePhoto(img, DefaultPhotoOptions())
	if scale != 1.0 {
		t.Errorf("scale: got %g, want 1.0 for a small image", scale)
	}
	assertBinary(t, bm)
	if bm.Empty() {
		t.Error("expected ink for drawn strokes, got empty raster")
	}
}

func TestBinarizePhoto_DetectsStrokes(t *testing.T) {
	stroke := image.Rect(40, 40, 120, 48)
	img := createPaperImage(200, 100, stroke)

	bm, _ := BinarizePhoto(img, DefaultPhotoOptions())

	inside := 0
	for y := stroke.Min.Y; y < stroke.Max.Y; y++ {
		for x := stroke.Min.X; x < stroke.Max.X; x++ {
			if bm.At(x, y) == Ink {
				inside++
			}
		}
	}
	if inside == 0 {
		t.Error("no ink detected inside the stroke region")
	}

	// Far corner stays background.
	if bm.At(5, 5) != 0 {
		t.Error("background corner classified as ink")
	}
}

func TestBinarizePhoto_AllBackground(t *testing.T) {
	img := createPaperImage(120, 80)

	bm, _ := BinarizePhoto(img, DefaultPhotoOptions())
	if !bm.Empty() {
		t.Errorf("blank paper produced %d ink pixels", bm.InkCount())
	}
}

func TestBinarizePhoto_Downscale(t *testing.T) {
	img := createPaperImage(3200, 1600)

	opts := DefaultPhotoOptions()
	bm, scale := BinarizePhoto(img, opts)

	if bm.Width != 1600 {
		t.Errorf("width: got %d, want 1600", bm.Width)
	}
	if bm.Height != 800 {
		t.Errorf("height: got %d, want 800", bm.Height)
	}
	if scale != 0.5 {
		t.Errorf("scale: got %g, want 0.5", scale)
	}
}

func TestBinarizePhoto_NoiseRemoval(t *testing.T) {
	// One real stroke and one 2x2 speck well under MinArea.
	img := createPaperImage(200, 100,
		image.Rect(20, 40, 100, 48),
		image.Rect(160, 20, 162, 22),
	)

	bm, _ := BinarizePhoto(img, DefaultPhotoOptions())

	for y := 15; y < 30; y++ {
		for x := 155; x < 170; x++ {
			if bm.At(x, y) == Ink {
				t.Fatalf("speck at (%d,%d) survived noise removal", x, y)
			}
		}
	}
}

func TestBinarizeDrawing_OutputIsBinary(t *testing.T) {
	img := createPaperImage(100, 100, image.Rect(30, 30, 70, 40))

	bm := BinarizeDrawing(img)
	assertBinary(t, bm)
	if bm.Empty() {
		t.Error("expected ink for the drawn stroke")
	}
	if bm.At(35, 34) != Ink {
		t.Error("stroke interior not classified as ink")
	}
	if bm.At(5, 5) != 0 {
		t.Error("canvas background classified as ink")
	}
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	// Half the pixels at 30, half at 220: the threshold must separate the
	// two modes.
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range gray.Pix {
		if i%2 == 0 {
			gray.Pix[i] = 30
		} else {
			gray.Pix[i] = 220
		}
	}

	th := otsuThreshold(gray)
	if th < 30 || th >= 220 {
		t.Errorf("threshold %d does not separate modes 30 and 220", th)
	}
}

func TestMorphClose_BridgesSmallGaps(t *testing.T) {
	bm := NewBitmap(40, 20)
	// Two segments of one stroke with a 1px gap.
	for x := 5; x < 18; x++ {
		for y := 8; y < 12; y++ {
			bm.Set(x, y, Ink)
		}
	}
	for x := 19; x < 32; x++ {
		for y := 8; y < 12; y++ {
			bm.Set(x, y, Ink)
		}
	}

	closed := morphClose(bm, 1)
	if closed.At(18, 9) != Ink && closed.At(18, 10) != Ink {
		t.Error("1px gap not bridged by morphological close")
	}
}
