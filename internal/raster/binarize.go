package raster

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// PhotoOptions tunes photo binarization. The zero value is not usable;
// start from DefaultPhotoOptions.
type PhotoOptions struct {
	// MaxDimension bounds the longest side of the working raster. Larger
	// inputs are downscaled before processing so the adaptive threshold
	// block stays meaningful relative to stroke width. Typical: 1600.
	MaxDimension int

	// BlockSize is the side of the square neighborhood used for the local
	// mean. Must be odd. Typical: 21.
	BlockSize int

	// Bias is the constant C subtracted from the local mean: a pixel is ink
	// when it is darker than (mean - Bias). Typical: 10.
	Bias int

	// MinArea is the minimum pixel count for a connected component to
	// survive noise removal. Typical: 50.
	MinArea int
}

// DefaultPhotoOptions returns the tuning used for phone photos of
// handwriting on paper.
func DefaultPhotoOptions() PhotoOptions {
	return PhotoOptions{
		MaxDimension: 1600,
		BlockSize:    21,
		Bias:         10,
		MinArea:      50,
	}
}

// BinarizePhoto converts a photographed handwriting sample into a clean
// two-level raster.
//
// Returns the raster and the scale factor that maps original-image
// coordinates into raster coordinates (1.0 when no downscale happened).
// Callers matching externally reported bounding boxes against the raster
// must apply this factor.
//
// # Algorithm
//
//  1. Bounded downscale (Lanczos) when the longest side exceeds
//     opts.MaxDimension
//  2. Grayscale conversion using ITU-R BT.601 weights
//  3. 5x5 box blur to suppress sensor and paper noise
//  4. Adaptive local threshold: each pixel is compared against the mean of
//     its BlockSize neighborhood, computed from a summed-area table; the
//     pixel is ink when darker than (mean - Bias). This tolerates the
//     uneven lighting of phone photos where a global threshold fails.
//  5. Morphological close (dilate, then erode) to bridge broken pen strokes
//  6. Connected-component noise removal: components under opts.MinArea
//     pixels are cleared
//
// An all-background result is not an error here; callers detect it before
// invoking recognition.
func BinarizePhoto(img image.Image, opts PhotoOptions) (*Bitmap, float64) {
	scale := 1.0
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if longest := max(w, h); opts.MaxDimension > 0 && longest > opts.MaxDimension {
		scale = float64(opts.MaxDimension) / float64(longest)
		img = imaging.Resize(img, int(float64(w)*scale+0.5), int(float64(h)*scale+0.5), imaging.Lanczos)
	}

	gray := grayscale(img)
	blurred := grayscale(blur.Box(gray, 2)) // radius 2 = 5x5 kernel

	bin := adaptiveThreshold(blurred, opts.BlockSize, opts.Bias)
	bin = morphClose(bin, 1)
	bin = removeSmallComponents(bin, opts.MinArea)
	return bin, scale
}

// BinarizeDrawing converts a single canvas drawing into a two-level raster.
//
// Canvas captures have uniform lighting, so a global Otsu threshold (the
// threshold maximizing between-class variance of the grayscale histogram)
// is sufficient. A light morphological close bridges anti-aliased stroke
// edges.
func BinarizeDrawing(img image.Image) *Bitmap {
	gray := grayscale(img)
	bin := globalThreshold(gray, otsuThreshold(gray))
	return morphClose(bin, 1)
}

// adaptiveThreshold classifies each pixel of gray as ink when it is darker
// than the mean of its blockSize neighborhood minus bias.
//
// Neighborhood means are computed in O(1) per pixel from a summed-area
// (integral) image, keeping the whole pass linear in the pixel count.
// Blocks are clipped at the image border.
func adaptiveThreshold(gray *image.Gray, blockSize, bias int) *Bitmap {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	half := blockSize / 2

	// integral[y][x] holds the sum over the rectangle [0,x) x [0,y).
	integral := make([]uint64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray.Pix[y*gray.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	out := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		y1, y2 := max(y-half, 0), min(y+half+1, h)
		for x := 0; x < w; x++ {
			x1, x2 := max(x-half, 0), min(x+half+1, w)
			area := uint64((x2 - x1) * (y2 - y1))
			sum := integral[y2*stride+x2] - integral[y1*stride+x2] -
				integral[y2*stride+x1] + integral[y1*stride+x1]
			mean := sum / area
			if uint64(gray.Pix[y*gray.Stride+x])+uint64(bias) < mean {
				out.Pix[y*w+x] = Ink
			}
		}
	}
	return out
}

// otsuThreshold picks the global threshold that maximizes the between-class
// variance of the histogram, separating ink from paper in one cut.
func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[gray.Pix[y*gray.Stride+x]]++
		}
	}

	total := w * h
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i) * float64(n)
	}

	var sumBack float64
	var weightBack int
	bestVar := -1.0
	best := uint8(0)
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t) * float64(hist[t])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		betweenVar := float64(weightBack) * float64(weightFore) * diff * diff
		if betweenVar > bestVar {
			bestVar = betweenVar
			best = uint8(t)
		}
	}
	return best
}

// globalThreshold marks every pixel at or below t as ink (dark-on-light
// input convention).
func globalThreshold(gray *image.Gray, t uint8) *Bitmap {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	out := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.Pix[y*gray.Stride+x] <= t {
				out.Pix[y*w+x] = Ink
			}
		}
	}
	return out
}

// morphClose applies a morphological close (dilate then erode) with a
// square kernel of the given radius, bridging small gaps in strokes.
func morphClose(b *Bitmap, radius float64) *Bitmap {
	img := b.ToGray()
	closed := effect.Erode(effect.Dilate(img, radius), radius)
	return FromGray(grayscale(closed))
}

// removeSmallComponents clears every 8-connected ink component with fewer
// than minArea pixels. It reuses the shared component labeler rather than
// carrying its own flood fill.
func removeSmallComponents(b *Bitmap, minArea int) *Bitmap {
	labeled := Label(b, minArea)
	out := NewBitmap(b.Width, b.Height)
	for i, l := range labeled.Labels {
		if l >= 0 {
			out.Pix[i] = Ink
		}
	}
	return out
}
