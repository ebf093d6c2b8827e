// Package raster implements the binary-raster stages of the handwriting
// pipeline: binarization of photos and canvas drawings, and connected
// component labeling of the resulting ink.
//
// # Binary Raster Convention
//
// A Bitmap holds one byte per pixel restricted to two values:
//   - 255: ink (foreground)
//   - 0: background
//
// Coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Every stage returns a freshly
// allocated Bitmap; no stage mutates a raster it did not allocate.
//
// # Binarization
//
// Two entry points cover the two capture paths:
//
//   - BinarizePhoto: photographed ink on paper. Uses an adaptive local
//     threshold driven by a summed-area table, so uneven phone-camera
//     lighting does not wash out strokes, followed by a morphological close
//     and connected-component noise removal.
//   - BinarizeDrawing: glyphs drawn on a canvas. Lighting is uniform, so a
//     global Otsu threshold is sufficient, followed by a light close.
//
// # Component Labeling
//
// Label partitions a Bitmap into 8-connected ink regions with per-region
// area and bounding box. It is the single connected-component implementation
// in this module; binarizer noise removal and glyph extraction both build on
// it rather than re-deriving flood fill at each call site.
package raster
