package pipeline

import "errors"

// Sentinel errors for the run-terminating failure kinds. Callers test with
// errors.Is; the wrapped message carries stage detail.
var (
	// ErrEmptyInput: binarization produced an all-background raster.
	// Detected before any recognition call is made.
	ErrEmptyInput = errors.New("no ink detected in the image; try writing larger and darker, or improve the lighting")

	// ErrRecognitionFailed: the recognizer returned no usable annotation,
	// a malformed shape, or an explicit error.
	ErrRecognitionFailed = errors.New("character recognition failed")

	// ErrExtractionFailed: no recognized character could be matched to any
	// labeled ink component.
	ErrExtractionFailed = errors.New("recognized text does not overlap any ink")

	// ErrFontAssembly: fewer than one character survived vectorization.
	ErrFontAssembly = errors.New("no characters could be turned into glyphs")
)
