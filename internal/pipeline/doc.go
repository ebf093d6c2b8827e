// Package pipeline sequences the synthesis stages into complete
// image-to-font runs.
//
// Two entry flows exist:
//
//   - GeneratePangramFont: one photo of a handwritten pangram. Binarize,
//     recognize, match, crop, trace, assemble.
//   - GenerateDrawnFont: a batch of single-character canvas drawings.
//     Binarize each canvas, trace, assemble with one shared scale so stroke
//     weight and baseline stay consistent across the alphabet.
//
// A Pipeline is constructed with its recognizer and tracer collaborators
// injected; there is no package-level state, so tests swap in stubs freely.
//
// # Failure Policy
//
// Stage failures surface as wrapped sentinel errors (ErrEmptyInput,
// ErrRecognitionFailed, ErrExtractionFailed, ErrFontAssembly) and abort the
// run. The only locally absorbed failure is an individual character whose
// trace comes back empty or degenerate: that character is dropped from the
// final set and the run continues. Nothing is retried.
//
// # Concurrency
//
// Per-character vectorization is dispatched concurrently, bounded by the
// available parallelism. Each task reads only its own immutable crop and
// writes only its own map slot (under one mutex), so completion order is
// irrelevant and cancellation can simply drop in-flight tasks.
package pipeline
