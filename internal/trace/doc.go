// Package trace wraps the external bitmap tracer behind a narrow interface
// and adapts its vector markup into a normalized glyph representation.
//
// # Tracer Contract
//
// A Tracer receives a grayscale image in which the shapes to trace are DARK
// (0) on a light (255) background, and returns SVG markup containing one or
// more path elements plus declared output dimensions and an internal
// coordinate-scale factor. The pipeline's rasters store ink as 255, so the
// polarity inversion happens exactly once, inside Vectorize, before the
// tracer is invoked. Implementations must not assume any other convention.
//
// # Output Coordinate Space
//
// The production tracer emits markup in the potrace convention: path
// coordinates in tenths of a pixel with the Y axis pointing UP (origin at
// the bottom-left), wrapped in a transform of the form
//
//	translate(0,H) scale(0.1,-0.1)
//
// Vectorize does not assume this; it reads the scale factor and axis
// direction out of the transform and records them on the VectorizedGlyph.
// Substituting a tracer with a Y-down output convention therefore changes
// the recorded metadata instead of silently flipping every glyph.
package trace
