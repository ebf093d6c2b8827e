// Package font turns traced glyph paths into a complete TrueType font
// resource.
//
// It covers three concerns:
//
//   - parsing SVG path data into a typed command sequence (absolute and
//     relative forms, shorthand line commands expanded, unsupported
//     commands skipped),
//   - transforming commands into font design units (per-glyph or shared
//     scaling, side bearings, punctuation placement), and
//   - assembling the binary SFNT container (glyf, loca, cmap, hmtx, head,
//     hhea, maxp, name, post, OS/2) with correct checksums.
//
// # Path Commands
//
// A glyph outline is an ordered []Command. Command is a closed sum over
// MoveTo, LineTo, CubicTo, QuadTo and Close; each variant carries exactly
// the fields its kind needs, and consumers switch exhaustively instead of
// asserting on optional fields.
//
// # Coordinate Spaces
//
// Parsed commands arrive in the tracer's coordinate space (Y up for the
// production tracer; the VectorizedGlyph metadata says which). Transform
// normalizes to Y-up if needed and maps into the font design square:
// units-per-em 1000, ascender 800, descender -200.
package font
