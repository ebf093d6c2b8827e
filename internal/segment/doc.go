// Package segment matches recognized characters against labeled ink
// components and produces tight per-character bitmap crops.
//
// The extractor bridges two coordinate spaces: recognized character boxes
// arrive in the recognizer's reported page space and are rescaled into the
// working raster's pixel space before any spatial matching.
//
// # Matching Policy
//
// For each recognized character box, components are selected in two tiers:
//
//  1. Primary: every component whose bounding-box overlap with the
//     character box covers at least the configured fraction (default 30%)
//     of the component's own box area. Measuring against the component's
//     area keeps a neighboring letter's stroke - which may brush the box
//     but lies mostly outside it - from being pulled in.
//  2. Fallback: when no component clears the threshold, the single
//     component with maximal (even partial) overlap is taken, so a clearly
//     intended character is not silently dropped.
//
// Crops carry only pixels of selected components; ink from other components
// inside the crop rectangle is zeroed, never copied (the no-bleed
// invariant).
package segment
