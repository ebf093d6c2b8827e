// Package recognize defines the character-recognition seam of the pipeline.
//
// The pipeline never talks to an OCR engine directly; it consumes an
// Annotation, the hierarchical result shape shared by document recognizers
// (page -> blocks -> paragraphs -> words -> symbols). Each symbol carries a
// 4-vertex bounding polygon in the recognizer's own reported page-dimension
// space and a confidence score in [0,1].
//
// Recognizer is the injection point: the orchestrator receives one at
// construction time, so tests substitute a stub without touching global
// state. The production implementation wraps Tesseract via gosseract;
// Tesseract and its language data must be installed on the system.
//
// # Coordinate Space
//
// Symbol coordinates live in the recognizer's page space, which is the
// dimensions of the image bytes handed to Recognize. When the pipeline has
// downscaled its working raster, callers must rescale symbol boxes with the
// binarizer's reported scale factor before matching them against labeled
// components.
package recognize
