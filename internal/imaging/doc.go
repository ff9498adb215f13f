// Package imaging prepares and inspects raster images: decoding source
// files, the grayscale/autocontrast/autocrop preprocessing applied before
// tracing, PGM output for potrace, and the contrast normalization applied to
// rendered thumbnails.
//
// Transparent pixels are flattened onto white before any tonal operation so
// line art on a transparent background does not turn into a black square.
package imaging
