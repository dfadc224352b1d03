// Package stego recovers data hidden in the least-significant bits (LSBs)
// of image pixels.
//
// The scheme is the common single-bit RGB layout: pixels in row-major
// order, one bit from each of the red, green and blue channels, packed
// most-significant bit first. Alpha is ignored. Embed writes a payload with
// the same layout, so the two functions round-trip.
//
// Image decoding sits behind the RasterDecoder interface; ImageDecoder is
// the default implementation over the standard image codecs plus
// golang.org/x/image.
package stego
