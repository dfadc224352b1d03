package stego

import (
	"errors"
	"image"
	"image/color"
	"strconv"

	"github.com/nao1215/blobscan/internal/model"
)

// Decoder recovers bytes hidden in the least-significant bits of image
// pixels. A Decoder is immutable and safe for concurrent use.
type Decoder struct {
	raster RasterDecoder
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRasterDecoder replaces the image codec.
func WithRasterDecoder(rd RasterDecoder) Option {
	return func(d *Decoder) {
		d.raster = rd
	}
}

// WithMaxPixels limits the size of images accepted by the default codec.
// It has no effect after WithRasterDecoder.
func WithMaxPixels(n int) Option {
	return func(d *Decoder) {
		if _, ok := d.raster.(ImageDecoder); ok {
			d.raster = ImageDecoder{MaxPixels: n}
		}
	}
}

// NewDecoder creates a Decoder using ImageDecoder unless configured otherwise.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{raster: ImageDecoder{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Extract decodes imageBytes and returns the bytes packed from the pixel
// LSBs, as described by ExtractRaster. Input that cannot be decoded as an
// image is reported as a *model.DecodeError wrapping the codec error.
func (d *Decoder) Extract(imageBytes []byte) ([]byte, error) {
	r, err := d.Decode(imageBytes)
	if err != nil {
		return nil, err
	}
	return ExtractRaster(r), nil
}

// Decode decodes imageBytes into a Raster, wrapping failures in a
// *model.DecodeError. Validation errors, such as an image over the pixel
// limit, are returned unwrapped.
func (d *Decoder) Decode(imageBytes []byte) (Raster, error) {
	r, err := d.raster.Decode(imageBytes)
	if err != nil {
		var de *model.DecodeError
		if errors.As(err, &de) || errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, model.NewDecodeError("image", err)
	}
	return r, nil
}

var defaultDecoder = NewDecoder()

// Extract runs the default Decoder over imageBytes.
func Extract(imageBytes []byte) ([]byte, error) {
	return defaultDecoder.Extract(imageBytes)
}

// ExtractRaster visits pixels row by row, left to right, and collects the
// least-significant bit of the red, green and blue channel of each pixel in
// that order. Every 8 collected bits form one output byte, first bit most
// significant. Bits left over after the last full byte are discarded, so a
// raster with fewer than 3 pixels yields no bytes.
func ExtractRaster(r Raster) []byte {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return []byte{}
	}

	out := make([]byte, 0, w*h*3/8)
	var (
		acc  byte
		bits int
	)
	for y := range h {
		for x := range w {
			cr, cg, cb := r.RGB(x, y)
			for _, v := range [3]uint8{cr, cg, cb} {
				acc = acc<<1 | v&1
				bits++
				if bits == 8 {
					out = append(out, acc)
					acc, bits = 0, 0
				}
			}
		}
	}
	return out
}

// Capacity returns the number of whole bytes ExtractRaster recovers from a
// width x height image.
func Capacity(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return width * height * 3 / 8
}

// Embed returns a copy of img with payload written into the pixel LSBs in
// the order ExtractRaster reads them. Bits after the payload keep their
// original values. Alpha is preserved. A payload larger than Capacity is
// rejected with a *model.ValidationError.
func Embed(img image.Image, payload []byte) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if capacity := Capacity(w, h); len(payload) > capacity {
		return nil, model.NewValidationError("payload", len(payload),
			"exceeds image capacity of "+strconv.Itoa(capacity)+" bytes")
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			out.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA))
		}
	}

	for i := range len(payload) * 8 {
		bit := payload[i/8] >> (7 - uint(i%8)) & 1
		pixel, channel := i/3, i%3
		x, y := pixel%w, pixel/w
		off := out.PixOffset(x, y) + channel
		out.Pix[off] = out.Pix[off]&^1 | bit
	}
	return out, nil
}
