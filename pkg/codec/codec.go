// Package codec holds the still-image encoders snapshots are produced with,
// keyed by MIME type.
package codec

import (
	"image"
	"io"
)

// MIME types of the built-in encoders.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeBMP  = "image/bmp"
	MimeTypeTIFF = "image/tiff"
)

// ImageSetting carries encoder parameters.
type ImageSetting struct {
	// Quality in [0, 1]. Encoders without a quality knob ignore it.
	Quality float64
}

// ImageEncoder writes img to w in a single image format.
type ImageEncoder interface {
	Encode(w io.Writer, img image.Image, s ImageSetting) error
}

// ImageEncoderFunc is a proxy type for ImageEncoder
type ImageEncoderFunc func(w io.Writer, img image.Image, s ImageSetting) error

// Encode implements ImageEncoder.
func (f ImageEncoderFunc) Encode(w io.Writer, img image.Image, s ImageSetting) error {
	return f(w, img, s)
}
