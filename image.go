package webcam

import (
	"encoding/base64"
	"image"
)

// CapturedImage is a snapshot of the live video.
type CapturedImage struct {
	// DataURL is the encoded image in data URL form, "data:<mime>;base64,<payload>".
	DataURL string
	// Base64 is the payload part of DataURL.
	Base64   string
	MimeType string
	// PixelData holds the raw pixels of the snapshot. It is nil unless
	// requested.
	PixelData *image.RGBA
}

// Bytes decodes the encoded image.
func (c *CapturedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.Base64)
}
