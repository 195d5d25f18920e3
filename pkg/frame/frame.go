package frame

import "image"

// Decoder turns one raw frame into an image. The returned release func
// must be called once the caller no longer needs the image.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, func(), error)
}

// DecoderFunc is a proxy type for Decoder
type DecoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}
