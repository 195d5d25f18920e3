package frame

import (
	"fmt"
)

// NewDecoder returns a Decoder for f, or an error if f is not supported.
func NewDecoder(f Format) (Decoder, error) {
	var decoder DecoderFunc

	switch f {
	case FormatI420:
		decoder = decodeI420
	case FormatNV21:
		decoder = decodeNV21
	case FormatYUY2:
		decoder = decodeYUY2
	case FormatUYVY:
		decoder = decodeUYVY
	case FormatRGBA:
		decoder = decodeRGBA
	case FormatMJPEG:
		decoder = decodeMJPEG
	default:
		return nil, fmt.Errorf("%s is not supported", f)
	}

	return decoder, nil
}
