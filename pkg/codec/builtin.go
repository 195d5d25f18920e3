package codec

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func init() {
	Register(MimeTypeJPEG, ImageEncoderFunc(encodeJPEG))
	Register(MimeTypePNG, ImageEncoderFunc(encodePNG))
	Register(MimeTypeBMP, ImageEncoderFunc(encodeBMP))
	Register(MimeTypeTIFF, ImageEncoderFunc(encodeTIFF))
}

func encodeJPEG(w io.Writer, img image.Image, s ImageSetting) error {
	q := int(math.Round(s.Quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
}

func encodePNG(w io.Writer, img image.Image, _ ImageSetting) error {
	return png.Encode(w, img)
}

func encodeBMP(w io.Writer, img image.Image, _ ImageSetting) error {
	return bmp.Encode(w, img)
}

func encodeTIFF(w io.Writer, img image.Image, _ ImageSetting) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}
