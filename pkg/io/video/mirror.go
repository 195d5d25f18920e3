package video

import (
	"image"

	"golang.org/x/image/draw"
)

// FlipHorizontal returns a copy of img mirrored around its vertical axis.
func FlipHorizontal(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	src, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		src = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Copy(src, image.Point{}, img, bounds, draw.Src, nil)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			copy(dstRow[(w-1-x)*4:(w-x)*4], srcRow[x*4:x*4+4])
		}
	}
	return dst
}
