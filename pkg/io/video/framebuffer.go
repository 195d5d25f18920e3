package video

import (
	"image"

	"golang.org/x/image/draw"
)

// FrameBuffer keeps a private RGBA copy of the most recent frame.
type FrameBuffer struct {
	img *image.RGBA
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Load returns the stored frame, or nil if nothing has been stored yet.
// The returned image is owned by the buffer and is overwritten by the next
// StoreCopy.
func (buff *FrameBuffer) Load() *image.RGBA {
	return buff.img
}

// StoreCopy makes an RGBA copy of src. Memory from the previous copy is reused
// when src has the same size, so steady-state playback does not allocate.
func (buff *FrameBuffer) StoreCopy(src image.Image) {
	bounds := src.Bounds()
	if buff.img == nil || buff.img.Rect.Size() != bounds.Size() {
		buff.img = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}

	draw.Copy(buff.img, image.Point{}, src, bounds, draw.Src, nil)
}

// Reset drops the stored frame.
func (buff *FrameBuffer) Reset() {
	buff.img = nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
