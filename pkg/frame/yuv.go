package frame

import (
	"fmt"
	"image"
)

func decodeI420(frame []byte, width, height int) (image.Image, func(), error) {
	yi := width * height
	cbi := yi + width*height/4
	cri := cbi + width*height/4

	if cri > len(frame) {
		return nil, func() {}, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), cri)
	}

	return &image.YCbCr{
		Y:              frame[:yi],
		YStride:        width,
		Cb:             frame[yi:cbi],
		Cr:             frame[cbi:cri],
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

func decodeNV21(frame []byte, width, height int) (image.Image, func(), error) {
	yi := width * height
	ci := yi + width*height/2

	if ci > len(frame) {
		return nil, func() {}, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), ci)
	}

	cb := make([]byte, 0, (ci-yi)/2)
	cr := make([]byte, 0, (ci-yi)/2)
	for i := yi; i < ci; i += 2 {
		cb = append(cb, frame[i])
		cr = append(cr, frame[i+1])
	}

	return &image.YCbCr{
		Y:              frame[:yi],
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

// packed422 splits a packed 4:2:2 frame into planes. yFirst selects YUY2
// (Y Cb Y Cr) over UYVY (Cb Y Cr Y) ordering.
func packed422(frame []byte, width, height int, yFirst bool) (image.Image, func(), error) {
	yi := width * height
	ci := yi / 2
	fi := yi + 2*ci

	if len(frame) != fi {
		return nil, func() {}, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), fi)
	}

	y := make([]byte, yi)
	cb := make([]byte, ci)
	cr := make([]byte, ci)

	fast := 0
	slow := 0
	for i := 0; i < fi; i += 4 {
		if yFirst {
			y[fast], cb[slow], y[fast+1], cr[slow] = frame[i], frame[i+1], frame[i+2], frame[i+3]
		} else {
			cb[slow], y[fast], cr[slow], y[fast+1] = frame[i], frame[i+1], frame[i+2], frame[i+3]
		}
		fast += 2
		slow++
	}

	return &image.YCbCr{
		Y:              y,
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio422,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

func decodeYUY2(frame []byte, width, height int) (image.Image, func(), error) {
	return packed422(frame, width, height, true)
}

func decodeUYVY(frame []byte, width, height int) (image.Image, func(), error) {
	return packed422(frame, width, height, false)
}
