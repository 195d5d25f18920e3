package webcam

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/pion/webcam/pkg/codec"
	"golang.org/x/image/draw"
)

// DefaultImageQuality is used when a quality outside [0, 1] is requested.
const DefaultImageQuality = 0.92

const dataURLSeparator = ";base64,"

var errEmptyCapture = errors.New("webcam: nothing to capture in a zero-sized image")

// Surface is what snapshots are drawn from. *video.Sink is a Surface.
type Surface interface {
	// Frame returns a copy of the frame currently displayed, or nil. Its
	// bounds are the intrinsic resolution.
	Frame() image.Image
}

// CaptureOptions parametrizes Capture.
type CaptureOptions struct {
	// Width and Height are used when no frame is displayed.
	Width, Height int
	MimeType      string
	Quality       float64
	WantPixelData bool
}

// Capture draws the current frame of src and encodes it. The snapshot is
// taken at the resolution of that frame whenever there is one.
func Capture(src Surface, opts CaptureOptions) (*CapturedImage, error) {
	frame := src.Frame()
	w, h := opts.Width, opts.Height
	if frame != nil {
		w, h = frame.Bounds().Dx(), frame.Bounds().Dy()
	}
	if w <= 0 || h <= 0 {
		return nil, errEmptyCapture
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if frame != nil {
		draw.Draw(canvas, canvas.Rect, frame, frame.Bounds().Min, draw.Src)
	}

	mimeType := strings.ToLower(opts.MimeType)
	enc, ok := codec.Lookup(mimeType)
	if !ok {
		logger.Debugf("unsupported image type %q, falling back to %s", opts.MimeType, codec.MimeTypePNG)
		mimeType = codec.MimeTypePNG
		enc, _ = codec.Lookup(mimeType)
	}
	quality := opts.Quality
	if quality < 0 || quality > 1 {
		quality = DefaultImageQuality
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, canvas, codec.ImageSetting{Quality: quality}); err != nil {
		return nil, fmt.Errorf("webcam: failed to encode %s: %w", mimeType, err)
	}

	dataURL := "data:" + mimeType + dataURLSeparator + base64.StdEncoding.EncodeToString(buf.Bytes())
	img := &CapturedImage{
		DataURL:  dataURL,
		Base64:   dataURL[strings.Index(dataURL, dataURLSeparator)+len(dataURLSeparator):],
		MimeType: mimeType,
	}
	if opts.WantPixelData {
		img.PixelData = canvas
	}
	return img, nil
}
