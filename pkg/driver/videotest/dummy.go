// Package videotest provides a synthetic colour-bar camera for tests and
// demos. Importing the package registers one user-facing test camera with
// the default driver manager.
package videotest

import (
	"context"
	"image"
	"io"
	"math/rand"
	"time"

	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/frame"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

func init() {
	driver.GetManager().Register(
		New(640, 480),
		driver.Info{Label: "VideoTest", DeviceType: driver.Camera, FacingMode: "user"},
	)
}

// Dummy is a video adapter producing colour bars with a noise patch.
type Dummy struct {
	width, height int

	closed <-chan struct{}
	cancel func()
	tick   *time.Ticker
}

// New creates a test adapter reporting a single width×height property.
func New(width, height int) *Dummy {
	return &Dummy{width: width, height: height}
}

// Open implements driver.Adapter.
func (d *Dummy) Open() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.closed = ctx.Done()
	d.cancel = cancel
	return nil
}

// Close implements driver.Adapter. Readers return io.EOF afterwards.
func (d *Dummy) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.tick != nil {
		d.tick.Stop()
	}
	return nil
}

// VideoRecord implements driver.VideoRecorder.
func (d *Dummy) VideoRecord(p prop.Media) (video.Reader, error) {
	if p.FrameRate == 0 {
		p.FrameRate = 30
	}
	if p.Width == 0 || p.Height == 0 {
		p.Width, p.Height = d.width, d.height
	}

	colors := [][3]byte{
		{235, 128, 128},
		{210, 16, 146},
		{170, 166, 16},
		{145, 54, 34},
		{107, 202, 222},
		{82, 90, 240},
		{41, 240, 110},
	}

	yi := p.Width * p.Height
	ci := yi / 2
	yyBase := make([]byte, yi)
	cbBase := make([]byte, ci)
	crBase := make([]byte, ci)
	hColorBarEnd := p.Height * 3 / 4
	wGradationEnd := p.Width * 5 / 7
	for y := 0; y < hColorBarEnd; y++ {
		yi := p.Width * y
		ci := p.Width * y / 2
		// Color bar
		for x := 0; x < p.Width; x++ {
			c := x * 7 / p.Width
			yyBase[yi+x] = uint8(uint16(colors[c][0]) * 75 / 100)
			cbBase[ci+x/2] = colors[c][1]
			crBase[ci+x/2] = colors[c][2]
		}
	}
	for y := hColorBarEnd; y < p.Height; y++ {
		yi := p.Width * y
		ci := p.Width * y / 2
		for x := 0; x < p.Width; x++ {
			if x < wGradationEnd {
				// Gray gradation
				yyBase[yi+x] = uint8(x * 255 / wGradationEnd)
			}
			cbBase[ci+x/2] = 128
			crBase[ci+x/2] = 128
		}
	}
	random := rand.New(rand.NewSource(0))

	tick := time.NewTicker(time.Duration(float32(time.Second) / p.FrameRate))
	d.tick = tick
	closed := d.closed

	r := video.ReaderFunc(func() (image.Image, func(), error) {
		select {
		case <-closed:
			return nil, func() {}, io.EOF
		case <-tick.C:
		}

		yy := make([]byte, yi)
		copy(yy, yyBase)
		for y := hColorBarEnd; y < p.Height; y++ {
			yi := p.Width * y
			for x := wGradationEnd; x < p.Width; x++ {
				// Noise
				yy[yi+x] = uint8(random.Int31n(2) * 255)
			}
		}
		return &image.YCbCr{
			Y:              yy,
			YStride:        p.Width,
			Cb:             cbBase,
			Cr:             crBase,
			CStride:        p.Width / 2,
			SubsampleRatio: image.YCbCrSubsampleRatio422,
			Rect:           image.Rect(0, 0, p.Width, p.Height),
		}, func() {}, nil
	})

	return r, nil
}

// Properties implements driver.Adapter.
func (d *Dummy) Properties() []prop.Media {
	return []prop.Media{
		{
			Video: prop.Video{
				Width:       d.width,
				Height:      d.height,
				FrameRate:   30,
				FrameFormat: frame.FormatYUYV,
			},
		},
	}
}
