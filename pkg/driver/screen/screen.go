// Package screen registers every active display as a capture device, so a
// screen can be selected and snapshotted like a camera.
package screen

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/frame"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

const defaultFrameRate = 10

type screen struct {
	displayIndex int
	capture      func(int) (*image.RGBA, error)
	bounds       func(int) image.Rectangle

	mu     sync.Mutex
	doneCh chan struct{}
}

func init() {
	Initialize(driver.GetManager())
}

// Initialize registers the active displays with m. It is called on import
// with the default manager.
func Initialize(m *driver.Manager) {
	activeDisplays := screenshot.NumActiveDisplays()
	for i := 0; i < activeDisplays; i++ {
		// Cameras win ties, a screen is only picked when asked for.
		m.Register(newScreen(i), driver.Info{
			Label:      fmt.Sprintf("Screen%d", i),
			DeviceType: driver.Screen,
			Priority:   driver.PriorityLow,
		})
	}
}

func newScreen(displayIndex int) *screen {
	return &screen{
		displayIndex: displayIndex,
		capture:      screenshot.CaptureDisplay,
		bounds:       screenshot.GetDisplayBounds,
	}
}

func (s *screen) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doneCh = make(chan struct{})
	return nil
}

func (s *screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doneCh != nil {
		close(s.doneCh)
		s.doneCh = nil
	}
	return nil
}

func (s *screen) VideoRecord(selectedProp prop.Media) (video.Reader, error) {
	s.mu.Lock()
	doneCh := s.doneCh
	s.mu.Unlock()

	frameRate := selectedProp.FrameRate
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}
	tick := time.NewTicker(time.Duration(float32(time.Second) / frameRate))

	r := video.ReaderFunc(func() (img image.Image, release func(), err error) {
		select {
		case <-doneCh:
			tick.Stop()
			return nil, func() {}, io.EOF
		default:
		}

		select {
		case <-doneCh:
			tick.Stop()
			return nil, func() {}, io.EOF
		case <-tick.C:
		}

		img, err = s.capture(s.displayIndex)
		return img, func() {}, err
	})
	return r, nil
}

func (s *screen) Properties() []prop.Media {
	resolution := s.bounds(s.displayIndex)
	return []prop.Media{
		{
			Video: prop.Video{
				Width:       resolution.Dx(),
				Height:      resolution.Dy(),
				FrameRate:   defaultFrameRate,
				FrameFormat: frame.FormatRGBA,
			},
		},
	}
}
