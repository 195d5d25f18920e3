//go:build linux

package camera

import (
	"context"
	"errors"
	"image"
	"io"
	"path/filepath"
	"sync"

	"github.com/blackjack/webcam"
	"github.com/pion/webcam/internal/logging"
	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/frame"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

const (
	maxEmptyFrameCount = 5
	// seconds
	frameWaitTimeout = 5
)

var (
	errReadTimeout = video.NewTemporaryError(errors.New("read timeout"))
	errEmptyFrame  = video.NewTemporaryError(errors.New("empty frame"))
)

var logger = logging.NewLogger("camera")

func fourcc(code string) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24)
}

var supportedFormats = map[webcam.PixelFormat]frame.Format{
	fourcc("YU12"): frame.FormatI420,
	fourcc("NV21"): frame.FormatNV21,
	fourcc("YUYV"): frame.FormatYUYV,
	fourcc("UYVY"): frame.FormatUYVY,
	fourcc("MJPG"): frame.FormatMJPEG,
}

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	path            string
	cam             *webcam.Webcam
	formats         map[webcam.PixelFormat]frame.Format
	reversedFormats map[frame.Format]webcam.PixelFormat
	mutex           sync.Mutex
	cancel          func()
}

func init() {
	Initialize(driver.GetManager())
}

// Initialize finds and registers camera devices with m. It is called on
// import with the default manager.
func Initialize(m *driver.Manager) {
	discovered := make(map[string]struct{})
	discover(m, discovered, "/dev/v4l/by-path/*")
	discover(m, discovered, "/dev/video*")
}

func discover(m *driver.Manager, discovered map[string]struct{}, pattern string) {
	devices, err := filepath.Glob(pattern)
	if err != nil {
		// No v4l device.
		return
	}
	for _, device := range devices {
		label := filepath.Base(device)
		reallink, err := filepath.EvalSymlinks(device)
		if err != nil {
			logger.Warnf("Failed to resolve %s: %v", device, err)
			continue
		}

		if _, ok := discovered[reallink]; ok {
			continue
		}
		discovered[reallink] = struct{}{}

		cam := newCamera(device)
		priority := driver.PriorityNormal
		if filepath.Base(reallink) == "video0" {
			priority = driver.PriorityHigh
		}
		m.Register(cam, driver.Info{
			Label:      label + LabelSeparator + filepath.Base(reallink),
			DeviceType: driver.Camera,
			Priority:   priority,
		})
	}
}

func newCamera(path string) *camera {
	reversedFormats := make(map[frame.Format]webcam.PixelFormat)
	for k, v := range supportedFormats {
		reversedFormats[v] = k
	}

	return &camera{
		path:            path,
		formats:         supportedFormats,
		reversedFormats: reversedFormats,
	}
}

func (c *camera) Open() error {
	cam, err := webcam.Open(c.path)
	if err != nil {
		return err
	}

	// Late frames should be discarded. Buffering should be handled in higher level.
	cam.SetBufferCount(1)
	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}

	if c.cancel != nil {
		// Let the reader knows that the caller has closed the camera
		c.cancel()
		// Wait until the reader unref the buffer
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Note: StopStreaming frees frame buffers even if they are still used in Go code.
		//       Readers copy each frame out of the mmap before returning it.
		c.cam.StopStreaming()
		c.cancel = nil
	}
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) VideoRecord(p prop.Media) (video.Reader, error) {
	decoder, err := frame.NewDecoder(p.FrameFormat)
	if err != nil {
		return nil, err
	}

	pf := c.reversedFormats[p.FrameFormat]
	if _, _, _, err := c.cam.SetImageFormat(pf, uint32(p.Width), uint32(p.Height)); err != nil {
		return nil, err
	}

	if err := c.cam.StartStreaming(); err != nil {
		return nil, err
	}

	cam := c.cam

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	var buf []byte
	r := video.ReaderFunc(func() (img image.Image, release func(), err error) {
		// Lock to avoid accessing the buffer after StopStreaming()
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Wait until a frame is ready
		for i := 0; i < maxEmptyFrameCount; i++ {
			if ctx.Err() != nil {
				// Return EOF if the camera is already closed.
				return nil, func() {}, io.EOF
			}

			err := cam.WaitForFrame(frameWaitTimeout)
			switch err.(type) {
			case nil:
			case *webcam.Timeout:
				return nil, func() {}, errReadTimeout
			default:
				// Camera has been stopped.
				return nil, func() {}, err
			}

			b, err := cam.ReadFrame()
			if err != nil {
				// Camera has been stopped.
				return nil, func() {}, err
			}

			// Frame is empty.
			// Retry reading and return errEmptyFrame if it exceeds maxEmptyFrameCount.
			if len(b) == 0 {
				continue
			}

			if len(b) > len(buf) {
				// Grow the intermediate buffer
				buf = make([]byte, len(b))
			}

			// move the memory from mmap to Go. This will guarantee that any data that's going out
			// from this reader will be Go safe. Otherwise, it's possible that outside of this reader
			// that this memory is still being used even after we close it.
			n := copy(buf, b)
			return decoder.Decode(buf[:n], p.Width, p.Height)
		}
		return nil, func() {}, errEmptyFrame
	})

	return r, nil
}

func (c *camera) Properties() []prop.Media {
	properties := make([]prop.Media, 0)
	for format := range c.cam.GetSupportedFormats() {
		f, ok := c.formats[format]
		if !ok {
			continue
		}
		for _, frameSize := range c.cam.GetSupportedFrameSizes(format) {
			properties = append(properties, prop.Media{
				Video: prop.Video{
					Width:       int(frameSize.MaxWidth),
					Height:      int(frameSize.MaxHeight),
					FrameFormat: f,
				},
			})
		}
	}
	return properties
}
