package webcam

import (
	"context"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

func solidFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

type fakeTrack struct {
	id          string
	deviceID    string
	facing      string
	constraints MediaTrackConstraints
	frame       image.Image

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTrack) ID() string            { return t.id }
func (t *fakeTrack) Kind() MediaDeviceType { return VideoInput }
func (t *fakeTrack) Label() string         { return "fake " + t.deviceID }

func (t *fakeTrack) Settings() MediaTrackSettings {
	s := MediaTrackSettings{DeviceID: t.deviceID, FacingMode: t.facing}
	if t.frame != nil {
		s.Width, s.Height = t.frame.Bounds().Dx(), t.frame.Bounds().Dy()
	}
	return s
}

func (t *fakeTrack) Constraints() MediaTrackConstraints { return t.constraints }

func (t *fakeTrack) NewReader() video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		if t.ReadyState() == TrackStateEnded || t.frame == nil {
			return nil, func() {}, io.EOF
		}
		time.Sleep(time.Millisecond)
		return t.frame, func() {}, nil
	})
}

func (t *fakeTrack) ReadyState() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return TrackStateEnded
	}
	return TrackStateLive
}

func (t *fakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// fakeMediaDevices hands out fakeTracks for a fixed device list.
type fakeMediaDevices struct {
	mu         sync.Mutex
	devices    []MediaDeviceInfo
	frameSize  image.Point
	enumErr    error
	acquireErr error

	enumCalls int
	requests  []MediaTrackConstraints
	tracks    []*fakeTrack
	// liveOnAcquire records how many tracks were live at each request.
	liveOnAcquire []int
}

func newFakeMediaDevices(ids ...string) *fakeMediaDevices {
	md := &fakeMediaDevices{frameSize: image.Pt(320, 240)}
	for _, id := range ids {
		md.devices = append(md.devices, MediaDeviceInfo{
			DeviceID: id,
			Kind:     VideoInput,
			Label:    "camera " + id,
		})
	}
	return md
}

func (md *fakeMediaDevices) setFacing(id, facing string) {
	md.mu.Lock()
	defer md.mu.Unlock()
	for i := range md.devices {
		if md.devices[i].DeviceID == id {
			md.devices[i].FacingMode = facing
		}
	}
}

func (md *fakeMediaDevices) setEnumErr(err error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.enumErr = err
}

func (md *fakeMediaDevices) setAcquireErr(err error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.acquireErr = err
}

func (md *fakeMediaDevices) EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error) {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.enumCalls++
	if md.enumErr != nil {
		return nil, md.enumErr
	}
	return append([]MediaDeviceInfo(nil), md.devices...), nil
}

func (md *fakeMediaDevices) GetUserMedia(ctx context.Context, c MediaStreamConstraints) (MediaStream, error) {
	md.mu.Lock()
	defer md.mu.Unlock()

	md.requests = append(md.requests, *c.Video)
	live := 0
	for _, t := range md.tracks {
		if t.ReadyState() == TrackStateLive {
			live++
		}
	}
	md.liveOnAcquire = append(md.liveOnAcquire, live)

	if md.acquireErr != nil {
		return nil, md.acquireErr
	}

	var dev *MediaDeviceInfo
	if id, ok := c.Video.DeviceID.(prop.StringExact); ok {
		for i := range md.devices {
			if md.devices[i].DeviceID == string(id) {
				dev = &md.devices[i]
			}
		}
		if dev == nil {
			return nil, ErrNotFound
		}
	} else if len(md.devices) > 0 {
		dev = &md.devices[0]
	} else {
		dev = &MediaDeviceInfo{}
	}

	t := &fakeTrack{
		id:          dev.DeviceID + "-track",
		deviceID:    dev.DeviceID,
		facing:      dev.FacingMode,
		constraints: *c.Video,
		frame:       solidFrame(md.frameSize.X, md.frameSize.Y),
	}
	md.tracks = append(md.tracks, t)
	return NewMediaStream(t), nil
}

func (md *fakeMediaDevices) acquired() []*fakeTrack {
	md.mu.Lock()
	defer md.mu.Unlock()
	return append([]*fakeTrack(nil), md.tracks...)
}

func (md *fakeMediaDevices) enumerations() int {
	md.mu.Lock()
	defer md.mu.Unlock()
	return md.enumCalls
}

func (md *fakeMediaDevices) maxLiveOnAcquire() int {
	md.mu.Lock()
	defer md.mu.Unlock()
	most := 0
	for _, n := range md.liveOnAcquire {
		if n > most {
			most = n
		}
	}
	return most
}
