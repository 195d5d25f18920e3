package webcam

import (
	"image"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

// TrackState is https://w3c.github.io/mediacapture-main/#dom-mediastreamtrackstate
type TrackState string

// TrackState definitions.
const (
	TrackStateLive  TrackState = "live"
	TrackStateEnded TrackState = "ended"
)

// MediaTrackSettings is what a track reports about the device feeding it.
// Reference: https://w3c.github.io/mediacapture-main/#dom-mediatracksettings
type MediaTrackSettings struct {
	DeviceID   string
	FacingMode string
	Width      int
	Height     int
	FrameRate  float32
}

// Track is an interface that represent MediaStreamTrack
// Reference: https://w3c.github.io/mediacapture-main/#mediastreamtrack
type Track interface {
	ID() string
	Kind() MediaDeviceType
	Label() string
	// Settings reports the values the device actually runs with.
	Settings() MediaTrackSettings
	// Constraints returns the constraints the track was acquired with.
	Constraints() MediaTrackConstraints
	// NewReader returns a reader of the track's frames. Readers return
	// io.EOF once the track is stopped.
	NewReader() video.Reader
	ReadyState() TrackState
	// Stop releases the device. Stop is idempotent.
	Stop()
}

type videoTrack struct {
	id          string
	label       string
	d           driver.Driver
	r           video.Reader
	selected    prop.Media
	constraints MediaTrackConstraints

	mu    sync.Mutex
	state TrackState
}

func newVideoTrack(d driver.Driver, r video.Reader, selected prop.Media, c MediaTrackConstraints) *videoTrack {
	return &videoTrack{
		id:          uuid.NewString(),
		label:       d.Info().Label,
		d:           d,
		r:           r,
		selected:    selected,
		constraints: c,
		state:       TrackStateLive,
	}
}

func (t *videoTrack) ID() string {
	return t.id
}

func (t *videoTrack) Kind() MediaDeviceType {
	return VideoInput
}

func (t *videoTrack) Label() string {
	return t.label
}

func (t *videoTrack) Settings() MediaTrackSettings {
	return MediaTrackSettings{
		DeviceID:   t.selected.DeviceID,
		FacingMode: t.selected.FacingMode,
		Width:      t.selected.Width,
		Height:     t.selected.Height,
		FrameRate:  t.selected.FrameRate,
	}
}

func (t *videoTrack) Constraints() MediaTrackConstraints {
	return t.constraints
}

func (t *videoTrack) NewReader() video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		if t.ReadyState() == TrackStateEnded {
			return nil, func() {}, io.EOF
		}
		return t.r.Read()
	})
}

func (t *videoTrack) ReadyState() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *videoTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TrackStateEnded {
		return
	}
	t.state = TrackStateEnded
	if err := t.d.Close(); err != nil {
		logger.Warnf("failed to close driver %s: %v", t.d.ID(), err)
	}
}
