package webcam

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/webcam/pkg/io/video"
)

// UnknownDeviceIndex is the active index when the active device is not in
// the device list.
const UnknownDeviceIndex = -1

// SessionState is the state of a Session.
type SessionState int

// SessionState definitions.
const (
	SessionIdle SessionState = iota
	SessionAcquiring
	SessionActive
	SessionSwitching
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionAcquiring:
		return "acquiring"
	case SessionActive:
		return "active"
	case SessionSwitching:
		return "switching"
	case SessionStopped:
		return "stopped"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session owns the live stream and plays it into a sink. At most one
// stream is held at a time: the previous one is always stopped before the
// next is requested.
//
// SwitchTo, Rotate, RefreshDevices, Stop and Close must not be called
// concurrently with each other. The accessors are safe from any goroutine.
type Session struct {
	md       MediaDevices
	registry *Registry
	sink     *video.Sink
	base     *MediaTrackConstraints
	log      logging.LeveledLogger

	mu          sync.RWMutex
	state       SessionState
	stream      MediaStream
	activeIndex int
	initialized bool
	closed      bool
}

// NewSession creates an idle session. base is the constraint template of
// every acquisition, nil selects DefaultVideoConstraints. A nil sink is
// replaced with a new one.
func NewSession(md MediaDevices, registry *Registry, sink *video.Sink, base *MediaTrackConstraints, log logging.LeveledLogger) *Session {
	if registry == nil {
		registry = NewRegistry(md)
	}
	if sink == nil {
		sink = video.NewSink()
	}
	if log == nil {
		log = logger
	}
	return &Session{
		md:          md,
		registry:    registry,
		sink:        sink,
		base:        base,
		log:         log,
		activeIndex: UnknownDeviceIndex,
	}
}

// SwitchTo stops the current stream and acquires a new one from the device
// with id, or from whichever device best fits the template when id is
// empty. It returns the id of the acquired device, empty when the track
// does not report one.
//
// After a successful acquisition the device list is enumerated again,
// since platforms may only report every device once access was granted.
func (s *Session) SwitchTo(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	s.initialized = false
	if s.stream != nil {
		s.state = SessionSwitching
	}
	s.mu.Unlock()

	s.stopStream()
	s.setState(SessionAcquiring)

	c := ResolveConstraints(id, s.base)
	if s.md == nil {
		s.setState(SessionStopped)
		return "", &AcquisitionError{Constraints: c, Err: ErrPlatformUnsupported}
	}

	s.log.Debugf("requesting stream with %s", c.String())
	stream, err := s.md.GetUserMedia(ctx, MediaStreamConstraints{Video: &c})
	if err != nil {
		s.setState(SessionStopped)
		return "", &AcquisitionError{Constraints: c, Err: err}
	}
	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		stopTracks(stream)
		s.setState(SessionStopped)
		return "", &AcquisitionError{Constraints: c, Err: ErrNotFound}
	}

	track := tracks[0]
	s.sink.SetSource(track.NewReader())
	if err := s.sink.Play(); err != nil {
		s.log.Warnf("failed to play %s: %v", track.Label(), err)
	}

	s.mu.Lock()
	s.stream = stream
	s.state = SessionActive
	s.mu.Unlock()

	deviceID, _ := trackDeviceID(track)
	index := UnknownDeviceIndex
	if _, err := s.registry.ListDevices(ctx); err != nil {
		s.log.Warnf("failed to refresh devices after acquisition: %v", err)
	} else if deviceID != "" {
		index = s.registry.IndexOf(deviceID)
	}

	s.mu.Lock()
	s.activeIndex = index
	s.initialized = true
	s.mu.Unlock()

	s.log.Infof("switched to %q (index %d)", track.Label(), index)
	return deviceID, nil
}

// Rotate switches to the next device in the list, or the previous one when
// forward is false. It reports false without doing anything when fewer than
// two devices are known.
func (s *Session) Rotate(ctx context.Context, forward bool) (string, bool, error) {
	devices := s.registry.Devices()
	n := len(devices)
	if n < 2 {
		return "", false, nil
	}

	// Going back is a step of n-1 so the remainder stays non-negative.
	step := n - 1
	if forward {
		step = 1
	}
	next := (s.ActiveIndex() + step) % n
	id, err := s.SwitchTo(ctx, devices[next].ID)
	return id, true, err
}

// RefreshDevices enumerates the devices again and locates the active device
// in the new list.
func (s *Session) RefreshDevices(ctx context.Context) ([]CaptureDevice, error) {
	devices, err := s.registry.ListDevices(ctx)

	index := UnknownDeviceIndex
	if err == nil {
		if t := s.ActiveTrack(); t != nil {
			if id, ok := trackDeviceID(t); ok {
				index = s.registry.IndexOf(id)
			}
		}
	}

	s.mu.Lock()
	s.activeIndex = index
	s.mu.Unlock()
	return devices, err
}

// Stop pauses playback and stops every track of the current stream. It is
// a no-op without a stream.
func (s *Session) Stop() {
	if s.stopStream() {
		s.setState(SessionStopped)
	}
}

// Close stops the session for good. Later switches fail with ErrClosed.
func (s *Session) Close() {
	s.stopStream()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.initialized = false
	s.state = SessionStopped
}

func (s *Session) stopStream() bool {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream == nil {
		return false
	}
	s.sink.Pause()
	stopTracks(stream)
	return true
}

func stopTracks(stream MediaStream) {
	for _, t := range stream.GetTracks() {
		t.Stop()
	}
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// ActiveTrack returns the video track being played, or nil.
func (s *Session) ActiveTrack() Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stream == nil {
		return nil
	}
	tracks := s.stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil
	}
	return tracks[0]
}

// ActiveIndex returns the position of the active device in Devices, or
// UnknownDeviceIndex.
func (s *Session) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIndex
}

// Initialized reports whether the last switch completed.
func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Devices returns the devices known from the last enumeration.
func (s *Session) Devices() []CaptureDevice {
	return s.registry.Devices()
}

// Sink returns the sink the stream is played into.
func (s *Session) Sink() *video.Sink {
	return s.sink
}
