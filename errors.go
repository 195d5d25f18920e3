package webcam

import (
	"errors"
	"fmt"
)

var (
	// ErrPlatformUnsupported means there is no capture capability at all.
	ErrPlatformUnsupported = errors.New("webcam: cannot read user media from media devices")
	// ErrNotFound means no capture device satisfies the requested constraints.
	ErrNotFound = errors.New("webcam: failed to find the best driver that fits the constraints")
	// ErrNoVideoRequested is returned by GetUserMedia when the constraints
	// do not ask for video.
	ErrNoVideoRequested = errors.New("webcam: no video track requested")
	// ErrClosed is returned by operations on a torn down session or widget.
	ErrClosed = errors.New("webcam: closed")
)

// EnumerationError reports that listing capture devices failed.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("webcam: failed to enumerate devices: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// AcquisitionError reports that a stream request was denied or failed.
type AcquisitionError struct {
	Constraints MediaTrackConstraints
	Err         error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("webcam: failed to acquire stream %s: %v", e.Constraints.String(), e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// InitError is the payload of the initialization-error event.
type InitError struct {
	Message string
	// Err is the underlying platform error, if any.
	Err error
}

func (e *InitError) Error() string {
	return e.Message
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func newInitError(err error) *InitError {
	return &InitError{Message: err.Error(), Err: err}
}
