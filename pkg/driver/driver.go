// Package driver abstracts the platform primitives used to discover and open
// capture devices. Concrete adapters live in subpackages and register
// themselves with the Manager on import.
package driver

import (
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

// OpenCloser is an interface with Open() and Close() methods
type OpenCloser interface {
	Open() error
	Close() error
}

// Infoer is an interface with Info() method
type Infoer interface {
	Info() Info
}

// Info is a generic information of a driver
type Info struct {
	Label      string
	DeviceType DeviceType
	Priority   Priority
	// FacingMode is the orientation reported by the platform, "user" or
	// "environment". Empty when unknown.
	FacingMode string
}

// Adapter is a base adapter for all drivers
type Adapter interface {
	OpenCloser
	Properties() []prop.Media
}

// Driver is an adapter wrapped with an id and a state machine.
type Driver interface {
	Adapter
	Infoer
	ID() string
	Status() State
}

// VideoRecorder is an interface to encapsulate the recording process for video drivers
type VideoRecorder interface {
	VideoRecord(p prop.Media) (r video.Reader, err error)
}
