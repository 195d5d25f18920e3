package webcam

import (
	"context"
	"sync"
)

// CaptureDevice is a capture device as reported by the last enumeration.
type CaptureDevice struct {
	ID    string
	Label string
	// FacingHint is "user", "environment" or empty when unknown.
	FacingHint string
}

// Registry caches the capture devices of a MediaDevices.
type Registry struct {
	md MediaDevices

	mu      sync.RWMutex
	devices []CaptureDevice
}

// NewRegistry creates a Registry listing the devices of md. A nil md stands
// for a platform without capture support.
func NewRegistry(md MediaDevices) *Registry {
	return &Registry{md: md}
}

// ListDevices enumerates the video inputs and replaces the cached list. On
// failure the cached list is cleared and an *EnumerationError is returned.
func (r *Registry) ListDevices(ctx context.Context) ([]CaptureDevice, error) {
	if r.md == nil {
		r.set(nil)
		return nil, &EnumerationError{Err: ErrPlatformUnsupported}
	}

	infos, err := r.md.EnumerateDevices(ctx)
	if err != nil {
		r.set(nil)
		return nil, &EnumerationError{Err: err}
	}

	devices := make([]CaptureDevice, 0, len(infos))
	for _, info := range infos {
		if info.Kind != VideoInput {
			continue
		}
		devices = append(devices, CaptureDevice{
			ID:         info.DeviceID,
			Label:      info.Label,
			FacingHint: info.FacingMode,
		})
	}
	r.set(devices)
	return r.Devices(), nil
}

// Devices returns the devices found by the last enumeration.
func (r *Registry) Devices() []CaptureDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CaptureDevice(nil), r.devices...)
}

// IndexOf returns the position of the device with id, or UnknownDeviceIndex.
func (r *Registry) IndexOf(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, d := range r.devices {
		if d.ID == id {
			return i
		}
	}
	return UnknownDeviceIndex
}

func (r *Registry) set(devices []CaptureDevice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = devices
}
