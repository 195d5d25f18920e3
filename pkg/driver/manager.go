package driver

import (
	"sync"
)

// FilterFn is being used to decide if a driver should be included in the
// query result.
type FilterFn func(Driver) bool

// FilterVideoRecorder returns a filter function to get video recorders
func FilterVideoRecorder() FilterFn {
	return func(d Driver) bool {
		_, ok := d.(VideoRecorder)
		return ok
	}
}

// FilterDeviceType returns a filter function to get drivers of a device type
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// FilterID returns a filter function to get a driver with an exact id
func FilterID(id string) FilterFn {
	return func(d Driver) bool {
		return d.ID() == id
	}
}

// FilterAnd returns a filter function to take logical conjunction of given filters.
func FilterAnd(filters ...FilterFn) FilterFn {
	return func(d Driver) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}

// FilterNot returns a filter function to take logical inverse of given filter.
func FilterNot(filter FilterFn) FilterFn {
	return func(d Driver) bool {
		return !filter(d)
	}
}

// Manager is a registry of drivers. Drivers are reported in registration
// order, so repeated queries return identical lists.
type Manager struct {
	mu      sync.RWMutex
	drivers []Driver
}

var manager = NewManager()

// NewManager creates an empty Manager. Most callers want GetManager.
func NewManager() *Manager {
	return &Manager{}
}

// GetManager gets manager singleton instance.
func GetManager() *Manager {
	return manager
}

// Register registers adapter to be discoverable by Query
func (m *Manager) Register(a Adapter, info Info) error {
	d := wrapAdapter(a, info)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers = append(m.drivers, d)
	return nil
}

// Unregister removes the driver with the given id. It reports whether a
// driver was removed.
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, d := range m.drivers {
		if d.ID() == id {
			m.drivers = append(m.drivers[:i:i], m.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// Query queries by using f to filter drivers, and simply return the filtered results.
func (m *Manager) Query(f FilterFn) []Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if f(d) {
			results = append(results, d)
		}
	}

	return results
}
