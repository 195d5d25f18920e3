package driver

// DeviceType represents human readable device type. DeviceType
// can be useful to filter the drivers too.
type DeviceType string

const (
	// Camera represents camera devices
	Camera DeviceType = "camera"
	// Screen represents screen devices
	Screen DeviceType = "screen"
)

// Priority represents device selection priority level
type Priority float32

const (
	// PriorityHigh is a value for system default devices
	PriorityHigh Priority = 0.1
	// PriorityNormal is a value for normal devices
	PriorityNormal Priority = 0.0
	// PriorityLow is a value for unrecommended devices
	PriorityLow Priority = -0.1
)
