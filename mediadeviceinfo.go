package webcam

import "github.com/pion/webcam/pkg/driver"

// MediaDeviceType enumerates type of media device.
type MediaDeviceType int

// MediaDeviceType definitions.
const (
	VideoInput MediaDeviceType = iota + 1
)

// MediaDeviceInfo represents https://w3c.github.io/mediacapture-main/#dom-mediadeviceinfo
type MediaDeviceInfo struct {
	DeviceID   string
	Kind       MediaDeviceType
	Label      string
	DeviceType driver.DeviceType
	FacingMode string
}
