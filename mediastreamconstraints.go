package webcam

import (
	"github.com/pion/webcam/pkg/prop"
)

// MediaStreamConstraints describes what GetUserMedia should acquire.
// A nil Video requests no video.
type MediaStreamConstraints struct {
	Video *MediaTrackConstraints
}

// MediaTrackConstraints represents https://w3c.github.io/mediacapture-main/#dom-mediatrackconstraints
type MediaTrackConstraints struct {
	prop.MediaConstraints
}

// DefaultVideoConstraints is the template used when the caller configures
// none: prefer an environment-facing camera.
func DefaultVideoConstraints() MediaTrackConstraints {
	return MediaTrackConstraints{
		MediaConstraints: prop.MediaConstraints{
			FacingMode: prop.String(FacingEnvironment),
		},
	}
}

// ResolveConstraints merges deviceID into base as an exact-match
// requirement. An empty deviceID leaves base unchanged, and a nil base
// falls back to DefaultVideoConstraints. base is never modified.
func ResolveConstraints(deviceID string, base *MediaTrackConstraints) MediaTrackConstraints {
	var c MediaTrackConstraints
	if base != nil {
		c = *base
	} else {
		c = DefaultVideoConstraints()
	}

	if deviceID != "" {
		c.DeviceID = prop.StringExact(deviceID)
	}
	return c
}
