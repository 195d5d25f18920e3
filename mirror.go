package webcam

import (
	"fmt"
	"strings"

	"github.com/pion/webcam/pkg/prop"
)

// Facing hints reported by capture devices.
const (
	FacingUser        = "user"
	FacingEnvironment = "environment"
)

// MirrorMode selects when the preview is flipped horizontally.
type MirrorMode int

// MirrorMode definitions.
const (
	// MirrorAuto mirrors user-facing cameras only.
	MirrorAuto MirrorMode = iota
	MirrorAlways
	MirrorNever
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorAuto:
		return "auto"
	case MirrorAlways:
		return "always"
	case MirrorNever:
		return "never"
	default:
		return fmt.Sprintf("MirrorMode(%d)", int(m))
	}
}

// ParseMirrorMode parses "auto", "always" or "never", ignoring case.
func ParseMirrorMode(s string) (MirrorMode, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return MirrorAuto, nil
	case "always":
		return MirrorAlways, nil
	case "never":
		return MirrorNever, nil
	}
	return MirrorAuto, fmt.Errorf("webcam: unknown mirror mode %q", s)
}

// ShouldMirror reports whether frames of track are displayed flipped.
// A nil track is never mirrored.
func ShouldMirror(mode MirrorMode, track Track) bool {
	if track == nil {
		return false
	}

	switch mode {
	case MirrorAlways:
		return true
	case MirrorNever:
		return false
	default:
		facing, ok := trackFacingMode(track)
		return ok && strings.EqualFold(facing, FacingUser)
	}
}

// trackFacingMode returns the facing hint the track reports, falling back to
// the one it was requested with.
func trackFacingMode(t Track) (string, bool) {
	if f := t.Settings().FacingMode; f != "" {
		return f, true
	}
	return constraintValue(t.Constraints().FacingMode)
}

// trackDeviceID works like trackFacingMode for the device id.
func trackDeviceID(t Track) (string, bool) {
	if id := t.Settings().DeviceID; id != "" {
		return id, true
	}
	return constraintValue(t.Constraints().DeviceID)
}

func constraintValue(c prop.StringConstraint) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Value()
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
