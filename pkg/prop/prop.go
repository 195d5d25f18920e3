// Package prop describes media properties reported by capture devices and
// the constraints a caller places on them.
package prop

import (
	"fmt"
	"strings"

	"github.com/pion/webcam/pkg/frame"
)

// MediaConstraints represents set of media property constraints.
// Each field constrains property by min/ideal/max range, exact match, or one-of list.
// A nil field places no constraint on the property.
type MediaConstraints struct {
	DeviceID   StringConstraint
	FacingMode StringConstraint
	VideoConstraints
}

// String prints a human readable form of the constraints, skipping unset ones.
func (m *MediaConstraints) String() string {
	var parts []string
	add := func(name string, v interface{}) {
		if v == nil {
			return
		}
		parts = append(parts, fmt.Sprintf("%s: %v", name, v))
	}
	if m.DeviceID != nil {
		add("DeviceID", m.DeviceID)
	}
	if m.FacingMode != nil {
		add("FacingMode", m.FacingMode)
	}
	if m.Width != nil {
		add("Width", m.Width)
	}
	if m.Height != nil {
		add("Height", m.Height)
	}
	if m.FrameRate != nil {
		add("FrameRate", m.FrameRate)
	}
	if m.FrameFormat != nil {
		add("FrameFormat", m.FrameFormat)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FitnessDistance calculates fitness of media property and media constraints.
// If no media satisfies the constraints, second return value will be false.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (m *MediaConstraints) FitnessDistance(o Media) (float64, bool) {
	cmps := comparisons{}
	cmps.add(m.DeviceID, o.DeviceID)
	cmps.add(m.FacingMode, o.FacingMode)
	cmps.add(m.Width, o.Width)
	cmps.add(m.Height, o.Height)
	cmps.add(m.FrameRate, o.FrameRate)
	cmps.add(m.FrameFormat, o.FrameFormat)
	return cmps.fitnessDistance()
}

// VideoConstraints represents a video's constraints
type VideoConstraints struct {
	Width, Height IntConstraint
	FrameRate     FloatConstraint
	FrameFormat   FrameFormatConstraint
}

type comparisons []struct {
	desired, actual interface{}
}

func (c *comparisons) add(desired, actual interface{}) {
	if desired != nil {
		*c = append(*c,
			struct{ desired, actual interface{} }{
				desired, actual,
			},
		)
	}
}

// fitnessDistance is an implementation for https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (c *comparisons) fitnessDistance() (float64, bool) {
	var dist float64
	for _, field := range *c {
		var d float64
		var ok bool
		switch c := field.desired.(type) {
		case IntConstraint:
			if actual, typeOK := field.actual.(int); typeOK {
				d, ok = c.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case FloatConstraint:
			if actual, typeOK := field.actual.(float32); typeOK {
				d, ok = c.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case StringConstraint:
			if actual, typeOK := field.actual.(string); typeOK {
				d, ok = c.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case FrameFormatConstraint:
			if actual, typeOK := field.actual.(frame.Format); typeOK {
				d, ok = c.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		default:
			panic("unsupported constraint type")
		}
		dist += d
		if !ok {
			return 0, false
		}
	}
	return dist, true
}

// Media stores single set of media properties.
type Media struct {
	DeviceID   string
	FacingMode string
	Video
}

// Video represents a video's properties
type Video struct {
	Width, Height int
	FrameRate     float32
	FrameFormat   frame.Format
}
