package webcam

import (
	"testing"

	"github.com/pion/webcam/pkg/prop"
)

func TestShouldMirror(t *testing.T) {
	byConstraint := func(c prop.StringConstraint) Track {
		return &fakeTrack{constraints: MediaTrackConstraints{MediaConstraints: prop.MediaConstraints{FacingMode: c}}}
	}

	cases := map[string]struct {
		mode  MirrorMode
		track Track
		want  bool
	}{
		"AlwaysNoTrack":      {MirrorAlways, nil, false},
		"NeverNoTrack":       {MirrorNever, nil, false},
		"AutoNoTrack":        {MirrorAuto, nil, false},
		"AlwaysEnvironment":  {MirrorAlways, &fakeTrack{facing: FacingEnvironment}, true},
		"AlwaysUnknown":      {MirrorAlways, &fakeTrack{}, true},
		"NeverUser":          {MirrorNever, &fakeTrack{facing: FacingUser}, false},
		"AutoUser":           {MirrorAuto, &fakeTrack{facing: FacingUser}, true},
		"AutoUserUpperCase":  {MirrorAuto, &fakeTrack{facing: "User"}, true},
		"AutoEnvironment":    {MirrorAuto, &fakeTrack{facing: FacingEnvironment}, false},
		"AutoUnknown":        {MirrorAuto, &fakeTrack{}, false},
		"AutoExactUser":      {MirrorAuto, byConstraint(prop.StringExact("user")), true},
		"AutoIdealUser":      {MirrorAuto, byConstraint(prop.String("USER")), true},
		"AutoFirstOfList":    {MirrorAuto, byConstraint(prop.StringOneOf{"user", "environment"}), true},
		"AutoSecondOfList":   {MirrorAuto, byConstraint(prop.StringOneOf{"environment", "user"}), false},
		"AutoEmptyList":      {MirrorAuto, byConstraint(prop.StringOneOf{}), false},
		"SettingsOverConstr": {MirrorAuto, &fakeTrack{facing: FacingEnvironment, constraints: byConstraint(prop.String("user")).Constraints()}, false},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			if got := ShouldMirror(c.mode, c.track); got != c.want {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestTrackDeviceID(t *testing.T) {
	tr := &fakeTrack{constraints: ResolveConstraints("cam0", nil)}
	if id, ok := trackDeviceID(tr); !ok || id != "cam0" {
		t.Errorf("expected the id of the constraints, got %q", id)
	}

	tr.deviceID = "cam1"
	if id, _ := trackDeviceID(tr); id != "cam1" {
		t.Errorf("expected the reported id, got %q", id)
	}

	if _, ok := trackDeviceID(&fakeTrack{}); ok {
		t.Error("expected no id")
	}
}

func TestParseMirrorMode(t *testing.T) {
	for s, want := range map[string]MirrorMode{
		"auto":   MirrorAuto,
		"Always": MirrorAlways,
		"NEVER":  MirrorNever,
		"":       MirrorAuto,
	} {
		got, err := ParseMirrorMode(s)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%q: expected %s, got %s", s, want, got)
		}
	}

	if _, err := ParseMirrorMode("sideways"); err == nil {
		t.Error("expected an error")
	}
}
