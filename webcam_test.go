package webcam

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

// recorder collects the events of a Webcam.
type recorder struct {
	mu         sync.Mutex
	images     []*CapturedImage
	initErrors []*InitError
	switched   []string
	clicks     int
}

func record(w *Webcam) *recorder {
	r := &recorder{}
	w.OnImageCaptured(func(img *CapturedImage) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.images = append(r.images, img)
	})
	w.OnInitError(func(err *InitError) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.initErrors = append(r.initErrors, err)
	})
	w.OnCameraSwitched(func(id string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.switched = append(r.switched, id)
	})
	w.OnClick(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.clicks++
	})
	return r
}

func (r *recorder) counts() (images, initErrors, switched, clicks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.images), len(r.initErrors), len(r.switched), r.clicks
}

func (r *recorder) lastSwitch() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.switched) == 0 {
		return ""
	}
	return r.switched[len(r.switched)-1]
}

func (r *recorder) errs() []*InitError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*InitError(nil), r.initErrors...)
}

func TestWebcamStart(t *testing.T) {
	md := newFakeMediaDevices("A", "B")
	w := New(WithMediaDevices(md))
	defer w.Close()
	r := record(w)

	require.NoError(t, w.Start(context.Background()))

	assert.True(t, w.Initialized())
	assert.Equal(t, 0, w.ActiveDeviceIndex())
	assert.Equal(t, 2, md.enumerations(), "devices are listed before and after acquisition")
	assert.Len(t, w.Devices(), 2)
	assert.True(t, w.CanSwitchCamera())
	assert.Equal(t, SessionActive, w.State())
	assert.Equal(t, "A", r.lastSwitch())

	_, initErrors, _, _ := r.counts()
	assert.Zero(t, initErrors)

	// A second Start does nothing.
	require.NoError(t, w.Start(context.Background()))
	assert.Len(t, md.acquired(), 1)
}

func TestWebcamCanSwitchCamera(t *testing.T) {
	w := New(WithMediaDevices(newFakeMediaDevices("A", "B")), WithAllowCameraSwitch(false))
	defer w.Close()
	assert.False(t, w.CanSwitchCamera())
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.CanSwitchCamera())

	w1 := New(WithMediaDevices(newFakeMediaDevices("A")))
	defer w1.Close()
	require.NoError(t, w1.Start(context.Background()))
	assert.False(t, w1.CanSwitchCamera())
}

func TestWebcamEnumerationFailure(t *testing.T) {
	md := newFakeMediaDevices("A", "B")
	errBroken := errors.New("enumeration broke")
	md.setEnumErr(errBroken)

	w := New(WithMediaDevices(md))
	defer w.Close()
	r := record(w)
	require.NoError(t, w.Start(context.Background()))

	errs := r.errs()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errBroken)
	assert.NotEmpty(t, errs[0].Message)

	// Fallback acquisition without device constraint.
	require.Len(t, md.acquired(), 1)
	assert.Nil(t, md.requests[0].DeviceID)
	assert.True(t, w.Initialized())
	assert.Equal(t, UnknownDeviceIndex, w.ActiveDeviceIndex())
	assert.Equal(t, "A", r.lastSwitch())
}

func TestWebcamAcquisitionFailure(t *testing.T) {
	md := newFakeMediaDevices("A")
	errDenied := errors.New("permission denied")
	md.setAcquireErr(errDenied)

	w := New(WithMediaDevices(md))
	defer w.Close()
	r := record(w)
	require.NoError(t, w.Start(context.Background()))

	errs := r.errs()
	require.Len(t, errs, 1)
	var acqErr *AcquisitionError
	assert.True(t, errors.As(errs[0], &acqErr))
	assert.ErrorIs(t, errs[0], errDenied)
	assert.False(t, w.Initialized())
	assert.Equal(t, SessionStopped, w.State())

	// Still usable afterwards.
	md.setAcquireErr(nil)
	require.NoError(t, w.SwitchTo(context.Background(), "A"))
	assert.True(t, w.Initialized())
}

func TestWebcamPlatformUnsupported(t *testing.T) {
	w := New(WithMediaDevices(nil))
	defer w.Close()
	r := record(w)
	require.NoError(t, w.Start(context.Background()))

	errs := r.errs()
	require.Len(t, errs, 1, "no retry without capture support")
	assert.ErrorIs(t, errs[0], ErrPlatformUnsupported)
	assert.False(t, w.Initialized())
	assert.False(t, w.Mirrored())
}

func TestWebcamSwitchSignal(t *testing.T) {
	md := newFakeMediaDevices("A", "B", "C")
	md.setFacing("B", FacingUser)
	w := New(WithMediaDevices(md))
	defer w.Close()
	r := record(w)
	require.NoError(t, w.Start(context.Background()))
	assert.False(t, w.Mirrored())

	switchCh := make(chan SwitchRequest)
	w.SetSwitchCamera(switchCh)

	switchCh <- Rotate(true)
	require.Eventually(t, func() bool { return r.lastSwitch() == "B" }, waitFor, tick)
	assert.Equal(t, 1, w.ActiveDeviceIndex())
	assert.True(t, w.Initialized())
	assert.True(t, w.Mirrored())

	switchCh <- Rotate(false)
	require.Eventually(t, func() bool { return r.lastSwitch() == "A" }, waitFor, tick)
	assert.Equal(t, 0, w.ActiveDeviceIndex())

	switchCh <- SwitchToDevice("C")
	require.Eventually(t, func() bool { return r.lastSwitch() == "C" }, waitFor, tick)
	assert.Equal(t, 2, w.ActiveDeviceIndex())
	assert.Equal(t, 0, md.maxLiveOnAcquire())
}

func TestWebcamRotate(t *testing.T) {
	ctx := context.Background()
	md := newFakeMediaDevices("A", "B", "C")
	w := New(WithMediaDevices(md))
	defer w.Close()
	require.NoError(t, w.Start(ctx))

	for _, want := range []int{1, 2, 0} {
		require.NoError(t, w.Rotate(ctx, true))
		assert.Equal(t, want, w.ActiveDeviceIndex())
	}
	require.NoError(t, w.Rotate(ctx, false))
	assert.Equal(t, 2, w.ActiveDeviceIndex())
}

func TestWebcamTrigger(t *testing.T) {
	md := newFakeMediaDevices("A")
	w := New(WithMediaDevices(md), WithImageType("image/png"), WithCaptureImageData(true))
	defer w.Close()
	r := record(w)
	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return w.Video().VideoWidth() == 320 }, waitFor, tick)

	trigger := make(chan struct{})
	w.SetTrigger(trigger)
	trigger <- struct{}{}
	trigger <- struct{}{}
	assert.Eventually(t, func() bool {
		images, _, _, _ := r.counts()
		return images == 2
	}, waitFor, tick)

	r.mu.Lock()
	img := r.images[0]
	r.mu.Unlock()
	assert.Equal(t, "image/png", img.MimeType)
	require.NotNil(t, img.PixelData)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.PixelData.Rect)
}

func TestWebcamSignalReplacement(t *testing.T) {
	w := New(WithMediaDevices(newFakeMediaDevices("A", "B")))
	defer w.Close()
	require.NoError(t, w.Start(context.Background()))

	first := make(chan struct{})
	second := make(chan struct{})
	w.SetTrigger(first)
	w.SetTrigger(second)

	select {
	case first <- struct{}{}:
		t.Fatal("the replaced trigger is still subscribed")
	default:
	}

	firstSwitch := make(chan SwitchRequest)
	w.SetSwitchCamera(firstSwitch)
	w.SetSwitchCamera(nil)
	select {
	case firstSwitch <- Rotate(true):
		t.Fatal("the removed switch source is still subscribed")
	default:
	}

	r := record(w)
	second <- struct{}{}
	assert.Eventually(t, func() bool {
		images, _, _, _ := r.counts()
		return images == 1
	}, waitFor, tick)
}

func TestWebcamClose(t *testing.T) {
	md := newFakeMediaDevices("A", "B")
	w := New(WithMediaDevices(md))
	r := record(w)
	require.NoError(t, w.Start(context.Background()))

	trigger := make(chan struct{})
	switchCh := make(chan SwitchRequest)
	w.SetTrigger(trigger)
	w.SetSwitchCamera(switchCh)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	for _, tr := range md.acquired() {
		assert.Equal(t, TrackStateEnded, tr.ReadyState())
	}
	assert.False(t, w.Initialized())
	assert.Equal(t, SessionStopped, w.State())

	select {
	case trigger <- struct{}{}:
		t.Fatal("trigger still subscribed after Close")
	case switchCh <- Rotate(true):
		t.Fatal("switch source still subscribed after Close")
	default:
	}

	w.Capture()
	w.Click()
	_, err := w.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.SwitchTo(context.Background(), "B"), ErrClosed)
	assert.ErrorIs(t, w.Start(context.Background()), ErrClosed)

	images, initErrors, switched, clicks := r.counts()
	assert.Zero(t, images)
	assert.Zero(t, initErrors)
	assert.Equal(t, 1, switched)
	assert.Zero(t, clicks)
}

func TestWebcamClickAndUnsubscribe(t *testing.T) {
	w := New(WithMediaDevices(newFakeMediaDevices("A")))
	defer w.Close()

	clicks := 0
	unsubscribe := w.OnClick(func() { clicks++ })
	w.Click()
	w.Click()
	unsubscribe()
	w.Click()
	assert.Equal(t, 2, clicks)
}

func TestWebcamVideoSize(t *testing.T) {
	md := newFakeMediaDevices("A")
	md.frameSize = image.Pt(320, 180)
	w := New(WithMediaDevices(md), WithSize(640, 480))
	defer w.Close()

	assert.Equal(t, 640, w.VideoWidth())
	assert.Equal(t, 480, w.VideoHeight())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return w.Video().VideoWidth() == 320 }, waitFor, tick)
	assert.Equal(t, 640, w.VideoWidth())
	assert.Equal(t, 360, w.VideoHeight())

	img, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	_, size := decodedSize(t, img)
	assert.Equal(t, image.Pt(320, 180), size)
}

func TestWebcamPreviewMirror(t *testing.T) {
	md := newFakeMediaDevices("A")
	md.setFacing("A", FacingUser)
	w := New(WithMediaDevices(md))
	defer w.Close()

	assert.Nil(t, w.Preview())
	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return w.Preview() != nil }, waitFor, tick)
	require.True(t, w.Mirrored())

	frame := w.Video().Frame()
	preview := w.Preview()
	b := frame.Bounds()
	assert.Equal(t, frame.At(b.Max.X-1, 0), preview.At(0, 0))

	never := New(WithMediaDevices(md), WithMirror(MirrorNever))
	defer never.Close()
	require.NoError(t, never.Start(context.Background()))
	assert.False(t, never.Mirrored())
}

// within fails the test unless f returns before the timeout.
func within(t *testing.T, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("call did not return")
	}
}

func TestWebcamRetryFromInitErrorListener(t *testing.T) {
	md := newFakeMediaDevices("A", "B")
	md.setAcquireErr(errors.New("device busy"))
	w := New(WithMediaDevices(md))
	defer w.Close()
	r := record(w)

	var retried bool
	var retryErr error
	w.OnInitError(func(*InitError) {
		if retried {
			return
		}
		retried = true
		md.setAcquireErr(nil)
		retryErr = w.SwitchTo(context.Background(), "B")
	})

	within(t, func() { require.NoError(t, w.Start(context.Background())) })
	require.NoError(t, retryErr)
	assert.True(t, w.Initialized())
	assert.Equal(t, "B", r.lastSwitch())

	// Failures of signalled switches reach the listeners on the event
	// goroutine, which may switch again as well.
	switched := make(chan error, 1)
	w.OnInitError(func(*InitError) { switched <- w.Rotate(context.Background(), true) })
	switchCh := make(chan SwitchRequest)
	w.SetSwitchCamera(switchCh)
	switchCh <- SwitchToDevice("missing")

	select {
	case err := <-switched:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("switch from the event goroutine did not return")
	}
	assert.True(t, w.Initialized())
}

func TestWebcamCloseFromListener(t *testing.T) {
	t.Run("CameraSwitched", func(t *testing.T) {
		md := newFakeMediaDevices("A", "B")
		w := New(WithMediaDevices(md))
		w.OnCameraSwitched(func(string) { _ = w.Close() })

		within(t, func() { require.NoError(t, w.Start(context.Background())) })
		assert.Equal(t, SessionStopped, w.State())
		assert.ErrorIs(t, w.SwitchTo(context.Background(), "B"), ErrClosed)
	})

	t.Run("SignalledSwitch", func(t *testing.T) {
		md := newFakeMediaDevices("A", "B")
		w := New(WithMediaDevices(md))
		require.NoError(t, w.Start(context.Background()))

		closed := make(chan struct{})
		w.OnCameraSwitched(func(string) {
			_ = w.Close()
			close(closed)
		})
		switchCh := make(chan SwitchRequest)
		w.SetSwitchCamera(switchCh)
		switchCh <- Rotate(true)

		within(t, func() { <-closed })
		for _, tr := range md.acquired() {
			assert.Equal(t, TrackStateEnded, tr.ReadyState())
		}
	})

	t.Run("TriggeredCapture", func(t *testing.T) {
		md := newFakeMediaDevices("A")
		w := New(WithMediaDevices(md))
		require.NoError(t, w.Start(context.Background()))

		closed := make(chan struct{})
		w.OnImageCaptured(func(*CapturedImage) {
			_ = w.Close()
			close(closed)
		})
		trigger := make(chan struct{})
		w.SetTrigger(trigger)
		trigger <- struct{}{}

		within(t, func() { <-closed })
		assert.Equal(t, SessionStopped, w.State())
		select {
		case trigger <- struct{}{}:
			t.Fatal("trigger still subscribed after Close")
		default:
		}
	})
}
