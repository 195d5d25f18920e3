// Package webcam implements an embeddable live capture widget. A Webcam
// acquires a camera stream, plays it into a video sink for display, lets
// the host switch between capture devices and takes still snapshots.
//
// Capture devices are provided by drivers registered with the driver
// manager. Import the drivers to use for their side effect:
//
//	import _ "github.com/pion/webcam/pkg/driver/camera"
package webcam

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/webcam/pkg/io/video"
)

const commandQueueSize = 16

type command struct {
	// sub is the context of the subscription that posted the command, nil
	// for direct calls.
	sub context.Context
	run func(ctx context.Context)
}

// Webcam is the capture widget. Device and stream operations are executed
// one at a time on a single goroutine. Snapshots are taken on the calling
// goroutine from whatever frame is displayed.
//
// Listeners of an operation called directly run on the calling goroutine
// once the operation is done. Listeners of the operations started by
// SetTrigger and SetSwitchCamera run on an event goroutine. Listeners may
// call any method of the Webcam, Close included.
//
// A Webcam must be closed to release its device and goroutines.
type Webcam struct {
	cfg     Config
	log     logging.LeveledLogger
	session *Session

	ctx      context.Context
	cancel   context.CancelFunc
	cmds     chan command
	quit     chan struct{}
	loopDone chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	subMu    sync.Mutex
	trigger  subscription
	switcher subscription

	events *dispatcher

	imageCaptured  emitter[*CapturedImage]
	initError      emitter[*InitError]
	click          emitter[struct{}]
	cameraSwitched emitter[string]
}

// New creates a Webcam. Nothing is acquired before Start.
func New(opts ...Option) *Webcam {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.LoggerFactory == nil {
		cfg.LoggerFactory = loggerFactory()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Webcam{
		cfg:      cfg,
		log:      cfg.LoggerFactory.NewLogger("webcam"),
		ctx:      ctx,
		cancel:   cancel,
		cmds:     make(chan command, commandQueueSize),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		events:   newDispatcher(),
	}
	w.session = NewSession(
		cfg.MediaDevices,
		NewRegistry(cfg.MediaDevices),
		video.NewSink(),
		cfg.VideoConstraints,
		cfg.LoggerFactory.NewLogger("session"),
	)
	go w.loop()
	go w.events.run(ctx)
	return w
}

func (w *Webcam) loop() {
	defer close(w.loopDone)
	for {
		select {
		case <-w.quit:
			return
		case c := <-w.cmds:
			if c.sub != nil && c.sub.Err() != nil {
				continue
			}
			c.run(w.ctx)
		}
	}
}

// post queues c on the loop. It reports false if the webcam is closing or
// the posting subscription was cancelled meanwhile.
func (w *Webcam) post(c command) bool {
	var subDone <-chan struct{}
	if c.sub != nil {
		subDone = c.sub.Done()
	}
	if w.ctx.Err() != nil {
		return false
	}
	select {
	case w.cmds <- c:
		return true
	case <-w.ctx.Done():
		return false
	case <-subDone:
		return false
	}
}

// outcome is the result of a command run for a waiting caller, with the
// events it raised.
type outcome struct {
	err    error
	events []func()
}

// exec runs f on the loop and waits for it. The events f passes to deliver
// are returned instead of being delivered.
func (w *Webcam) exec(ctx context.Context, f func(ctx context.Context, deliver func(func())) error) outcome {
	resc := make(chan outcome, 1)
	queued := w.post(command{run: func(loopCtx context.Context) {
		if loopCtx.Err() != nil {
			resc <- outcome{err: ErrClosed}
			return
		}
		var events []func()
		err := f(loopCtx, func(e func()) { events = append(events, e) })
		resc <- outcome{err: err, events: events}
	}})
	if !queued {
		return outcome{err: ErrClosed}
	}

	select {
	case o := <-resc:
		return o
	case <-w.loopDone:
		select {
		case o := <-resc:
			return o
		default:
			return outcome{err: ErrClosed}
		}
	case <-ctx.Done():
		// The command still runs, its events go to the event goroutine.
		go func() {
			select {
			case o := <-resc:
				w.events.push(o.events...)
			case <-w.loopDone:
			}
		}()
		return outcome{err: ctx.Err()}
	}
}

// call runs f on the loop, waits for it and then delivers its events on the
// calling goroutine.
func (w *Webcam) call(ctx context.Context, f func(ctx context.Context, deliver func(func())) error) error {
	o := w.exec(ctx, f)
	w.deliver(o.events)
	return o.err
}

func (w *Webcam) deliver(events []func()) {
	for _, e := range events {
		w.emit(e)
	}
}

// queue hands e to the event goroutine.
func (w *Webcam) queue(e func()) {
	w.events.push(e)
}

// Start lists the capture devices and acquires the initial stream. It
// returns once the webcam is initialized or the attempt failed, the failure
// being reported to the OnInitError listeners. When listing the devices
// fails, the stream is still requested without a device constraint.
//
// Start only returns an error when ctx is done or the webcam is closed.
// Calling it again has no effect.
func (w *Webcam) Start(ctx context.Context) error {
	var o outcome
	started := false
	w.startOnce.Do(func() {
		started = true
		o = w.exec(ctx, func(loopCtx context.Context, deliver func(func())) error {
			w.initialize(loopCtx, deliver)
			return nil
		})
	})
	w.deliver(o.events)
	if !started && w.ctx.Err() != nil {
		return ErrClosed
	}
	return o.err
}

func (w *Webcam) initialize(ctx context.Context, deliver func(func())) {
	if _, err := w.session.RefreshDevices(ctx); err != nil {
		w.emitInitError(err, deliver)
		if errors.Is(err, ErrPlatformUnsupported) {
			w.log.Warn("capture is not supported on this platform")
			return
		}
		w.log.Warnf("device enumeration failed, acquiring without device: %v", err)
	}
	_ = w.switchTo(ctx, "", deliver)
}

// SwitchTo switches to the device with id, or to the best fitting device
// when id is empty. It waits for the switch; a failed switch is also
// reported to the OnInitError listeners.
func (w *Webcam) SwitchTo(ctx context.Context, id string) error {
	return w.call(ctx, func(loopCtx context.Context, deliver func(func())) error {
		return w.switchTo(loopCtx, id, deliver)
	})
}

// Rotate switches to the next device, or the previous one when forward is
// false. Nothing happens with fewer than two devices.
func (w *Webcam) Rotate(ctx context.Context, forward bool) error {
	return w.call(ctx, func(loopCtx context.Context, deliver func(func())) error {
		return w.rotate(loopCtx, forward, deliver)
	})
}

func (w *Webcam) switchTo(ctx context.Context, id string, deliver func(func())) error {
	deviceID, err := w.session.SwitchTo(ctx, id)
	return w.switched(deviceID, err, deliver)
}

func (w *Webcam) rotate(ctx context.Context, forward bool, deliver func(func())) error {
	deviceID, ok, err := w.session.Rotate(ctx, forward)
	if !ok {
		w.log.Debug("rotation needs at least two devices")
		return nil
	}
	return w.switched(deviceID, err, deliver)
}

func (w *Webcam) switched(deviceID string, err error, deliver func(func())) error {
	switch {
	case errors.Is(err, ErrClosed):
		return err
	case err != nil:
		w.log.Errorf("switch failed: %v", err)
		w.emitInitError(err, deliver)
		return err
	}
	deliver(func() { w.cameraSwitched.emit(deviceID) })
	return nil
}

// Capture takes a snapshot and delivers it to the OnImageCaptured
// listeners.
func (w *Webcam) Capture() {
	if _, err := w.capture(w.ctx, w.emit); err != nil {
		w.log.Warnf("capture failed: %v", err)
	}
}

// Snapshot takes a snapshot, delivers it to the OnImageCaptured listeners
// and returns it.
func (w *Webcam) Snapshot(ctx context.Context) (*CapturedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.capture(w.ctx, w.emit)
}

func (w *Webcam) capture(ctx context.Context, deliver func(func())) (*CapturedImage, error) {
	if ctx.Err() != nil {
		return nil, ErrClosed
	}
	img, err := Capture(w.session.Sink(), CaptureOptions{
		Width:         w.VideoWidth(),
		Height:        w.VideoHeight(),
		MimeType:      w.cfg.ImageType,
		Quality:       w.cfg.ImageQuality,
		WantPixelData: w.cfg.CaptureImageData,
	})
	if err != nil {
		return nil, err
	}
	deliver(func() { w.imageCaptured.emit(img) })
	return img, nil
}

// Click notifies the OnClick listeners, the shell calls it when the
// displayed video is clicked.
func (w *Webcam) Click() {
	w.emit(func() { w.click.emit(struct{}{}) })
}

func (w *Webcam) emitInitError(err error, deliver func(func())) {
	deliver(func() { w.initError.emit(newInitError(err)) })
}

// emit runs f unless teardown has begun.
func (w *Webcam) emit(f func()) {
	if w.ctx.Err() == nil {
		f()
	}
}

// OnImageCaptured registers f to receive snapshots. The returned function
// unregisters it.
func (w *Webcam) OnImageCaptured(f func(*CapturedImage)) (unsubscribe func()) {
	return w.imageCaptured.subscribe(f)
}

// OnInitError registers f to receive enumeration and acquisition failures.
func (w *Webcam) OnInitError(f func(*InitError)) (unsubscribe func()) {
	return w.initError.subscribe(f)
}

// OnClick registers f to be called on Click.
func (w *Webcam) OnClick(f func()) (unsubscribe func()) {
	return w.click.subscribe(func(struct{}) { f() })
}

// OnCameraSwitched registers f to receive the id of every newly acquired
// device. The id is empty when the device does not report one.
func (w *Webcam) OnCameraSwitched(f func(deviceID string)) (unsubscribe func()) {
	return w.cameraSwitched.subscribe(f)
}

// Close cancels both signal subscriptions, then stops the stream. No
// listener is called once Close has begun. Close is idempotent and may be
// called from a listener.
func (w *Webcam) Close() error {
	w.closeOnce.Do(func() {
		w.SetTrigger(nil)
		w.SetSwitchCamera(nil)

		w.subMu.Lock()
		w.cancel()
		w.subMu.Unlock()

		// The loop may be in the middle of a switch; the session is closed
		// after it.
		// The event goroutine is not joined, Close may run on it.
		close(w.quit)
		<-w.loopDone
		w.session.Close()

		w.imageCaptured.clear()
		w.initError.clear()
		w.click.clear()
		w.cameraSwitched.clear()
	})
	return nil
}

// VideoWidth is the display width corrected to the aspect ratio of the
// video.
func (w *Webcam) VideoWidth() int {
	ratio := w.videoAspectRatio()
	return int(math.Min(float64(w.cfg.Width), math.Round(float64(w.cfg.Height)*ratio)))
}

// VideoHeight is the display height corrected to the aspect ratio of the
// video.
func (w *Webcam) VideoHeight() int {
	ratio := w.videoAspectRatio()
	return int(math.Min(float64(w.cfg.Height), math.Round(float64(w.cfg.Width)/ratio)))
}

func (w *Webcam) videoAspectRatio() float64 {
	sink := w.session.Sink()
	if vw, vh := sink.VideoWidth(), sink.VideoHeight(); vw > 0 && vh > 0 {
		return float64(vw) / float64(vh)
	}
	if w.cfg.Width > 0 && w.cfg.Height > 0 {
		return float64(w.cfg.Width) / float64(w.cfg.Height)
	}
	return 1
}

// Mirrored reports whether the preview is flipped horizontally.
func (w *Webcam) Mirrored() bool {
	return ShouldMirror(w.cfg.Mirror, w.session.ActiveTrack())
}

// Preview returns the displayed frame as the shell should draw it, or nil
// before the first frame.
func (w *Webcam) Preview() image.Image {
	frame := w.session.Sink().Frame()
	if frame == nil {
		return nil
	}
	if w.Mirrored() {
		return video.FlipHorizontal(frame)
	}
	return frame
}

// Video returns the sink the stream is played into.
func (w *Webcam) Video() *video.Sink {
	return w.session.Sink()
}

// Devices returns the devices known from the last enumeration.
func (w *Webcam) Devices() []CaptureDevice {
	return w.session.Devices()
}

// ActiveDeviceIndex returns the position of the active device in Devices,
// or UnknownDeviceIndex.
func (w *Webcam) ActiveDeviceIndex() int {
	return w.session.ActiveIndex()
}

// Initialized reports whether a stream is playing after a completed switch.
func (w *Webcam) Initialized() bool {
	return w.session.Initialized()
}

// State returns the state of the stream session.
func (w *Webcam) State() SessionState {
	return w.session.State()
}

// CanSwitchCamera reports whether the shell should offer camera switching.
func (w *Webcam) CanSwitchCamera() bool {
	return w.cfg.AllowCameraSwitch && len(w.Devices()) > 1 && w.Initialized()
}

// Config returns the configuration the webcam was created with.
func (w *Webcam) Config() Config {
	return w.cfg
}
