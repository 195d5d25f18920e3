package webcam

import (
	"context"
)

// SwitchRequest is a camera switch sent through SetSwitchCamera.
type SwitchRequest struct {
	deviceID string
	forward  bool
	byID     bool
}

// Rotate requests the next device, or the previous one when forward is false.
func Rotate(forward bool) SwitchRequest {
	return SwitchRequest{forward: forward}
}

// SwitchToDevice requests the device with id.
func SwitchToDevice(id string) SwitchRequest {
	return SwitchRequest{deviceID: id, byID: true}
}

func (r SwitchRequest) String() string {
	switch {
	case r.byID:
		return "switch to " + r.deviceID
	case r.forward:
		return "rotate forward"
	default:
		return "rotate backward"
	}
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the subscription and waits for its goroutine to return.
func (s *subscription) stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	*s = subscription{}
}

func (w *Webcam) subscribe(sub *subscription, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(w.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx)
	}()
	*sub = subscription{cancel: cancel, done: done}
}

// SetTrigger makes every value received from ch take a snapshot, which is
// delivered to the OnImageCaptured listeners. It replaces the previous
// trigger, whose goroutine has returned by the time SetTrigger does. A nil
// ch only removes the previous trigger.
func (w *Webcam) SetTrigger(ch <-chan struct{}) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	w.trigger.stop()
	if ch == nil || w.ctx.Err() != nil {
		return
	}
	w.subscribe(&w.trigger, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok || ctx.Err() != nil {
					return
				}
				if _, err := w.capture(ctx, w.queue); err != nil {
					w.log.Warnf("triggered capture failed: %v", err)
				}
			}
		}
	})
}

// SetSwitchCamera makes every request received from ch switch the camera.
// Replacement works like SetTrigger. Requests still queued when their
// subscription is replaced are dropped.
func (w *Webcam) SetSwitchCamera(ch <-chan SwitchRequest) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	w.switcher.stop()
	if ch == nil || w.ctx.Err() != nil {
		return
	}
	w.subscribe(&w.switcher, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-ch:
				if !ok {
					return
				}
				w.log.Debugf("received %s", req)
				w.post(command{sub: ctx, run: func(loopCtx context.Context) {
					if req.byID {
						_ = w.switchTo(loopCtx, req.deviceID, w.queue)
					} else {
						_ = w.rotate(loopCtx, req.forward, w.queue)
					}
				}})
			}
		}
	})
}
