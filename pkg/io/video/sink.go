package video

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"time"
)

// temporaryErrorDelay is waited before reading again after a TemporaryError.
const temporaryErrorDelay = 10 * time.Millisecond

// ErrNoSource is returned by Play when no source has been attached.
var ErrNoSource = errors.New("video: sink has no source")

// Sink is the display surface a live stream is played into. While playing,
// it pulls frames from its source and keeps the latest one, so that a
// preview or a snapshot can be taken at any time.
//
// Intrinsic dimensions are zero until the first frame of the current source
// arrives.
type Sink struct {
	mu      sync.RWMutex
	src     Reader
	buff    *FrameBuffer
	cancel  context.CancelFunc
	err     error
	resized func(width, height int)
}

// NewSink creates an idle sink without a source.
func NewSink() *Sink {
	return &Sink{buff: NewFrameBuffer()}
}

// OnResize registers f to be called whenever the intrinsic dimensions change.
// f runs on the playback goroutine.
func (s *Sink) OnResize(f func(width, height int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resized = f
}

// SetSource pauses playback and replaces the source. A nil source detaches
// the current one. The previous frame is dropped.
func (s *Sink) SetSource(r Reader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauseLocked()
	s.src = r
	s.err = nil
	s.buff.Reset()
}

// Play starts pulling frames from the source. Calling Play on a playing sink
// is a no-op.
func (s *Sink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return ErrNoSource
	}
	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.pump(ctx, s.src)
	return nil
}

// Pause stops pulling frames. The last frame stays available. Pause is safe
// to call on an idle sink.
func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

func (s *Sink) pauseLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Paused reports whether the sink is currently not pulling frames.
func (s *Sink) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel == nil
}

// Err returns the error that ended the last playback, if any. io.EOF is not
// reported. Playback does not end on a TemporaryError, the source is read
// again instead.
func (s *Sink) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// VideoWidth returns the intrinsic width of the current frame, or 0.
func (s *Sink) VideoWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if img := s.buff.Load(); img != nil {
		return img.Rect.Dx()
	}
	return 0
}

// VideoHeight returns the intrinsic height of the current frame, or 0.
func (s *Sink) VideoHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if img := s.buff.Load(); img != nil {
		return img.Rect.Dy()
	}
	return 0
}

// Frame returns a copy of the current frame, or nil if no frame has arrived.
func (s *Sink) Frame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if img := s.buff.Load(); img != nil {
		return cloneRGBA(img)
	}
	return nil
}

func (s *Sink) pump(ctx context.Context, r Reader) {
	for {
		img, release, err := r.Read()
		if IsTemporary(err) {
			if release != nil {
				release()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(temporaryErrorDelay):
			}
			continue
		}
		if err != nil {
			s.mu.Lock()
			if ctx.Err() == nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				s.pauseLocked()
			}
			s.mu.Unlock()
			return
		}

		if !s.store(ctx, img) {
			if release != nil {
				release()
			}
			return
		}
		if release != nil {
			release()
		}
	}
}

// store copies img into the buffer unless ctx was cancelled meanwhile, so
// that a paused or replaced source never overwrites the frame.
func (s *Sink) store(ctx context.Context, img image.Image) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}

	var prevW, prevH int
	if prev := s.buff.Load(); prev != nil {
		prevW, prevH = prev.Rect.Dx(), prev.Rect.Dy()
	}
	s.buff.StoreCopy(img)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	resized := s.resized
	s.mu.Unlock()

	if resized != nil && (w != prevW || h != prevH) {
		resized(w, h)
	}
	return true
}
