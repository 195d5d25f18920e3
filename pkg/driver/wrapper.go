package driver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

func wrapAdapter(a Adapter, info Info) Driver {
	d := &adapterWrapper{
		Adapter: a,
		id:      uuid.NewString(),
		info:    info,
		state:   StateClosed,
	}

	if v, ok := a.(VideoRecorder); ok {
		return &videoAdapterWrapper{adapterWrapper: d, recorder: v}
	}
	return d
}

type adapterWrapper struct {
	Adapter
	id   string
	info Info

	mu    sync.Mutex
	state State
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *adapterWrapper) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateOpened, w.Adapter.Open)
}

func (w *adapterWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateClosed, w.Adapter.Close)
}

func (w *adapterWrapper) Properties() []prop.Media {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	return w.Adapter.Properties()
}

type videoAdapterWrapper struct {
	*adapterWrapper
	recorder VideoRecorder
}

// VideoRecord starts recording. If the adapter fails to start, the driver is
// closed so that it can be opened again by the next request.
func (w *videoAdapterWrapper) VideoRecord(p prop.Media) (video.Reader, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var r video.Reader
	err := w.state.Update(StateRunning, func() error {
		var err error
		r, err = w.recorder.VideoRecord(p)
		return err
	})
	if err != nil && w.state != StateClosed && w.state != StateRunning {
		_ = w.state.Update(StateClosed, w.Adapter.Close)
	}
	return r, err
}
