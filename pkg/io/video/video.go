// Package video carries decoded frames from capture devices to the surfaces
// that display and snapshot them.
package video

import (
	"errors"
	"image"
)

// Reader produces decoded frames. release must be called once the caller no
// longer needs img, so that the producer can reuse its memory.
type Reader interface {
	Read() (img image.Image, release func(), err error)
}

// ReaderFunc is a proxy type to make easier for users to implement Reader
type ReaderFunc func() (img image.Image, release func(), err error)

// Read implements Reader.
func (rf ReaderFunc) Read() (img image.Image, release func(), err error) {
	img, release, err = rf()
	return
}

// TransformFunc produces a new Reader that will produces a transformed video
type TransformFunc func(r Reader) Reader

// Merge merges transforms and produces a new TransformFunc that will execute
// transforms in order
func Merge(transforms ...TransformFunc) TransformFunc {
	return func(r Reader) Reader {
		for _, transform := range transforms {
			if transform == nil {
				continue
			}

			r = transform(r)
		}

		return r
	}
}

// TemporaryError is a read error after which the same Reader can still
// deliver frames.
type TemporaryError struct {
	Err error
}

// NewTemporaryError wraps err as a TemporaryError.
func NewTemporaryError(err error) *TemporaryError {
	return &TemporaryError{Err: err}
}

func (e *TemporaryError) Error() string {
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

// IsTemporary reports whether err, or an error it wraps, is a TemporaryError.
func IsTemporary(err error) bool {
	var tmp *TemporaryError
	return errors.As(err, &tmp)
}
