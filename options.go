package webcam

import (
	"github.com/pion/logging"
	"github.com/pion/webcam/pkg/codec"
)

// Config holds the settings of a Webcam.
type Config struct {
	// Width and Height are the display size in pixels.
	Width, Height int
	// VideoConstraints is the template of every stream request. When nil,
	// environment-facing cameras are preferred.
	VideoConstraints *MediaTrackConstraints
	// AllowCameraSwitch is reported to the shell through CanSwitchCamera.
	AllowCameraSwitch bool
	Mirror            MirrorMode
	// CaptureImageData makes snapshots carry their raw pixels.
	CaptureImageData bool
	ImageType        string
	ImageQuality     float64
	// MediaDevices is the capture platform. nil means capture is not
	// supported at all.
	MediaDevices  MediaDevices
	LoggerFactory logging.LoggerFactory
}

func defaultConfig() Config {
	return Config{
		Width:             640,
		Height:            480,
		AllowCameraSwitch: true,
		Mirror:            MirrorAuto,
		ImageType:         codec.MimeTypeJPEG,
		ImageQuality:      DefaultImageQuality,
		MediaDevices:      NewMediaDevices(),
		LoggerFactory:     loggerFactory(),
	}
}

// Option configures a Webcam.
type Option func(*Config)

// WithSize sets the display size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width, c.Height = width, height
	}
}

// WithVideoConstraints sets the constraint template of stream requests.
// The template is copied.
func WithVideoConstraints(constraints MediaTrackConstraints) Option {
	return func(c *Config) {
		c.VideoConstraints = &constraints
	}
}

// WithAllowCameraSwitch sets whether the shell may offer camera switching.
func WithAllowCameraSwitch(allow bool) Option {
	return func(c *Config) {
		c.AllowCameraSwitch = allow
	}
}

// WithMirror sets the mirror mode of the preview.
func WithMirror(mode MirrorMode) Option {
	return func(c *Config) {
		c.Mirror = mode
	}
}

// WithCaptureImageData makes snapshots carry their raw pixels.
func WithCaptureImageData(capture bool) Option {
	return func(c *Config) {
		c.CaptureImageData = capture
	}
}

// WithImageType sets the MIME type snapshots are encoded with.
func WithImageType(mimeType string) Option {
	return func(c *Config) {
		c.ImageType = mimeType
	}
}

// WithImageQuality sets the encoding quality of snapshots, in [0, 1].
func WithImageQuality(quality float64) Option {
	return func(c *Config) {
		c.ImageQuality = quality
	}
}

// WithMediaDevices replaces the capture platform. Passing nil simulates a
// platform without capture support.
func WithMediaDevices(md MediaDevices) Option {
	return func(c *Config) {
		c.MediaDevices = md
	}
}

// WithLoggerFactory sets the factory the webcam creates its loggers from.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(c *Config) {
		c.LoggerFactory = f
	}
}
