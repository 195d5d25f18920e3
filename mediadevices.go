package webcam

import (
	"context"
	"fmt"
	"math"

	"github.com/pion/webcam/internal/logging"
	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/io/video"
	"github.com/pion/webcam/pkg/prop"
)

var (
	logger        = logging.NewLogger("webcam")
	loggerFactory = logging.Factory
)

// MediaDevices is an interface that's defined on https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices
type MediaDevices interface {
	// EnumerateDevices lists the capture devices currently known to the
	// platform, in a stable order.
	EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error)
	// GetUserMedia acquires a stream satisfying constraints.
	GetUserMedia(ctx context.Context, constraints MediaStreamConstraints) (MediaStream, error)
}

// NewMediaDevices creates MediaDevices interface that provides access to the
// capture devices registered with a driver manager.
func NewMediaDevices(opts ...MediaDevicesOption) MediaDevices {
	mdo := MediaDevicesOptions{
		manager: driver.GetManager(),
	}
	for _, o := range opts {
		o(&mdo)
	}
	return &mediaDevices{
		MediaDevicesOptions: mdo,
	}
}

type mediaDevices struct {
	MediaDevicesOptions
}

// MediaDevicesOptions stores parameters used by MediaDevices.
type MediaDevicesOptions struct {
	manager        *driver.Manager
	videoTransform video.TransformFunc
}

// MediaDevicesOption is a type of MediaDevices functional option.
type MediaDevicesOption func(*MediaDevicesOptions)

// WithDriverManager makes MediaDevices use m instead of the default manager.
func WithDriverManager(m *driver.Manager) MediaDevicesOption {
	return func(o *MediaDevicesOptions) {
		o.manager = m
	}
}

// WithVideoTransformers will be used to transform the video that's coming from the driver.
// So, basically it'll look like following: driver -> VideoTransform -> track
func WithVideoTransformers(transformFuncs ...video.TransformFunc) MediaDevicesOption {
	return func(o *MediaDevicesOptions) {
		o.videoTransform = video.Merge(transformFuncs...)
	}
}

// GetUserMedia prompts the user for permission to use a media input which produces a MediaStream
// with tracks containing the requested types of media.
// Reference: https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices/getUserMedia
func (m *mediaDevices) GetUserMedia(ctx context.Context, constraints MediaStreamConstraints) (MediaStream, error) {
	if constraints.Video == nil {
		return nil, ErrNoVideoRequested
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := m.selectVideo(*constraints.Video)
	if err != nil {
		return nil, err
	}

	// The caller may have given up while the device was starting.
	if err := ctx.Err(); err != nil {
		t.Stop()
		return nil, err
	}
	return NewMediaStream(t), nil
}

type driverProperties struct {
	d     driver.Driver
	props []prop.Media
}

func (m *mediaDevices) queryDriverProperties(filter driver.FilterFn) []driverProperties {
	var needToClose []driver.Driver
	drivers := m.manager.Query(filter)
	results := make([]driverProperties, 0, len(drivers))

	for _, d := range drivers {
		if d.Status() == driver.StateClosed {
			err := d.Open()
			if err != nil {
				// Skip this driver if we failed to open because we can't get the properties
				logger.Debugf("skipping driver %s: %v", d.ID(), err)
				continue
			}
			needToClose = append(needToClose, d)
		}

		info := d.Info()
		props := d.Properties()
		for i := range props {
			props[i].DeviceID = d.ID()
			props[i].FacingMode = info.FacingMode
		}
		results = append(results, driverProperties{d: d, props: props})
	}

	for _, d := range needToClose {
		// Since it was closed, we should close it to avoid a leak
		_ = d.Close()
	}

	return results
}

// selectBestDriver implements SelectSettings algorithm.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-selectsettings
func (m *mediaDevices) selectBestDriver(filter driver.FilterFn, constraints MediaTrackConstraints) (driver.Driver, prop.Media, error) {
	var bestDriver driver.Driver
	var bestProp prop.Media
	minFitnessDist := math.Inf(1)

	for _, dp := range m.queryDriverProperties(filter) {
		priority := float64(dp.d.Info().Priority)
		for _, p := range dp.props {
			fitnessDist, ok := constraints.FitnessDistance(p)
			if !ok {
				continue
			}
			fitnessDist -= priority
			if fitnessDist < minFitnessDist {
				minFitnessDist = fitnessDist
				bestDriver = dp.d
				bestProp = p
			}
		}
	}

	if bestDriver == nil {
		return nil, prop.Media{}, ErrNotFound
	}
	return bestDriver, bestProp, nil
}

func (m *mediaDevices) selectVideo(constraints MediaTrackConstraints) (Track, error) {
	filter := driver.FilterVideoRecorder()
	if id, ok := constraints.DeviceID.(prop.StringExact); ok {
		filter = driver.FilterAnd(filter, driver.FilterID(string(id)))
	}

	d, selected, err := m.selectBestDriver(filter, constraints)
	if err != nil {
		return nil, err
	}

	if err := d.Open(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.Info().Label, err)
	}
	recorder, ok := d.(driver.VideoRecorder)
	if !ok {
		_ = d.Close()
		return nil, ErrNotFound
	}
	r, err := recorder.VideoRecord(selected)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	if m.videoTransform != nil {
		r = m.videoTransform(r)
	}

	logger.Debugf("acquired %s with %+v", d.Info().Label, selected.Video)
	return newVideoTrack(d, r, selected, constraints), nil
}

// EnumerateDevices lists every registered video recorder.
func (m *mediaDevices) EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drivers := m.manager.Query(driver.FilterVideoRecorder())
	info := make([]MediaDeviceInfo, 0, len(drivers))
	for _, d := range drivers {
		driverInfo := d.Info()
		info = append(info, MediaDeviceInfo{
			DeviceID:   d.ID(),
			Kind:       VideoInput,
			Label:      driverInfo.Label,
			DeviceType: driverInfo.DeviceType,
			FacingMode: driverInfo.FacingMode,
		})
	}
	return info, nil
}
