package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webcam"
	"github.com/pion/webcam/pkg/driver"
	"github.com/pion/webcam/pkg/driver/videotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...webcam.Option) (*server, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := driver.NewManager()
	for _, label := range []string{"front", "back"} {
		require.NoError(t, m.Register(videotest.New(320, 240), driver.Info{Label: label, DeviceType: driver.Camera}))
	}
	opts = append([]webcam.Option{webcam.WithMediaDevices(webcam.NewMediaDevices(webcam.WithDriverManager(m)))}, opts...)
	cam := webcam.New(opts...)
	t.Cleanup(func() { _ = cam.Close() })

	s := &server{cam: cam, switchCh: make(chan webcam.SwitchRequest)}
	cam.SetSwitchCamera(s.switchCh)
	return s, s.routes()
}

func post(h http.Handler, target string) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
	return rec.Code
}

func TestSwitchRecoversFromFailedSwitch(t *testing.T) {
	s, h := newTestServer(t)
	require.NoError(t, s.cam.Start(context.Background()))
	require.True(t, s.cam.Initialized())
	devices := s.cam.Devices()
	require.Len(t, devices, 2)

	assert.Equal(t, http.StatusAccepted, post(h, "/switch?device=bogus"))
	require.Eventually(t, func() bool { return !s.cam.Initialized() }, time.Second, 5*time.Millisecond)
	assert.False(t, s.cam.CanSwitchCamera())

	assert.Equal(t, http.StatusAccepted, post(h, "/switch?device="+devices[1].ID))
	require.Eventually(t, s.cam.Initialized, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.cam.ActiveDeviceIndex())
}

func TestSwitchDisabled(t *testing.T) {
	s, h := newTestServer(t, webcam.WithAllowCameraSwitch(false))
	require.NoError(t, s.cam.Start(context.Background()))
	assert.Equal(t, http.StatusConflict, post(h, "/switch"))
}
