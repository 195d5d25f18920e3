// snapshotd serves a webcam over HTTP. It takes snapshots on request and on
// a schedule, and lets clients switch between the capture devices.
//
//	GET  /devices              known devices and the active one
//	POST /switch?device=<id>   switch to a device
//	POST /switch?rotate=back   rotate to the previous device, "forward" by default
//	GET  /snapshot             take a snapshot and return it
//	GET  /latest               the last snapshot taken, scheduled ones included
//	GET  /stream               MJPEG preview
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webcam"
	"github.com/pion/webcam/internal/logging"
	"github.com/pion/webcam/pkg/prop"
	"github.com/robfig/cron/v3"

	// Note: If you don't have a camera or your adapters are not supported,
	//       you can always swap your adapters with our dummy adapters below.
	// _ "github.com/pion/webcam/pkg/driver/videotest"
	_ "github.com/pion/webcam/pkg/driver/camera" // This is required to register camera adapter
	_ "github.com/pion/webcam/pkg/driver/screen"
)

var log = logging.NewLogger("snapshotd")

type server struct {
	cam      *webcam.Webcam
	switchCh chan webcam.SwitchRequest

	mu     sync.RWMutex
	latest *webcam.CapturedImage
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	width := flag.Int("width", 640, "display width")
	height := flag.Int("height", 480, "display height")
	facing := flag.String("facing", webcam.FacingEnvironment, "preferred facing mode")
	mirror := flag.String("mirror", "auto", "preview mirroring: auto, always or never")
	imageType := flag.String("type", "image/jpeg", "snapshot MIME type")
	quality := flag.Float64("quality", webcam.DefaultImageQuality, "snapshot quality in [0, 1]")
	pixels := flag.Bool("pixels", false, "keep raw pixel data of snapshots")
	noSwitch := flag.Bool("no-switch", false, "disallow camera switching")
	schedule := flag.String("schedule", "", "cron spec of scheduled snapshots, e.g. \"@every 30s\"")
	flag.Parse()

	mirrorMode, err := webcam.ParseMirrorMode(*mirror)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cam := webcam.New(
		webcam.WithSize(*width, *height),
		webcam.WithVideoConstraints(webcam.MediaTrackConstraints{
			MediaConstraints: prop.MediaConstraints{
				FacingMode: prop.String(*facing),
				VideoConstraints: prop.VideoConstraints{
					Width:  prop.Int(*width),
					Height: prop.Int(*height),
				},
			},
		}),
		webcam.WithMirror(mirrorMode),
		webcam.WithImageType(*imageType),
		webcam.WithImageQuality(*quality),
		webcam.WithCaptureImageData(*pixels),
		webcam.WithAllowCameraSwitch(!*noSwitch),
	)
	defer cam.Close()

	s := &server{cam: cam, switchCh: make(chan webcam.SwitchRequest)}
	cam.OnImageCaptured(s.store)
	cam.OnInitError(func(err *webcam.InitError) {
		log.Errorf("webcam: %s", err.Message)
	})
	cam.OnCameraSwitched(func(id string) {
		log.Infof("camera switched to %q", id)
	})
	cam.SetSwitchCamera(s.switchCh)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cam.Start(ctx); err != nil {
		log.Errorf("failed to start: %v", err)
		return
	}

	if *schedule != "" {
		trigger := make(chan struct{})
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := c.AddFunc(*schedule, func() {
			select {
			case trigger <- struct{}{}:
			case <-ctx.Done():
			}
		}); err != nil {
			log.Errorf("invalid schedule %q: %v", *schedule, err)
			return
		}
		cam.SetTrigger(trigger)
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{Addr: *addr, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("server: %v", err)
	}
}

func (s *server) routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/devices", s.devices)
	r.POST("/switch", s.switchCamera)
	r.GET("/snapshot", s.snapshot)
	r.GET("/latest", s.latestSnapshot)
	r.GET("/stream", s.stream)
	return r
}

func (s *server) store(img *webcam.CapturedImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = img
}

type deviceResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	FacingHint string `json:"facingHint,omitempty"`
	Active     bool   `json:"active"`
}

func (s *server) devices(c *gin.Context) {
	active := s.cam.ActiveDeviceIndex()
	devices := s.cam.Devices()
	resp := make([]deviceResponse, 0, len(devices))
	for i, d := range devices {
		resp = append(resp, deviceResponse{ID: d.ID, Label: d.Label, FacingHint: d.FacingHint, Active: i == active})
	}

	c.JSON(http.StatusOK, gin.H{
		"devices":         resp,
		"initialized":     s.cam.Initialized(),
		"mirrored":        s.cam.Mirrored(),
		"canSwitchCamera": s.cam.CanSwitchCamera(),
	})
}

func (s *server) switchCamera(c *gin.Context) {
	// Not CanSwitchCamera: a failed switch leaves the webcam uninitialized
	// and only another switch recovers it.
	if !s.cam.Config().AllowCameraSwitch {
		c.String(http.StatusConflict, "camera switching is disabled")
		return
	}

	req := webcam.Rotate(c.Query("rotate") != "back")
	if id := c.Query("device"); id != "" {
		req = webcam.SwitchToDevice(id)
	}

	select {
	case s.switchCh <- req:
		c.Status(http.StatusAccepted)
	case <-c.Request.Context().Done():
	}
}

func (s *server) snapshot(c *gin.Context) {
	img, err := s.cam.Snapshot(c.Request.Context())
	if err != nil {
		c.String(http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeImage(c, img)
}

func (s *server) latestSnapshot(c *gin.Context) {
	s.mu.RLock()
	img := s.latest
	s.mu.RUnlock()
	if img == nil {
		c.String(http.StatusNotFound, "no snapshot taken yet")
		return
	}
	s.writeImage(c, img)
}

func (s *server) writeImage(c *gin.Context, img *webcam.CapturedImage) {
	b, err := img.Bytes()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, img.MimeType, b)
}

// stream writes the mirrored preview as multipart JPEG.
func (s *server) stream(c *gin.Context) {
	var buf bytes.Buffer
	mimeWriter := multipart.NewWriter(c.Writer)
	c.Header("Content-Type", fmt.Sprintf("multipart/x-mixed-replace;boundary=%s", mimeWriter.Boundary()))

	partHeader := make(textproto.MIMEHeader)
	partHeader.Add("Content-Type", "image/jpeg")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		frame := s.cam.Preview()
		if frame == nil {
			continue
		}
		if err := jpeg.Encode(&buf, frame, nil); err != nil {
			log.Warnf("failed to encode preview: %v", err)
			return
		}
		partWriter, err := mimeWriter.CreatePart(partHeader)
		if err != nil {
			return
		}
		_, err = partWriter.Write(buf.Bytes())
		buf.Reset()
		if err != nil {
			return
		}
		c.Writer.Flush()
	}
}
