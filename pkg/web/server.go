// Package web serves the emotion dashboard: a fiber app with a JSON API
// and two websocket feeds, camera frames and status snapshots.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"github.com/teslashibe/go-moodcam/pkg/hub"
	"github.com/teslashibe/go-moodcam/pkg/monitor"
)

//go:embed static/index.html
var indexHTML []byte

// Controller is the capture loop as seen by the dashboard.
// *monitor.Monitor implements it.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Snapshot() monitor.Snapshot
	History() []emotion.Sample
	LatestFrame() ([]byte, bool)
}

// Config holds server settings.
type Config struct {
	Addr      string        // Listen address, e.g. ":8501"
	AccessLog bool          // Log every request
	Logger    *slog.Logger  // Defaults to slog.Default()
	Timeout   time.Duration // Health check timeout
}

// Server is the dashboard server. It also implements monitor.Publisher.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	cameras *camera.Manager
	clf     classifier.Classifier

	mu   sync.RWMutex
	ctrl Controller
	base context.Context // Parent context for capture runs

	statusHub *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the dashboard. Bind a controller before serving.
func NewServer(cfg Config, cameras *camera.Manager, clf classifier.Classifier) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cameras == nil {
		cameras = camera.NewManager(camera.DefaultConfig())
	}

	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "web"),
		cameras:   cameras,
		clf:       clf,
		base:      context.Background(),
		statusHub: hub.New("status", true, cfg.Logger),
		cameraHub: hub.New("camera", true, cfg.Logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Emotion Analytics Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)
	app.Get("/healthz", s.handleHealth)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/capture/start", s.handleStart)
	api.Post("/capture/stop", s.handleStop)
	api.Get("/history", s.handleHistory)
	api.Get("/history/chart.png", s.handleChart)
	api.Get("/labels", s.handleLabels)
	api.Get("/frame.jpg", s.handleFrame)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handlePresets)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Bind attaches the capture loop and seeds the status feed with its
// current snapshot.
func (s *Server) Bind(ctrl Controller) {
	s.mu.Lock()
	s.ctrl = ctrl
	s.mu.Unlock()

	s.PublishStatus(ctrl.Snapshot())
}

func (s *Server) controller() (Controller, context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl, s.base
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until Shutdown. Capture runs started
// from the dashboard live under ctx.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("dashboard listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops accepting requests and closes open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// PublishFrame sends an annotated JPEG to camera viewers.
func (s *Server) PublishFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// PublishStatus sends a snapshot to status viewers.
func (s *Server) PublishStatus(snap monitor.Snapshot) {
	if err := s.statusHub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("encode status", "error", err)
	}
}

// handleError renders errors as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, c)
	if client == nil {
		return
	}
	client.Run()
}

// handleStatusWS relies on the status hub's replay: a new viewer gets the
// latest snapshot under the hub lock, so no publish is missed in between.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		return
	}
	client.Run()
}

var _ monitor.Publisher = (*Server)(nil)

var errNotBound = fiber.NewError(fiber.StatusServiceUnavailable, "capture loop not attached")
