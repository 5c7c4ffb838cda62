package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-moodcam/internal/config"
	mlog "github.com/teslashibe/go-moodcam/internal/log"
	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/camera/webcam"
	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/debug"
	"github.com/teslashibe/go-moodcam/pkg/monitor"
	"github.com/teslashibe/go-moodcam/pkg/web"
)

// App wires the camera, classifier, capture loop and dashboard.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	cameras *camera.Manager
	clf     classifier.Classifier
	mon     *monitor.Monitor
	server  *web.Server
}

// New builds every component without touching the camera.
func New(cfg config.Config) (*App, error) {
	mlog.Init(cfg.Log.Level)
	debug.Configure(cfg.Log.Debug, cfg.Log.Frames)
	logger := mlog.L()

	clf, err := newClassifier(cfg.Classifier, mlog.Component("classifier"))
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	cameras := camera.NewManager(cfg.Camera)
	cameras.OnChange(func(c camera.Config) {
		logger.Info("camera config changed",
			"device", c.Device, "width", c.Width, "height", c.Height, "fps", c.Framerate)
	})
	server := web.NewServer(web.Config{
		Addr:      cfg.Server.Addr,
		AccessLog: cfg.Server.AccessLog || cfg.Log.Debug,
		Logger:    mlog.Component("web"),
	}, cameras, clf)

	mon := monitor.New(webcam.Open, clf,
		monitor.WithInterval(cfg.Capture.Interval.Duration),
		monitor.WithFramePeriod(cfg.Capture.FramePeriod.Duration),
		monitor.WithHistorySize(cfg.Capture.HistorySize),
		monitor.WithCameraConfig(cameras.GetConfig),
		monitor.WithPublisher(server),
		monitor.WithLogger(mlog.Component("monitor")),
	)
	server.Bind(mon)

	return &App{
		cfg:     cfg,
		logger:  logger,
		cameras: cameras,
		clf:     clf,
		mon:     mon,
		server:  server,
	}, nil
}

// Run serves the dashboard until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	printBanner(a.cfg)

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.clf.Health(checkCtx); err != nil {
		fmt.Printf("⚠️  Classifier %s not reachable yet: %v\n", a.clf.Name(), err)
	} else {
		fmt.Printf("✅ Classifier %s ready\n", a.clf.Name())
	}
	cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Start(ctx) }()

	if a.cfg.Capture.Autostart {
		if err := a.mon.Start(ctx); err != nil {
			fmt.Printf("⚠️  Camera autostart failed: %v\n", err)
		} else {
			fmt.Println("📷 Camera started")
		}
	}

	select {
	case <-ctx.Done():
		fmt.Println("\n👋 Shutting down...")
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}
}

// Shutdown stops capture and releases every resource.
func (a *App) Shutdown() {
	if err := a.mon.Stop(); err != nil {
		a.logger.Warn("camera release failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("web shutdown failed", "error", err)
	}

	if err := a.clf.Close(); err != nil {
		a.logger.Warn("classifier close failed", "error", err)
	}
	fmt.Println("✅ Stopped")
}
