// moodcam - live webcam emotion dashboard
// Classifies the dominant facial emotion every few seconds and serves the
// annotated feed, a response message and a rolling history chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-moodcam/internal/config"
)

func main() {
	cfg, savePath, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	if savePath != "" {
		if err := config.Save(savePath, cfg); err != nil {
			log.Fatalf("❌ Saving config failed: %v", err)
		}
		fmt.Printf("💾 Effective config written to %s\n", savePath)
		return
	}

	app, err := New(cfg)
	if err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// loadConfig layers flags over environment over the config file. A
// non-empty savePath asks main to write the result there and exit.
func loadConfig(args []string) (cfg config.Config, savePath string, err error) {
	fs := flag.NewFlagSet("moodcam", flag.ContinueOnError)

	configPath := fs.String("config", "", "TOML config file (default ~/.moodcam/config.toml if present)")
	addr := fs.String("addr", "", "Dashboard listen address (default :8501)")
	device := fs.String("device", "", "Camera device index or stream URL (default 0)")
	interval := fs.Duration("interval", 0, "Minimum time between emotion analyses (default 2s)")
	backends := fs.String("classifier", "", "Classifier backends in fallback order: deepface, ferplus, remote")
	deepfaceURL := fs.String("deepface-url", "", "DeepFace API base URL")
	remoteURL := fs.String("remote-url", "", "Remote detector websocket URL")
	autostart := fs.Bool("autostart", false, "Start the camera immediately")
	debug := fs.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := fs.Bool("debug-frames", false, "Log every captured frame (very verbose)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	saveConfig := fs.String("save-config", "", "Write the effective config to this TOML file and exit")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, "", err
	}

	cfg, err = config.Load(*configPath)
	if err != nil {
		return cfg, "", err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, "", err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["addr"] {
		cfg.Server.Addr = *addr
	}
	if set["device"] {
		cfg.Camera.Device = *device
	}
	if set["interval"] {
		cfg.Capture.Interval = config.Duration{Duration: *interval}
	}
	if set["classifier"] {
		cfg.Classifier.Backends = config.SplitList(*backends)
	}
	if set["deepface-url"] {
		cfg.Classifier.DeepFaceURL = *deepfaceURL
	}
	if set["remote-url"] {
		cfg.Classifier.RemoteURL = *remoteURL
	}
	if set["autostart"] {
		cfg.Capture.Autostart = *autostart
	}
	if set["debug"] {
		cfg.Log.Debug = *debug
	}
	if set["debug-frames"] {
		cfg.Log.Frames = *debugFrames
	}
	if set["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if cfg.Log.Debug && !set["log-level"] {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, *saveConfig, nil
}

func printBanner(cfg config.Config) {
	fmt.Println("😊 moodcam - Emotion Analytics Dashboard")
	fmt.Printf("📷 Camera: device %s (%dx%d @ %dfps)\n",
		cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.Framerate)
	fmt.Printf("🧠 Classifier: %v, every %s\n", cfg.Classifier.Backends, cfg.Capture.Interval.Round(time.Millisecond))
	fmt.Printf("🌐 Web dashboard: http://localhost%s\n", cfg.Server.Addr)
}
