package main

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-moodcam/internal/config"
	"github.com/teslashibe/go-moodcam/pkg/classifier"
	"github.com/teslashibe/go-moodcam/pkg/classifier/ferplus"
)

// newClassifier builds the configured backend, or a fallback chain when
// several are listed.
func newClassifier(cfg config.ClassifierConfig, logger *slog.Logger) (classifier.Classifier, error) {
	opts := []classifier.Option{
		classifier.WithDetectorBackend(cfg.DetectorBackend),
		classifier.WithEnforceDetection(cfg.EnforceDetection),
		classifier.WithQuality(cfg.Quality),
		classifier.WithTimeout(cfg.Timeout.Duration),
		classifier.WithLogger(logger),
	}

	var backends []classifier.Classifier
	closeAll := func() {
		for _, b := range backends {
			b.Close()
		}
	}

	for _, name := range cfg.Backends {
		var (
			b   classifier.Classifier
			err error
		)
		switch name {
		case config.BackendDeepFace:
			b, err = classifier.NewDeepFace(append(opts, classifier.WithBaseURL(cfg.DeepFaceURL))...)
		case config.BackendRemote:
			b, err = classifier.NewRemote(append(opts, classifier.WithBaseURL(cfg.RemoteURL))...)
		case config.BackendFERPlus:
			b, err = ferplus.New(ferplus.Config{
				ModelPath:     cfg.FERPlusModel,
				FaceModelPath: cfg.FaceModel,
				Logger:        logger,
			})
		default:
			err = fmt.Errorf("unknown classifier backend %q", name)
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		backends = append(backends, b)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return classifier.NewChainWithLogger(logger, backends...)
}
