package classifier

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

// Chain tries multiple backends in order until one succeeds.
type Chain struct {
	backends []Classifier
	logger   *slog.Logger
}

// NewChain creates a backend chain.
// At least one backend is required.
func NewChain(backends ...Classifier) (*Chain, error) {
	if len(backends) == 0 {
		return nil, ErrUnavailable
	}
	return &Chain{
		backends: backends,
		logger:   slog.Default().With("component", "classifier.chain"),
	}, nil
}

// NewChainWithLogger creates a backend chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, backends ...Classifier) (*Chain, error) {
	chain, err := NewChain(backends...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "classifier.chain")
	return chain, nil
}

// Classify tries each backend until one succeeds.
// A backend reporting ErrNoFace ends the chain: the next backend would
// be looking at the same empty frame.
func (c *Chain) Classify(ctx context.Context, img image.Image) (emotion.Scores, error) {
	var errs []error

	for i, b := range c.backends {
		scores, err := b.Classify(ctx, img)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback backend succeeded",
					"backend", b.Name(),
					"backend_index", i,
				)
			}
			return scores, nil
		}

		errs = append(errs, err)
		if errors.Is(err, ErrNoFace) {
			break
		}

		c.logger.Warn("backend failed, trying next",
			"backend", b.Name(),
			"backend_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Name joins the backend names.
func (c *Chain) Name() string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return strings.Join(names, ",")
}

// Health succeeds if any backend is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, b := range c.backends {
		err := b.Health(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return &ChainError{Errors: errs}
}

// Close closes every backend and returns the joined errors.
func (c *Chain) Close() error {
	var errs []error
	for _, b := range c.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Classifier = (*Chain)(nil)
