package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-moodcam/pkg/camera"
	"github.com/teslashibe/go-moodcam/pkg/chart"
	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"github.com/teslashibe/go-moodcam/pkg/monitor"
)

// LabelInfo describes one tracked emotion.
type LabelInfo struct {
	Label    emotion.Label `json:"label"`
	Index    int           `json:"index"`
	Response string        `json:"response"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Labels  []emotion.Label  `json:"labels"`
	Samples []emotion.Sample `json:"samples"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctrl, _ := s.controller()
	if ctrl == nil {
		return errNotBound
	}
	return c.JSON(ctrl.Snapshot())
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	ctrl, base := s.controller()
	if ctrl == nil {
		return errNotBound
	}

	if err := ctrl.Start(base); err != nil {
		if errors.Is(err, monitor.ErrAlreadyRunning) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(ctrl.Snapshot())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	ctrl, _ := s.controller()
	if ctrl == nil {
		return errNotBound
	}
	if err := ctrl.Stop(); err != nil {
		// The loop has stopped; only releasing the device failed.
		s.logger.Warn("camera release failed", "error", err)
	}
	return c.JSON(ctrl.Snapshot())
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	ctrl, _ := s.controller()
	if ctrl == nil {
		return errNotBound
	}
	samples := ctrl.History()
	if samples == nil {
		samples = []emotion.Sample{}
	}
	return c.JSON(HistoryResponse{
		Labels:  emotion.Labels(),
		Samples: samples,
	})
}

func (s *Server) handleChart(c *fiber.Ctx) error {
	ctrl, _ := s.controller()
	if ctrl == nil {
		return errNotBound
	}

	w := c.QueryInt("w", chart.DefaultWidth)
	h := c.QueryInt("h", chart.DefaultHeight)
	if w < 100 || w > 2000 || h < 80 || h > 1200 {
		return fiber.NewError(fiber.StatusBadRequest, "chart size out of range")
	}

	png, err := chart.RenderHistory(ctrl.History(), w, h)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(png)
}

func (s *Server) handleLabels(c *fiber.Ctx) error {
	labels := emotion.Labels()
	out := make([]LabelInfo, len(labels))
	for i, l := range labels {
		out[i] = LabelInfo{Label: l, Index: i, Response: emotion.Response(l)}
	}
	return c.JSON(out)
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	ctrl, _ := s.controller()
	if ctrl == nil {
		return errNotBound
	}
	jpeg, ok := ctrl.LatestFrame()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no frame captured yet")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("jpg")
	return c.Send(jpeg)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.cameras.GetConfig())
}

func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	var patch camera.Patch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	cfg, err := s.cameras.Update(patch)
	if err != nil {
		if errors.Is(err, camera.ErrInvalidConfig) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	restart := false
	if ctrl, _ := s.controller(); ctrl != nil {
		restart = ctrl.Snapshot().Running
	}
	s.logger.Info("camera config updated", "restart_required", restart)

	return c.JSON(fiber.Map{
		"config":           cfg,
		"restart_required": restart,
	})
}

func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.Presets(),
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}

	if ctrl, _ := s.controller(); ctrl != nil {
		resp["capture"] = ctrl.Snapshot().State
	}

	if s.clf != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.Timeout)
		defer cancel()

		resp["classifier"] = s.clf.Name()
		if err := s.clf.Health(ctx); err != nil {
			resp["status"] = "degraded"
			resp["classifier_error"] = err.Error()
		}
	}
	return c.JSON(resp)
}
