// Package chart renders the emotion history as a PNG line chart.
package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default output size in pixels.
const (
	DefaultWidth  = 640
	DefaultHeight = 320
)

// Title is drawn above the chart.
const Title = "Emotion History"

var lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// pixels converts a pixel count to a plot length at the PNG canvas DPI.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / vg.Length(vgimg.DefaultDPI)
}

// RenderHistory draws samples (oldest first) as a line with markers.
// The y axis is nominal over the five labels in fixed order, so an empty
// history still renders a labelled chart.
func RenderHistory(samples []emotion.Sample, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Emotion"

	labels := emotion.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	p.NominalY(names...)
	p.Add(plotter.NewGrid())

	if len(samples) > 0 {
		pts := make(plotter.XYs, len(samples))
		for i, s := range samples {
			pts[i].X = float64(i)
			pts[i].Y = float64(s.Index)
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("chart: build line: %w", err)
		}
		line.Color = lineColor
		line.Width = vg.Points(1.5)
		points.Shape = draw.CircleGlyph{}
		points.Color = lineColor
		points.Radius = vg.Points(3)
		p.Add(line, points)
	}

	// Fixed ranges keep every label visible whatever was recorded.
	p.Y.Min = -0.5
	p.Y.Max = float64(len(labels)) - 0.5
	p.X.Min = 0
	p.X.Max = float64(max(len(samples)-1, 1))

	wt, err := p.WriterTo(pixels(width), pixels(height), "png")
	if err != nil {
		return nil, fmt.Errorf("chart: create canvas: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
