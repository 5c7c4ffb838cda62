// Package overlay draws the detected emotion onto camera frames.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Magenta is the caption color.
var Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// Origin is the caption's baseline-left position in the frame.
var Origin = image.Pt(20, 40)

// Scale enlarges the 7x13 bitmap font so the caption stays readable at 640x480.
const Scale = 2

// Caption formats a label and confidence as "HAPPY (80%)".
func Caption(l emotion.Label, confidence int) string {
	return fmt.Sprintf("%s (%d%%)", l.Upper(), confidence)
}

// Annotate returns an RGBA copy of img with text drawn at Origin.
// The source image is not modified.
func Annotate(img image.Image, text string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	if text == "" {
		return out
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := metrics.Height.Ceil()
	width := font.MeasureString(face, text).Ceil()

	// Render at native size, then scale up onto the frame.
	glyphs := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(Magenta),
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text)

	dst := image.Rect(
		Origin.X,
		Origin.Y-ascent*Scale,
		Origin.X+width*Scale,
		Origin.Y+(height-ascent)*Scale,
	)
	draw.NearestNeighbor.Scale(out, dst, glyphs, glyphs.Bounds(), draw.Over, nil)
	return out
}

// EncodeJPEG encodes img at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("overlay: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Render annotates a frame with the caption and encodes it.
func Render(img image.Image, l emotion.Label, confidence, quality int) ([]byte, error) {
	return EncodeJPEG(Annotate(img, Caption(l, confidence)), quality)
}
