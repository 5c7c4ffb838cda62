package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/teslashibe/go-moodcam/pkg/emotion"
)

func TestCaption(t *testing.T) {
	tests := []struct {
		label emotion.Label
		conf  int
		want  string
	}{
		{emotion.Happy, 80, "HAPPY (80%)"},
		{emotion.Neutral, 0, "NEUTRAL (0%)"},
		{emotion.Surprise, 100, "SURPRISE (100%)"},
	}

	for _, tc := range tests {
		if got := Caption(tc.label, tc.conf); got != tc.want {
			t.Errorf("Caption(%s, %d) = %q, want %q", tc.label, tc.conf, got, tc.want)
		}
	}
}

func grayFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{40, 40, 40, 255})
		}
	}
	return img
}

func TestAnnotateDrawsMagentaNearOrigin(t *testing.T) {
	src := grayFrame(320, 240)
	out := Annotate(src, "HAPPY (80%)")

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}

	magenta := 0
	outside := 0
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if out.RGBAAt(x, y) != Magenta {
				continue
			}
			if x >= Origin.X && y < Origin.Y+10 && y >= Origin.Y-30 {
				magenta++
			} else {
				outside++
			}
		}
	}
	if magenta == 0 {
		t.Error("no caption pixels drawn near the origin")
	}
	if outside != 0 {
		t.Errorf("%d caption pixels drawn away from the origin", outside)
	}

	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if src.RGBAAt(x, y) == Magenta {
				t.Fatal("Annotate modified its input")
			}
		}
	}
}

func TestAnnotateNonZeroOrigin(t *testing.T) {
	sub := grayFrame(200, 200).SubImage(image.Rect(50, 50, 150, 150))
	out := Annotate(sub, "")
	if out.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Errorf("bounds = %v", out.Bounds())
	}
	if out.RGBAAt(0, 0) != (color.RGBA{40, 40, 40, 255}) {
		t.Errorf("pixel = %v", out.RGBAAt(0, 0))
	}
}

func TestRender(t *testing.T) {
	data, err := Render(grayFrame(160, 120), emotion.Sad, 55, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Errorf("size = %v", img.Bounds())
	}
}
