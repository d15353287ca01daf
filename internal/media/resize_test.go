package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &buf
}

func TestProcessCapsLargeImages(t *testing.T) {
	src := encodePNG(t, 2400, 1200)

	out, err := Process(src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	full, err := jpeg.Decode(bytes.NewReader(out.Full))
	if err != nil {
		t.Fatalf("decode full: %v", err)
	}
	if b := full.Bounds(); b.Dx() != 1600 || b.Dy() != 800 {
		t.Fatalf("full size: got %dx%d, want 1600x800", b.Dx(), b.Dy())
	}

	thumb, err := jpeg.Decode(bytes.NewReader(out.Thumb))
	if err != nil {
		t.Fatalf("decode thumb: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 320 || b.Dy() != 320 {
		t.Fatalf("thumb size: got %dx%d, want 320x320", b.Dx(), b.Dy())
	}
}

func TestProcessKeepsSmallImages(t *testing.T) {
	src := encodePNG(t, 640, 480)

	out, err := Process(src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	full, err := jpeg.Decode(bytes.NewReader(out.Full))
	if err != nil {
		t.Fatalf("decode full: %v", err)
	}
	if b := full.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("full size: got %dx%d, want 640x480", b.Dx(), b.Dy())
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	if _, err := Process(strings.NewReader("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidImageType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/gif"} {
		if !ValidImageType(ct) {
			t.Errorf("%s should be accepted", ct)
		}
	}
	for _, ct := range []string{"image/webp", "text/html", ""} {
		if ValidImageType(ct) {
			t.Errorf("%s should be rejected", ct)
		}
	}
}
