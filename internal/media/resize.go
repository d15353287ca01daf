package media

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	maxEdge   = 1600
	thumbEdge = 320
)

// Processed holds the resized renditions of one uploaded image.
type Processed struct {
	Full  []byte
	Thumb []byte
}

// Process decodes an uploaded image, caps it at maxEdge on its longer side,
// renders a square thumbnail, and re-encodes both as JPEG.
func Process(r io.Reader) (*Processed, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	full := img
	if b := img.Bounds(); b.Dx() > maxEdge || b.Dy() > maxEdge {
		full = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}
	thumb := imaging.Fill(img, thumbEdge, thumbEdge, imaging.Center, imaging.Lanczos)

	var fullBuf, thumbBuf bytes.Buffer
	if err := imaging.Encode(&fullBuf, full, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Processed{Full: fullBuf.Bytes(), Thumb: thumbBuf.Bytes()}, nil
}

// ValidImageType reports whether the upload content type is one we resize.
func ValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif":
		return true
	default:
		return false
	}
}
