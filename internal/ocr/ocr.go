// Package ocr turns notice images into plain text.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	// Decoders for the formats accepted by the upload endpoint.
	_ "image/gif"
	_ "image/jpeg"
)

// ErrEmptyImage is returned when no image bytes are supplied.
var ErrEmptyImage = errors.New("ocr: empty image")

// Engine recognizes text in an encoded image.
type Engine interface {
	Recognize(ctx context.Context, img []byte, lang string) (string, error)
}

// minHeight below which images are upscaled before recognition.
const minHeight = 900

// Preprocess converts an encoded image into a grayscale, contrast-boosted PNG.
// Small scans are upscaled so Tesseract sees legible glyphs.
func Preprocess(img []byte) ([]byte, error) {
	if len(img) == 0 {
		return nil, ErrEmptyImage
	}
	src, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var out image.Image = imaging.Grayscale(src)
	out = imaging.AdjustContrast(out, 15)
	out = imaging.Sharpen(out, 0.7)
	if out.Bounds().Dy() < minHeight {
		out = imaging.Resize(out, 0, 1300, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Preprocessing wraps an Engine so every image is run through Preprocess first.
// Images that cannot be decoded are passed through unchanged.
type Preprocessing struct {
	Next Engine
}

// Recognize implements Engine.
func (p Preprocessing) Recognize(ctx context.Context, img []byte, lang string) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyImage
	}
	if processed, err := Preprocess(img); err == nil {
		img = processed
	}
	return p.Next.Recognize(ctx, img, lang)
}
