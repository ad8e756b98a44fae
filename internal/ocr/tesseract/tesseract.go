// Package tesseract is the gosseract-backed OCR engine. It needs libtesseract at build time.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/PracticalMetal/major-notice/internal/ocr"
)

// Engine runs Tesseract through gosseract. A fresh client is used per call
// because gosseract clients are not safe for concurrent use.
type Engine struct {
	timeout time.Duration
}

// New returns an Engine that aborts recognition after timeout (zero disables it).
func New(timeout time.Duration) *Engine {
	return &Engine{timeout: timeout}
}

type result struct {
	text string
	err  error
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, img []byte, lang string) (string, error) {
	if len(img) == 0 {
		return "", ocr.ErrEmptyImage
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if lang != "" {
			if err := client.SetLanguage(lang); err != nil {
				done <- result{err: fmt.Errorf("set language: %w", err)}
				return
			}
		}
		if err := client.SetImageFromBytes(img); err != nil {
			done <- result{err: fmt.Errorf("set image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- result{err: fmt.Errorf("tesseract: %w", err)}
			return
		}
		done <- result{text: strings.ReplaceAll(text, "\r\n", "\n")}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

var _ ocr.Engine = (*Engine)(nil)
