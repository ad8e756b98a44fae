package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	got  []byte
	lang string
}

func (r *recordingEngine) Recognize(_ context.Context, img []byte, lang string) (string, error) {
	r.got = img
	r.lang = lang
	return "Date: 01/01/2024\nNotice", nil
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocess(t *testing.T) {
	src := imaging.New(400, 200, color.NRGBA{R: 200, G: 30, B: 30, A: 255})

	out, err := Preprocess(encodePNG(t, src))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1300, decoded.Bounds().Dy())
	assert.Equal(t, 2600, decoded.Bounds().Dx())

	r, g, b, _ := decoded.At(10, 10).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestPreprocessKeepsLargeImages(t *testing.T) {
	src := imaging.New(500, 1000, color.White)

	out, err := Preprocess(encodePNG(t, src))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1000, decoded.Bounds().Dy())
}

func TestPreprocessErrors(t *testing.T) {
	_, err := Preprocess(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Preprocess([]byte("not an image"))
	assert.Error(t, err)
}

func TestPreprocessingEngine(t *testing.T) {
	next := &recordingEngine{}
	eng := Preprocessing{Next: next}

	raw := encodePNG(t, imaging.New(100, 100, color.White))
	text, err := eng.Recognize(context.Background(), raw, "eng")
	require.NoError(t, err)
	assert.Contains(t, text, "Notice")
	assert.Equal(t, "eng", next.lang)
	assert.NotEqual(t, raw, next.got)

	garbage := []byte("garbage")
	_, err = eng.Recognize(context.Background(), garbage, "eng")
	require.NoError(t, err)
	assert.Equal(t, garbage, next.got)

	_, err = eng.Recognize(context.Background(), nil, "eng")
	assert.ErrorIs(t, err, ErrEmptyImage)
}
