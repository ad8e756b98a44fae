package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGCS accepts uploads on the JSON API and counts the ones whose body
// arrived complete.
type fakeGCS struct {
	finalized atomic.Int32
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/notices/o") {
		http.NotFound(w, r)
		return
	}
	if _, err := io.ReadAll(r.Body); err != nil {
		return
	}
	f.finalized.Add(1)
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"bucket":"notices","name":"images/A.png","size":"11","contentType":"image/png","etag":"e1"}`)
}

func newFakeGCSStorage(t *testing.T, h http.Handler) *gcsStorage {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", srv.URL)

	client, err := gcs.NewClient(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return &gcsStorage{client: client, bucket: client.Bucket("notices")}
}

// failingReader yields its payload once and then fails.
type failingReader struct {
	payload string
	done    bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("client went away")
	}
	r.done = true
	return copy(p, r.payload), nil
}

func TestGCSPut(t *testing.T) {
	fake := &fakeGCS{}
	g := newFakeGCSStorage(t, fake)

	info, err := g.Put(context.Background(), "images/A.png", strings.NewReader("png-payload"), PutObjectOptions{
		Size:        11,
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "images/A.png", info.Key)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "e1", info.ETag)
	assert.Equal(t, int32(1), fake.finalized.Load())
}

func TestGCSPutReadFailureDoesNotFinalize(t *testing.T) {
	fake := &fakeGCS{}
	g := newFakeGCSStorage(t, fake)

	_, err := g.Put(context.Background(), "images/A.png", &failingReader{payload: "partial"}, PutObjectOptions{
		Size:        -1,
		ContentType: "image/png",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client went away")
	assert.Equal(t, int32(0), fake.finalized.Load())
}
