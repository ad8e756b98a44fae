// Package storage contains object storage abstractions for notice images.
// Implementations stream data and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the requested key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	// Progress, when set, is called as bytes are consumed from the reader.
	Progress ProgressFunc
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	// An existing object under the same key is overwritten.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// URLResolver produces the durable retrieval URL stored on a document.
// Pre-signed URLs expire, so they are never persisted.
type URLResolver struct {
	// BaseURL, when set, yields BaseURL/key for a publicly readable bucket or CDN.
	BaseURL string
	// APIBaseURL prefixes the authenticated /documents/{id}/image route used
	// when the bucket is private. Empty yields a relative URL.
	APIBaseURL string
}

// URL returns the retrieval URL for the document id stored under key.
func (u URLResolver) URL(_ context.Context, id, key string) (string, error) {
	if u.BaseURL != "" {
		return joinURL(u.BaseURL, key)
	}
	if u.APIBaseURL == "" {
		return "/documents/" + url.PathEscape(id) + "/image", nil
	}
	return joinURL(u.APIBaseURL, "documents/"+id+"/image")
}

func joinURL(base, key string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.JoinPath(strings.Split(key, "/")...).String(), nil
}
