package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PracticalMetal/major-notice/internal/events"
	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
	"github.com/PracticalMetal/major-notice/internal/storage"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DefaultImageLinkTTL bounds direct download links when no TTL is given.
const DefaultImageLinkTTL = 15 * time.Minute

// ImageLink is a short-lived direct download URL for a document's image.
type ImageLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentService defines the use cases for browsing and curating an organization's notices.
type DocumentService interface {
	// List returns documents ordered by event date (newest first) using limit/offset and a total count.
	List(ctx context.Context, org string, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, org, id string) (*model.Document, error)

	// Select makes id the organization's single priority document.
	Select(ctx context.Context, org, id string) error

	// Delete removes the document record and its month bucket copy. The blob is kept.
	Delete(ctx context.Context, org, id string) error

	// Image streams the stored blob of a document. The caller closes the reader.
	Image(ctx context.Context, org, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// ImageLink pre-signs the document's blob for ttl. Links are handed out, never stored.
	ImageLink(ctx context.Context, org, id string, ttl time.Duration) (*ImageLink, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	events events.Publisher
	log    *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, pub events.Publisher, logger *slog.Logger) DocumentService {
	if pub == nil {
		pub = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{store: store, repo: repo, events: pub, log: logger.With("component", "documents")}
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, org string, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, org, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, org, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, org, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return doc, nil
}

func (s *documentService) Select(ctx context.Context, org, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Select(ctx, org, id); err != nil {
		return mapNotFound(err)
	}
	s.log.Info("document_selected", "org", org, "document_id", id)
	s.events.Publish(events.Event{Type: events.TypeSelected, Organization: org, DocumentID: id})
	return nil
}

// Delete removes the record only; other documents may still point at the same blob key.
func (s *documentService) Delete(ctx context.Context, org, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, org, id); err != nil {
		return mapNotFound(err)
	}
	s.log.Info("document_deleted", "org", org, "document_id", id)
	s.events.Publish(events.Event{Type: events.TypeDeleted, Organization: org, DocumentID: id})
	return nil
}

func (s *documentService) Image(ctx context.Context, org, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	doc, err := s.Get(ctx, org, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("get object: %w", err)
	}
	return rc, info, nil
}

func (s *documentService) ImageLink(ctx context.Context, org, id string, ttl time.Duration) (*ImageLink, error) {
	doc, err := s.Get(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultImageLinkTTL
	}
	issued := time.Now()
	u, err := s.store.PresignGet(ctx, doc.StoragePath, ttl)
	if err != nil {
		return nil, fmt.Errorf("presign object: %w", err)
	}
	return &ImageLink{URL: u, ExpiresAt: issued.Add(ttl).UTC()}, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
