package repository

import (
	"context"

	"github.com/PracticalMetal/major-notice/internal/model"
)

// DocumentRepository persists notice records of one organization.
// Records live under images/{id} with a duplicate in the month bucket {monthIndex}/{id}.
type DocumentRepository interface {
	// Commit atomically stores doc under images/{id}, stores its month bucket
	// duplicate and increments the organization's imageCount.
	// It returns the new imageCount, or ErrNotFound when the organization is missing.
	Commit(ctx context.Context, doc *model.Document) (int64, error)

	// FindByID returns one document with Priority resolved from the selection pointer.
	FindByID(ctx context.Context, org, id string) (*model.Document, error)

	// List returns documents ordered by event date (newest first, undated last).
	List(ctx context.Context, org string, pq PageQuery) (*PageResult[model.Document], error)

	// Count returns the number of documents under images.
	Count(ctx context.Context, org string) (int, error)

	// CountMonth returns the number of documents in the month bucket.
	CountMonth(ctx context.Context, org string, monthIndex int) (int, error)

	// CountByStoragePath returns how many documents of any organization
	// reference the blob key. Keys are shared across organizations.
	CountByStoragePath(ctx context.Context, storagePath string) (int, error)

	// Select points the organization's selection at id. ErrNotFound if id is absent.
	Select(ctx context.Context, org, id string) error

	// Delete removes images/{id} and its month bucket duplicate, clearing the
	// selection if it pointed at id. ErrNotFound if id is absent.
	Delete(ctx context.Context, org, id string) error
}

// OrganizationRepository reads organization roots.
type OrganizationRepository interface {
	Get(ctx context.Context, name string) (*model.Organization, error)
}
