package repository

import (
	"context"

	"github.com/PracticalMetal/major-notice/internal/model"
)

// UserRepository persists users/{uid} and the organization member copies.
type UserRepository interface {
	// Create stores u and its member record, creating the organization when it
	// does not exist yet. The first member of a new organization becomes admin,
	// later joiners become members; the returned user carries the assigned role.
	// ErrConflict when the email is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	FindByID(ctx context.Context, uid string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile changes the names on both the user and the member record.
	UpdateProfile(ctx context.Context, uid, firstName, lastName string) (*model.User, error)

	UpdatePassword(ctx context.Context, uid, passwordHash string) error

	// ListMembers returns the organization's members, admins first, then by join order.
	ListMembers(ctx context.Context, org string) ([]model.Member, error)
}
