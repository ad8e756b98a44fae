package postgres

import (
	"context"
	"database/sql"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// OrganizationPostgres reads rows of the organizations table.
type OrganizationPostgres struct {
	db *sql.DB
}

func NewOrganizationPostgres(db *sql.DB) *OrganizationPostgres {
	return &OrganizationPostgres{db: db}
}

var _ repository.OrganizationRepository = (*OrganizationPostgres)(nil)

func (r *OrganizationPostgres) Get(ctx context.Context, name string) (*model.Organization, error) {
	const q = `SELECT name, image_count, COALESCE(selected_doc_id, '') FROM organizations WHERE name = $1`
	var o model.Organization
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&o.Name, &o.ImageCount, &o.SelectedDocID); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}
