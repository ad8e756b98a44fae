package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// images/{id} maps to the documents table and {monthIndex}/{id} to document_month_buckets.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `organization, id, image_url, storage_path, uploader_name, uploader_email,
	uploader_uid, date_of_upload, title, info, event_date, month_index, created_at`

const selectDocument = `
	SELECT d.organization, d.id, d.image_url, d.storage_path, d.uploader_name, d.uploader_email,
	       d.uploader_uid, d.date_of_upload, d.title, d.info, d.event_date, d.month_index, d.created_at,
	       COALESCE(o.selected_doc_id = d.id, false) AS priority
	FROM documents d
	JOIN organizations o ON o.name = d.organization
`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (model.Document, error) {
	var d model.Document
	err := row.Scan(
		&d.Organization,
		&d.ID,
		&d.ImageURL,
		&d.StoragePath,
		&d.UploaderName,
		&d.UploaderEmail,
		&d.UploaderUID,
		&d.DateOfUpload,
		&d.Title,
		&d.Info,
		&d.EventDate,
		&d.MonthIndex,
		&d.CreatedAt,
		&d.Priority,
	)
	return d, err
}

func documentArgs(doc *model.Document) []any {
	return []any{
		doc.Organization,
		doc.ID,
		doc.ImageURL,
		doc.StoragePath,
		doc.UploaderName,
		doc.UploaderEmail,
		doc.UploaderUID,
		doc.DateOfUpload,
		doc.Title,
		doc.Info,
		doc.EventDate,
		doc.MonthIndex,
		doc.CreatedAt,
	}
}

// eventOn is the parsed event date used for ordering, NULL when unparsable.
func eventOn(s string) sql.NullTime {
	t, ok := model.ParseEventDate(s)
	return sql.NullTime{Time: t, Valid: ok}
}

// Commit writes the document and its month bucket copy and bumps image_count in one transaction.
func (r *DocumentPostgres) Commit(ctx context.Context, doc *model.Document) (int64, error) {
	const qCount = `
		UPDATE organizations SET image_count = image_count + 1
		WHERE name = $1
		RETURNING image_count
	`
	const qDoc = `INSERT INTO documents (` + documentColumns + `, event_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	const qBucket = `INSERT INTO document_month_buckets (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var count int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, qCount, doc.Organization).Scan(&count); err != nil {
			return notFound(err)
		}
		args := documentArgs(doc)
		if _, err := tx.ExecContext(ctx, qDoc, append(args, eventOn(doc.EventDate))...); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qBucket, args...); err != nil {
			return fmt.Errorf("insert month bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindByID fetches a single document by organization and id.
func (r *DocumentPostgres) FindByID(ctx context.Context, org, id string) (*model.Document, error) {
	const q = selectDocument + `WHERE d.organization = $1 AND d.id = $2`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, org, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, org string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	total, err := r.Count(ctx, org)
	if err != nil {
		return nil, err
	}

	const qList = selectDocument + `WHERE d.organization = $1
		ORDER BY d.event_on DESC NULLS LAST, length(d.id) DESC, d.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, org, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

func (r *DocumentPostgres) Count(ctx context.Context, org string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE organization = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, org).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *DocumentPostgres) CountMonth(ctx context.Context, org string, monthIndex int) (int, error) {
	const q = `SELECT COUNT(*) FROM document_month_buckets WHERE organization = $1 AND month_index = $2`
	var n int
	if err := r.db.QueryRowContext(ctx, q, org, monthIndex).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *DocumentPostgres) CountByStoragePath(ctx context.Context, storagePath string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE storage_path = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, storagePath).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Select moves the selection pointer in a single statement guarded by the document's existence.
func (r *DocumentPostgres) Select(ctx context.Context, org, id string) error {
	const q = `
		UPDATE organizations SET selected_doc_id = $2
		WHERE name = $1
		  AND EXISTS (SELECT 1 FROM documents WHERE organization = $1 AND id = $2)
	`
	res, err := r.db.ExecContext(ctx, q, org, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the document, its month bucket copy and a selection pointing at it.
func (r *DocumentPostgres) Delete(ctx context.Context, org, id string) error {
	const qDoc = `DELETE FROM documents WHERE organization = $1 AND id = $2 RETURNING month_index`
	const qBucket = `DELETE FROM document_month_buckets WHERE organization = $1 AND month_index = $2 AND id = $3`
	const qSelection = `UPDATE organizations SET selected_doc_id = NULL WHERE name = $1 AND selected_doc_id = $2`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var month int
		if err := tx.QueryRowContext(ctx, qDoc, org, id).Scan(&month); err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, qBucket, org, month, id); err != nil {
			return fmt.Errorf("delete month bucket: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qSelection, org, id); err != nil {
			return fmt.Errorf("clear selection: %w", err)
		}
		return nil
	})
}
