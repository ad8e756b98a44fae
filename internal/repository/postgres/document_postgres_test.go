package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

var docCols = []string{
	"organization", "id", "image_url", "storage_path", "uploader_name", "uploader_email",
	"uploader_uid", "date_of_upload", "title", "info", "event_date", "month_index", "created_at", "priority",
}

func sampleDocument() *model.Document {
	return &model.Document{
		ID:            "1790000000000000001",
		Organization:  "Acme",
		ImageURL:      "https://blob.example.com/images/A.png",
		StoragePath:   "images/A.png",
		UploaderName:  "Ada Lovelace",
		UploaderEmail: "ada@acme.test",
		UploaderUID:   "u-1",
		DateOfUpload:  "05-03-2024",
		Title:         "Annual Sports Meet",
		Info:          "Annual Sports Meet will be held on the main ground",
		EventDate:     "12/03/2024",
		MonthIndex:    2,
		CreatedAt:     time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func docRow(d *model.Document, priority bool) []driver.Value {
	return []driver.Value{
		d.Organization, d.ID, d.ImageURL, d.StoragePath, d.UploaderName, d.UploaderEmail,
		d.UploaderUID, d.DateOfUpload, d.Title, d.Info, d.EventDate, d.MonthIndex, d.CreatedAt, priority,
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestDocumentPostgres_Commit(t *testing.T) {
	ctx := context.Background()
	doc := sampleDocument()

	t.Run("writes record, bucket copy and counter atomically", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE organizations SET image_count = image_count \\+ 1").
			WithArgs("Acme").
			WillReturnRows(sqlmock.NewRows([]string{"image_count"}).AddRow(4))
		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.Organization, doc.ID, doc.ImageURL, doc.StoragePath, doc.UploaderName, doc.UploaderEmail,
				doc.UploaderUID, doc.DateOfUpload, doc.Title, doc.Info, doc.EventDate, doc.MonthIndex, doc.CreatedAt,
				sql.NullTime{Time: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), Valid: true}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_month_buckets").
			WithArgs(doc.Organization, doc.ID, doc.ImageURL, doc.StoragePath, doc.UploaderName, doc.UploaderEmail,
				doc.UploaderUID, doc.DateOfUpload, doc.Title, doc.Info, doc.EventDate, doc.MonthIndex, doc.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		count, err := repo.Commit(ctx, doc)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown organization", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE organizations").
			WithArgs("Acme").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Commit(ctx, doc)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bucket insert failure rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE organizations").
			WillReturnRows(sqlmock.NewRows([]string{"image_count"}).AddRow(1))
		mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_month_buckets").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := repo.Commit(ctx, doc)

		assert.ErrorContains(t, err, "insert month bucket: disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	doc := sampleDocument()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d JOIN organizations o (.+) WHERE d.organization = \\$1 AND d.id = \\$2").
			WithArgs("Acme", doc.ID).
			WillReturnRows(sqlmock.NewRows(docCols).AddRow(docRow(doc, true)...))

		got, err := repo.FindByID(ctx, "Acme", doc.ID)

		require.NoError(t, err)
		assert.Equal(t, doc.Title, got.Title)
		assert.Equal(t, 2, got.MonthIndex)
		assert.True(t, got.Priority)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("Acme", "missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "Acme", "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	first := sampleDocument()
	second := sampleDocument()
	second.ID = "1790000000000000002"
	second.EventDate = ""

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE organization = \\$1").
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("ORDER BY d.event_on DESC NULLS LAST").
		WithArgs("Acme", 10, 0).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow(docRow(first, false)...).
			AddRow(docRow(second, true)...))

	res, err := repo.List(ctx, "Acme", repository.PageQuery{Limit: 10, Offset: 0})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.False(t, res.Items[0].Priority)
	assert.True(t, res.Items[1].Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Counts(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("FROM document_month_buckets WHERE organization = \\$1 AND month_index = \\$2").
		WithArgs("Acme", 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("FROM documents WHERE storage_path = \\$1").
		WithArgs("images/A.png").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountMonth(ctx, "Acme", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountByStoragePath(ctx, "images/A.png")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("moves pointer", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectExec("UPDATE organizations SET selected_doc_id = \\$2").
			WithArgs("Acme", "D2").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Select(ctx, "Acme", "D2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectExec("UPDATE organizations SET selected_doc_id").
			WithArgs("Acme", "nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Select(ctx, "Acme", "nope"), repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes record, bucket copy and selection", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("DELETE FROM documents WHERE organization = \\$1 AND id = \\$2 RETURNING month_index").
			WithArgs("Acme", "D1").
			WillReturnRows(sqlmock.NewRows([]string{"month_index"}).AddRow(2))
		mock.ExpectExec("DELETE FROM document_month_buckets").
			WithArgs("Acme", 2, "D1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE organizations SET selected_doc_id = NULL").
			WithArgs("Acme", "D1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		assert.NoError(t, repo.Delete(ctx, "Acme", "D1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("DELETE FROM documents").
			WithArgs("Acme", "nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Delete(ctx, "Acme", "nope"), repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrganizationPostgres_Get(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewOrganizationPostgres(db)

	mock.ExpectQuery("SELECT name, image_count, COALESCE\\(selected_doc_id, ''\\) FROM organizations").
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"name", "image_count", "selected_doc_id"}).AddRow("Acme", 3, "D2"))
	mock.ExpectQuery("FROM organizations").
		WithArgs("Nope").
		WillReturnError(sql.ErrNoRows)

	org, err := repo.Get(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(3), org.ImageCount)
	assert.Equal(t, "D2", org.SelectedDocID)

	_, err = repo.Get(ctx, "Nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
