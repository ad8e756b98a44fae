package postgres

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PracticalMetal/major-notice/internal/config"
	"github.com/PracticalMetal/major-notice/internal/database"
	"github.com/PracticalMetal/major-notice/internal/database/migration"
	"github.com/PracticalMetal/major-notice/internal/logging"
	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

const integrationPort = 55432

// startEmbedded boots a throwaway PostgreSQL and returns a migrated connection.
func startEmbedded(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("NOTICE_PG_INTEGRATION") != "1" {
		t.Skip("set NOTICE_PG_INTEGRATION=1 to run against an embedded PostgreSQL")
	}

	dir := t.TempDir()
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(integrationPort).
		Database("notice").
		Username("notice").
		Password("notice").
		RuntimePath(filepath.Join(dir, "runtime")).
		DataPath(filepath.Join(dir, "data")).
		StartTimeout(45 * time.Second))
	require.NoError(t, pg.Start())
	t.Cleanup(func() { _ = pg.Stop() })

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, config.DatabaseConfig{
		Host:     "localhost",
		Port:     strconv.Itoa(integrationPort),
		User:     "notice",
		Password: "notice",
		Name:     "notice",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.EnsureMigrated(ctx, db, logging.Discard(), "localhost"))
	return db
}

func TestPostgresIntegration(t *testing.T) {
	db := startEmbedded(t)
	ctx := context.Background()

	users := NewUserPostgres(db)
	docs := NewDocumentPostgres(db)
	orgs := NewOrganizationPostgres(db)

	admin, err := users.Create(ctx, &model.User{UID: "u-1", FirstName: "Ada", Email: "ada@acme.test", Organization: "Acme", JoinedOn: "01-03-2024", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	member, err := users.Create(ctx, &model.User{UID: "u-2", FirstName: "Charles", Email: "cb@acme.test", Organization: "Acme", JoinedOn: "02-03-2024", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, member.Role)

	_, err = users.Create(ctx, &model.User{UID: "u-3", FirstName: "Dup", Email: "ADA@acme.test", Organization: "Acme", JoinedOn: "02-03-2024", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	members, err := users.ListMembers(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "u-1", members[0].UID)

	ids := []string{"D1", "D2", "D3"}
	for i, id := range ids {
		count, err := docs.Commit(ctx, &model.Document{
			ID: id, Organization: "Acme", ImageURL: "http://blob/images/" + id, StoragePath: "images/" + id,
			UploaderUID: "u-1", DateOfUpload: "05-03-2024", EventDate: "1" + strconv.Itoa(i) + "/03/2024",
			MonthIndex: 2, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count)
	}

	_, err = users.Create(ctx, &model.User{UID: "u-9", FirstName: "Grace", Email: "grace@other.test", Organization: "Other", JoinedOn: "02-03-2024", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = docs.Commit(ctx, &model.Document{
		ID: "O1", Organization: "Other", StoragePath: "images/D1", UploaderUID: "u-9",
		DateOfUpload: "05-03-2024", MonthIndex: 2, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	shared, err := docs.CountByStoragePath(ctx, "images/D1")
	require.NoError(t, err)
	assert.Equal(t, 2, shared, "blob keys are counted across organizations")

	require.NoError(t, docs.Select(ctx, "Acme", "D2"))
	page, err := docs.List(ctx, "Acme", repository.PageQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "D3", page.Items[0].ID)
	for _, d := range page.Items {
		assert.Equal(t, d.ID == "D2", d.Priority, d.ID)
	}

	require.NoError(t, docs.Delete(ctx, "Acme", "D2"))
	n, err := docs.CountMonth(ctx, "Acme", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	org, err := orgs.Get(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(3), org.ImageCount)
	assert.Empty(t, org.SelectedDocID)

	assert.ErrorIs(t, docs.Delete(ctx, "Acme", "D2"), repository.ErrNotFound)
	assert.ErrorIs(t, docs.Select(ctx, "Acme", "D2"), repository.ErrNotFound)
}
