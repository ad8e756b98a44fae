package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

var userCols = []string{"uid", "first_name", "last_name", "email", "organization", "role", "joined_on", "password_hash"}

func sampleUser() *model.User {
	return &model.User{
		UID:          "u-1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@acme.test",
		Organization: "Acme",
		JoinedOn:     "05-03-2024",
		PasswordHash: "$2a$10$hash",
	}
}

func TestUserPostgres_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		orgInserted int64
		wantRole    string
	}{
		{name: "first member of new organization is admin", orgInserted: 1, wantRole: model.RoleAdmin},
		{name: "joining existing organization is member", orgInserted: 0, wantRole: model.RoleMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewUserPostgres(db)
			u := sampleUser()

			mock.ExpectBegin()
			mock.ExpectExec("INSERT INTO organizations \\(name\\) VALUES \\(\\$1\\) ON CONFLICT \\(name\\) DO NOTHING").
				WithArgs("Acme").
				WillReturnResult(sqlmock.NewResult(0, tt.orgInserted))
			mock.ExpectExec("INSERT INTO users").
				WithArgs(u.UID, u.FirstName, u.LastName, u.Email, u.Organization, tt.wantRole, u.JoinedOn, u.PasswordHash).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec("INSERT INTO organization_members").
				WithArgs(u.Organization, u.UID, u.FirstName, u.LastName, u.Email, tt.wantRole, u.JoinedOn).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			got, err := repo.Create(ctx, u)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, got.Role)
			assert.Empty(t, u.Role, "input must not be mutated")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUserPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Create(ctx, sampleUser())

		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserPostgres_Find(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewUserPostgres(db)
	u := sampleUser()

	mock.ExpectQuery("FROM users WHERE uid = \\$1").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(u.UID, u.FirstName, u.LastName, u.Email, u.Organization, model.RoleAdmin, u.JoinedOn, u.PasswordHash))
	mock.ExpectQuery("FROM users WHERE lower\\(email\\) = lower\\(\\$1\\)").
		WithArgs("ADA@acme.test").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.DisplayName())
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	_, err = repo.FindByEmail(ctx, "ADA@acme.test")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewUserPostgres(db)
	u := sampleUser()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET first_name = \\$2, last_name = \\$3").
		WithArgs("u-1", "Augusta", "King").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(u.UID, "Augusta", "King", u.Email, u.Organization, model.RoleAdmin, u.JoinedOn, u.PasswordHash))
	mock.ExpectExec("UPDATE organization_members SET first_name").
		WithArgs("u-1", "Augusta", "King").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.UpdateProfile(ctx, "u-1", "Augusta", "King")

	require.NoError(t, err)
	assert.Equal(t, "Augusta King", got.DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewUserPostgres(db)

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("u-1", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("ghost", "new").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.UpdatePassword(ctx, "u-1", "new"))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "new"), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_ListMembers(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewUserPostgres(db)

	mock.ExpectQuery("FROM organization_members WHERE organization = \\$1 ORDER BY \\(role = 'admin'\\) DESC").
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "first_name", "last_name", "email", "role", "joined_on"}).
			AddRow("u-1", "Ada", "Lovelace", "ada@acme.test", model.RoleAdmin, "05-03-2024").
			AddRow("u-2", "Charles", "Babbage", "cb@acme.test", model.RoleMember, "06-03-2024"))

	members, err := repo.ListMembers(ctx, "Acme")

	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, model.RoleAdmin, members[0].Role)
	assert.Equal(t, "u-2", members[1].UID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
