package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// UserPostgres persists users and organization_members.
type UserPostgres struct {
	db *sql.DB
}

func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `uid, first_name, last_name, email, organization, role, joined_on, password_hash`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.UID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Organization,
		&u.Role,
		&u.JoinedOn,
		&u.PasswordHash,
	); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts the organization if needed, then the user and member rows, in one transaction.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const qOrg = `INSERT INTO organizations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	const qUser = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const qMember = `
		INSERT INTO organization_members (organization, uid, first_name, last_name, email, role, joined_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	out := *u
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, qOrg, out.Organization)
		if err != nil {
			return fmt.Errorf("ensure organization: %w", err)
		}
		created, err := res.RowsAffected()
		if err != nil {
			return err
		}
		out.Role = model.RoleMember
		if created == 1 {
			out.Role = model.RoleAdmin
		}

		if _, err := tx.ExecContext(ctx, qUser,
			out.UID,
			out.FirstName,
			out.LastName,
			out.Email,
			out.Organization,
			out.Role,
			out.JoinedOn,
			out.PasswordHash,
		); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, qMember,
			out.Organization,
			out.UID,
			out.FirstName,
			out.LastName,
			out.Email,
			out.Role,
			out.JoinedOn,
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserPostgres) FindByID(ctx context.Context, uid string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, uid))
}

// FindByEmail matches case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *UserPostgres) UpdateProfile(ctx context.Context, uid, firstName, lastName string) (*model.User, error) {
	const qUser = `
		UPDATE users SET first_name = $2, last_name = $3
		WHERE uid = $1
		RETURNING ` + userColumns
	const qMember = `UPDATE organization_members SET first_name = $2, last_name = $3 WHERE uid = $1`

	var out *model.User
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, qUser, uid, firstName, lastName))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, qMember, uid, firstName, lastName); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserPostgres) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE uid = $1`
	res, err := r.db.ExecContext(ctx, q, uid, passwordHash)
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

func (r *UserPostgres) ListMembers(ctx context.Context, org string) ([]model.Member, error) {
	const q = `
		SELECT uid, first_name, last_name, email, role, joined_on
		FROM organization_members
		WHERE organization = $1
		ORDER BY (role = 'admin') DESC, joined_at ASC, uid ASC
	`
	rows, err := r.db.QueryContext(ctx, q, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]model.Member, 0)
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UID, &m.FirstName, &m.LastName, &m.Email, &m.Role, &m.JoinedOn); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
