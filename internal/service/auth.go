package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PracticalMetal/major-notice/internal/auth"
	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

// Password length bounds for sign-up and reset. bcrypt rejects inputs over 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// SignUpInput carries the registration form.
type SignUpInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Organization string `json:"organization"`
}

// Session is a signed-in user with its bearer token.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset tokens to the log instead of sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "password_reset_issued", "email", email)
	l.DebugContext(ctx, "password_reset_token", "email", email, "token", token)
	return nil
}

// AuthService covers registration, sessions and profile changes.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// SendPasswordReset succeeds for unknown emails without sending anything.
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateProfile(ctx context.Context, uid, firstName, lastName string) (*model.User, error)
	CurrentUser(ctx context.Context, uid string) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.Tokens
	mailer Mailer
	log    *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewAuthService constructs a new AuthService. Join dates are formatted in loc.
func NewAuthService(users repository.UserRepository, tokens *auth.Tokens, mailer Mailer, logger *slog.Logger, loc *time.Location) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &authService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		log:    logger.With("component", "auth"),
		loc:    loc,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPasswordLength counts bytes, not runes.
func checkPasswordLength(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrWeakPassword
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Organization = strings.TrimSpace(in.Organization)
	in.Email = normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" || in.Organization == "" {
		return nil, ErrMissingFields
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		UID:          uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Organization: in.Organization,
		JoinedOn:     s.now().In(s.loc).Format(DateOfUploadLayout),
		PasswordHash: hash,
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user_signed_up", "uid", created.UID, "org", created.Organization, "role", created.Role)
	return created, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, claims, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

func (s *authService) SignOut(_ context.Context, token string) error {
	return s.tokens.Revoke(token)
}

func (s *authService) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("password_reset_unknown_email")
			return nil
		}
		return err
	}
	token, err := s.tokens.IssueReset(u.UID, u.PasswordHash)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		return fmt.Errorf("send reset: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	u, err := s.users.FindByID(ctx, claims.UID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	// A reset token is single use: once the hash changes its fingerprint no longer matches.
	if auth.Fingerprint(u.PasswordHash) != claims.PasswordFingerprint {
		return ErrInvalidResetToken
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.UID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info("password_reset_done", "uid", u.UID)
	return nil
}

func (s *authService) UpdateProfile(ctx context.Context, uid, firstName, lastName string) (*model.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.UpdateProfile(ctx, uid, firstName, lastName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) CurrentUser(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
