// Package services contains server-side business logic. This file implements
// UserService: registration, login, and stateless session issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/auth"
	"github.com/taskvault/taskvault/internal/server/config"
	"github.com/taskvault/taskvault/internal/server/models"
	"github.com/taskvault/taskvault/internal/server/repositories/repomanager"
)

// Session bundles a signed session credential with the anti-forgery token
// embedded in it. The credential goes into an HttpOnly cookie, the token into
// the response body; a mutating request must present both.
type Session struct {
	Token     string
	CsrfToken string
}

// UserService provides authentication-related operations:
// - Register: create users (hashing the password on the way in)
// - Login: verify credentials and mint a session
// - IssueSession: mint a session for an already-verified identity
type UserService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                      db,
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

// Register creates a new user and logs them in. The password is hashed
// before it ever reaches the repository; the plaintext is not retained.
// A login-name collision yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, *Session, error) {
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: auth.HashPassword(password),
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, common.ErrorAlreadyExists
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	session, err := s.IssueSession(user.ID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	return user, session, nil
}

// Login verifies the password for the given login name and, on success,
// mints a fresh session. Unknown login name and wrong password produce the
// same ErrorUnauthorized so callers cannot probe for registered names.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *Session, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, common.ErrorUnauthorized
	}

	session, err := s.IssueSession(user.ID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	return user, session, nil
}

// IssueSession mints a signed session credential for userID with a fresh
// anti-forgery token bound inside it.
func (s *UserService) IssueSession(userID int64) (*Session, error) {
	csrfToken, err := auth.NewCsrfToken()
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(userID, csrfToken, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, CsrfToken: csrfToken}, nil
}

// There is no server-side revocation: the credential is self-contained, so
// logout can only instruct the client to overwrite its stored copy. A saved
// copy of an old credential stays valid until its natural expiry; the short
// session lifetime bounds that window.
