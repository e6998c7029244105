package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/tokenauth/internal/events"
	"github.com/Skotchmaster/tokenauth/internal/hash"
	"github.com/Skotchmaster/tokenauth/internal/logging"
	"github.com/Skotchmaster/tokenauth/internal/metrics"
	"github.com/Skotchmaster/tokenauth/internal/models"
	"github.com/Skotchmaster/tokenauth/internal/repo"
	"github.com/Skotchmaster/tokenauth/internal/tokens"
)

const TokenTypeBearer = "bearer"

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmptyCredentials   = fmt.Errorf("%w: username and password are required", ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, hash.MaxPasswordBytes)
	ErrDuplicateUser      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid or revoked token")
)

type AuthService struct {
	repo    *repo.GormRepo
	hasher  *hash.Hasher
	issuer  *tokens.Issuer
	events  events.Publisher
	metrics metrics.Recorder
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// NewAuthService wires the stores, hasher and issuer. A nil publisher or
// recorder is replaced by a no-op.
func NewAuthService(r *repo.GormRepo, h *hash.Hasher, iss *tokens.Issuer, pub events.Publisher, rec metrics.Recorder) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthService{
		repo:    r,
		hasher:  h,
		issuer:  iss,
		events:  pub,
		metrics: rec,
	}
}

func (s *AuthService) Signup(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.signup", "username", username)

	if username == "" || password == "" {
		l.Warn("signup_failed", "status", 400, "reason", "empty username or password")
		s.metrics.RecordSignup(metrics.ResultInvalid)
		return ErrEmptyCredentials
	}
	if len(password) > hash.MaxPasswordBytes {
		l.Warn("signup_failed", "status", 400, "reason", "password too long")
		s.metrics.RecordSignup(metrics.ResultInvalid)
		return ErrPasswordTooLong
	}

	var user *models.User
	err := s.repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		_, err := tx.FindUserByUsername(ctx, username)
		switch {
		case err == nil:
			return ErrDuplicateUser
		case !errors.Is(err, repo.ErrNotFound):
			return fmt.Errorf("find user: %w", err)
		}

		pwHash, err := s.hasher.HashPassword(password)
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user, err = tx.CreateUser(ctx, username, pwHash)
		if errors.Is(err, repo.ErrConflict) {
			// lost the race against a concurrent signup
			return ErrDuplicateUser
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			l.Warn("signup_failed", "status", 400, "reason", "user already exists")
			s.metrics.RecordSignup(metrics.ResultDuplicate)
			return ErrDuplicateUser
		}
		if errors.Is(err, ErrValidation) {
			l.Warn("signup_failed", "status", 400, "error", err)
			s.metrics.RecordSignup(metrics.ResultInvalid)
			return err
		}
		l.Error("signup_failed", "status", 500, "error", err)
		s.metrics.RecordSignup(metrics.ResultError)
		return err
	}

	s.metrics.RecordSignup(metrics.ResultSuccess)
	s.publish(ctx, events.TypeUserRegistered, user)
	l.Info("signup_success", "user_id", user.ID)
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "empty username or password")
		s.metrics.RecordLogin(metrics.ResultInvalid)
		return nil, ErrEmptyCredentials
	}

	var (
		user   *models.User
		result *LoginResult
	)
	err := s.repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		user, err = tx.FindUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				s.hasher.CheckAbsent(password)
				return ErrInvalidCredentials
			}
			return fmt.Errorf("find user: %w", err)
		}
		if !s.hasher.CheckPassword(user.PasswordHash, password) {
			return ErrInvalidCredentials
		}

		value, exp, err := s.issuer.Issue(user.Username)
		if err != nil {
			return err
		}
		if err := s.storeToken(ctx, tx, value, user.ID); err != nil {
			return err
		}

		result = &LoginResult{
			AccessToken: value,
			TokenType:   TokenTypeBearer,
			ExpiresAt:   exp,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 400, "reason", "invalid username or password")
			s.metrics.RecordLogin(metrics.ResultInvalid)
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, err
	}

	s.metrics.RecordLogin(metrics.ResultSuccess)
	s.publish(ctx, events.TypeUserLoggedIn, user)
	l.Info("login_successful", "user_id", user.ID)
	return result, nil
}

// storeToken persists value for userID. Two logins by the same user inside one
// expiration second sign identical claims, so an existing row owned by the same
// user already is this token and is reused.
func (s *AuthService) storeToken(ctx context.Context, tx *repo.GormRepo, value string, userID uint) error {
	err := tx.Transaction(ctx, func(sp *repo.GormRepo) error {
		_, err := sp.CreateToken(ctx, value, userID)
		return err
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrConflict) {
		return err
	}

	existing, ferr := tx.FindTokenByValue(ctx, value)
	if ferr != nil {
		return fmt.Errorf("find conflicting token: %w", ferr)
	}
	if existing.UserID != userID {
		return fmt.Errorf("token owned by user %d: %w", existing.UserID, repo.ErrConflict)
	}
	logging.FromContext(ctx).Info("login_token_reused", "user_id", userID)
	return nil
}

// Logout revokes token if it is stored. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if token == "" {
		s.metrics.RecordLogout(metrics.ResultNoop)
		l.Info("logout_success", "revoked", false)
		return nil
	}

	var revoked *models.Token
	err := s.repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		tok, err := tx.FindTokenByValue(ctx, token)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("find token: %w", err)
		}
		if err := tx.DeleteToken(ctx, tok); err != nil {
			return err
		}
		revoked = tok
		return nil
	})
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke token", "error", err)
		s.metrics.RecordLogout(metrics.ResultError)
		return err
	}

	if revoked == nil {
		s.metrics.RecordLogout(metrics.ResultNoop)
	} else {
		s.metrics.RecordLogout(metrics.ResultRevoked)
		s.publish(ctx, events.TypeUserLoggedOut, &models.User{ID: revoked.UserID})
	}
	l.Info("logout_success", "revoked", revoked != nil)
	return nil
}

// Authenticate resolves a bearer token to its owner. Unlike Logout it needs the
// token to be stored and its signature and expiry to verify.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate")

	claims, err := s.issuer.Parse(token)
	if err != nil {
		l.Warn("authenticate_failed", "status", 401, "reason", "bad claims", "error", err)
		return nil, ErrInvalidToken
	}

	stored, err := s.repo.FindTokenByValue(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "token revoked")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	user, err := s.repo.FindUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Username != claims.Subject {
		l.Warn("authenticate_failed", "status", 401, "reason", "subject mismatch")
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, typ string, user *models.User) {
	event := events.Event{
		Type:     typ,
		UserID:   user.ID,
		Username: user.Username,
		At:       time.Now().UTC(),
	}
	if err := s.events.PublishEvent(ctx, strconv.FormatUint(uint64(user.ID), 10), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", typ, "error", err)
	}
}
