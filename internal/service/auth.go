package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/table-booking/internal/apperr"
	"github.com/Shivanand-hulikatti/table-booking/internal/auth"
	"github.com/Shivanand-hulikatti/table-booking/internal/model"
	"github.com/Shivanand-hulikatti/table-booking/internal/repository"
)

const (
	msgDuplicateEmail   = "User with this email already exists."
	msgDuplicatePhone   = "User with this phone number already exists."
	msgBadCredentials   = "Email or password is invalid."
	msgTokenInvalid     = "Access token is invalid."
	msgTokenPayload     = "Access token payload is invalid."
	msgTokenUserMissing = "User from access token was not found."
)

// AuthService registers accounts and resolves access tokens to users.
type AuthService struct {
	users       UserStore
	tokens      *auth.Tokens
	adminEmails map[string]struct{}
}

// NewAuthService constructs an AuthService. Emails in adminEmails are
// lower-case and are granted the admin role at registration.
func NewAuthService(users UserStore, tokens *auth.Tokens, adminEmails map[string]struct{}) *AuthService {
	return &AuthService{users: users, tokens: tokens, adminEmails: adminEmails}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.TokenResponse, error) {
	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.PhoneNumber)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(msgDuplicateEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, apperr.Conflict(msgDuplicatePhone)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := model.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = model.RoleAdmin
	}

	u := &model.User{
		Email:          email,
		PhoneNumber:    phone,
		FullName:       strings.TrimSpace(req.FullName),
		HashedPassword: hash,
		Role:           role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Conflict(msgDuplicateEmail)
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, apperr.Conflict(msgDuplicatePhone)
		}
		return nil, err
	}
	return s.tokenFor(u)
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth(msgBadCredentials)
		}
		return nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, req.Password) {
		return nil, apperr.Auth(msgBadCredentials)
	}
	return s.tokenFor(u)
}

// UserFromToken resolves a bearer token to its user.
func (s *AuthService) UserFromToken(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, apperr.Auth(msgTokenInvalid)
	}
	if _, err := uuid.Parse(claims.Sub); err != nil {
		return nil, apperr.Auth(msgTokenPayload)
	}
	u, err := s.users.GetByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth(msgTokenUserMissing)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) tokenFor(u *model.User) (*model.TokenResponse, error) {
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}
