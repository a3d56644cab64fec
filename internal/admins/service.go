package admins

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/pkg/auth"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// nowFn is swapped in tests to pin token timestamps.
var nowFn = func() time.Time { return time.Now().UTC() }

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	AdminID   uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// Service owns back-office authentication.
type Service struct {
	repo   Repository
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	logg   *logger.Logger
}

// NewService wires the admin auth service.
func NewService(repo Repository, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) *Service {
	return &Service{repo: repo, jwtCfg: jwtCfg, pwCfg: pwCfg, logg: logg}
}

// Login verifies credentials and mints a bearer token. Unknown email and
// wrong password return the same error so the endpoint does not leak which
// accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading admin account")
	}
	if admin == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := nowFn()
	token, err := auth.MintAdminToken(s.jwtCfg, now, admin.ID, admin.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	s.logg.Info(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "admin logged in")
	return &LoginResult{
		Token:     token,
		AdminID:   admin.ID,
		Email:     admin.Email,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
	}, nil
}

// Register creates an admin account with a hashed password. Exposed through
// the seeding CLI, not the HTTP API.
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	hash, err := auth.HashPassword(password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	admin := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an admin with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating admin account")
	}
	return admin, nil
}
