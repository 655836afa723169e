package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dstorelabs/store-backend/internal/auth"
	"github.com/dstorelabs/store-backend/internal/models"
	repo "github.com/dstorelabs/store-backend/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email)}
	if err := u.Validate(); err != nil { return models.User{}, err }
	if len(password) < 8 { return models.User{}, errors.New("password too short") }
	hash, err := auth.HashPassword(password)
	if err != nil { return models.User{}, err }
	return s.r.Create(ctx, u.Username, u.Email, hash)
}

// Login verifies the password and returns an access/refresh token pair. The
// access token's subject is the identity the ledger sees.
func (s *UserService) Login(ctx context.Context, email, password string) (access, refresh string, exp time.Time, err error) {
	u, err := s.r.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", "", time.Time{}, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return "", "", time.Time{}, ErrInvalidCredentials
	}
	return s.tm.GeneratePair(u.ID)
}
