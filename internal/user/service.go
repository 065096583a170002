package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetTokenTTL = 30 * time.Minute

type Service interface {
	Register(ctx context.Context, email, password, name, role string) (string, User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	GetByID(ctx context.Context, id uint) (User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password, name, roleStr string) (string, User, error) {
	log := logger.FromCtx(ctx)

	role, err := ParseRole(roleStr)
	if err != nil {
		return "", User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", User{}, err
	}

	u, err := s.repo.Create(ctx, email, hashed, name, role)
	if err != nil {
		log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		if strings.Contains(err.Error(), "users_email_key") {
			return "", User{}, ErrEmailExists
		}
		return "", User{}, err
	}

	token, err := auth.GenerateJWT(u.ID, email, string(u.Role))
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", fmt.Sprint(u.ID)), zap.Error(err))
		return "", User{}, err
	}

	log.Info("register service completed",
		zap.String("user_id", fmt.Sprint(u.ID)),
		zap.String("email", email),
		zap.String("role", string(u.Role)),
	)

	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Warn("login: email not found", zap.String("email", email))
		return "", User{}, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(password, u.Password) {
		log.Warn("login: password mismatch", zap.String("email", email))
		return "", User{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(u.ID, email, string(u.Role))
	return token, u, err
}

func (s *service) GetByID(ctx context.Context, id uint) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// RequestPasswordReset issues a single-use token. The token is returned to
// the caller (the mail sender); an unknown email still succeeds so the
// endpoint does not leak which addresses exist.
func (s *service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err == ErrUserNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := uuid.New().String()
	if err := s.repo.CreatePasswordReset(ctx, token, u.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrResetTokenInvalid
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.RedeemPasswordReset(ctx, token, hashed)
}
