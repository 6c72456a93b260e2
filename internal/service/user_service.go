package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"quantifyme/internal/domain"
	"quantifyme/internal/repository"
)

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
	}
}

var ErrInvalidEmail = errors.New("invalid email")

// GetOrCreate devuelve el usuario con ese email, creandolo si no existe.
func (s *UserService) GetOrCreate(ctx context.Context, email string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, ErrInvalidEmail
	}

	user, err := s.users.GetOrCreate(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetByEmail busca un usuario existente por email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	return s.users.GetByEmail(ctx, email)
}

// SetPremium activa o desactiva la marca premium de un usuario.
func (s *UserService) SetPremium(ctx context.Context, userID int64, premium bool) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}

	if err := s.users.SetPremium(ctx, userID, premium); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("user premium updated",
			zap.Int64("user_id", userID),
			zap.Bool("premium", premium),
		)
	}
	return nil
}
