package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"userapi/internal/crypto"
	"userapi/internal/models"
	"userapi/internal/repository"
)

// UserService implements account CRUD. Operations on a single account take
// the authenticated caller and only allow it to act on its own record.
type UserService interface {
	Create(ctx context.Context, input models.UserSchema) (*models.User, error)
	List(ctx context.Context, page models.FilterPage) ([]*models.User, error)
	Get(ctx context.Context, current *models.User, id int64) (*models.User, error)
	Update(ctx context.Context, current *models.User, id int64, input models.UserSchema) (*models.User, error)
	Delete(ctx context.Context, current *models.User, id int64) error
}

type userService struct {
	repo   repository.UserRepository
	hasher *crypto.PasswordHasher
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, hasher *crypto.PasswordHasher, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) Create(ctx context.Context, input models.UserSchema) (*models.User, error) {
	_, err := s.repo.FindByUsernameOrEmail(ctx, input.Username, input.Email)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *userService) List(ctx context.Context, page models.FilterPage) ([]*models.User, error) {
	users, err := s.repo.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, current *models.User, id int64) (*models.User, error) {
	if err := authorize(current, id); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, current *models.User, id int64, input models.UserSchema) (*models.User, error) {
	if err := authorize(current, id); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           id,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, translate(err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	s.logger.Info("User updated", zap.Int64("user_id", id))
	return updated, nil
}

func (s *userService) Delete(ctx context.Context, current *models.User, id int64) error {
	if err := authorize(current, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

func authorize(current *models.User, id int64) error {
	if current == nil {
		return ErrUnauthenticated
	}
	if current.ID != id {
		return ErrForbidden
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}
