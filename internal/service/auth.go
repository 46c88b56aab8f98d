package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"userapi/internal/crypto"
	"userapi/internal/models"
	"userapi/internal/repository"
)

type AuthService interface {
	// Login exchanges an e-mail and password for an access token.
	Login(ctx context.Context, email, password string) (models.Token, error)
	// CurrentUser resolves a bearer token to the stored account.
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	repo   repository.UserRepository
	hasher *crypto.PasswordHasher
	tokens *TokenService
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(repo repository.UserRepository, hasher *crypto.PasswordHasher, tokens *TokenService, logger *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (models.Token, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same effort as a real check so unknown e-mails are not
			// distinguishable by response time.
			s.hasher.Verify(password, s.dummy())
			return models.Token{}, ErrInvalidCredentials
		}
		return models.Token{}, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.Token{}, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(jwt.MapClaims{"sub": user.Email})
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return models.Token{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in successfully.", zap.Int64("user_id", user.ID))

	return models.Token{AccessToken: accessToken, TokenType: models.TokenTypeBearer}, nil
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return s.tokens.ResolveCurrentUser(ctx, token, s.repo)
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password")
		if err != nil {
			s.logger.Warn("Failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
