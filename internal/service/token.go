package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userapi/internal/models"
	"userapi/internal/repository"
)

// UserLookup resolves a token subject to a stored account.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenService issues and verifies HMAC-signed access tokens.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}

	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// Issue signs a copy of claims with "exp" set to now plus the token lifetime.
func (s *TokenService) Issue(claims jwt.MapClaims) (string, error) {
	toEncode := make(jwt.MapClaims, len(claims)+1)
	maps.Copy(toEncode, claims)
	toEncode["exp"] = jwt.NewNumericDate(time.Now().Add(s.ttl))

	tokenString, err := jwt.NewWithClaims(s.method, toEncode).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Parse verifies the signature, algorithm and expiry of tokenString and
// returns its claims.
func (s *TokenService) Parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	return claims, nil
}

// ResolveCurrentUser maps a bearer token to the account named by its subject.
// Every failure to do so is reported as ErrUnauthenticated, except storage
// errors which are returned as is.
func (s *TokenService) ResolveCurrentUser(ctx context.Context, tokenString string, lookup UserLookup) (*models.User, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	user, err := lookup.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	return user, nil
}
