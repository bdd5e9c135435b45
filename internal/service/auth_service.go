package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/models"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// AuthService issues and validates the bearer tokens guarding the admin
// API. There are no user accounts here; a token is minted out of band
// (CLI, deploy tooling) and presented on replay and export endpoints.
type AuthService struct {
	secret     []byte
	expiration time.Duration
	logger     *zap.Logger
}

// NewAuthService builds the token service.
func NewAuthService(secret string, expiration time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &AuthService{secret: []byte(secret), expiration: expiration, logger: logger}
}

// IssueToken mints an admin token for the given subject.
func (s *AuthService) IssueToken(subject string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "admin JWT secret not configured")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.expiration)
	claims := &models.AdminClaims{
		Subject: subject,
		Role:    models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an admin token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}

	return claims, nil
}
