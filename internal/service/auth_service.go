package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/auth"
	"github.com/wenwu/saas-platform/directory-service/internal/config"
	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

// AuthService issues access tokens for providers and the administrator
type AuthService struct {
	providers ProviderStore
	tokens    *auth.TokenIssuer
	admin     config.AdminConfig
	log       *zap.Logger
}

func NewAuthService(providers ProviderStore, tokens *auth.TokenIssuer, admin config.AdminConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		providers: providers,
		tokens:    tokens,
		admin:     admin,
		log:       log,
	}
}

// Login authenticates a provider by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	p, err := s.providers.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get provider by email: %w", err)
	}
	if !auth.CheckPassword(p.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, p.ID, auth.RoleProvider)
}

// AdminLogin authenticates the configured administrator
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	if s.admin.PasswordHash == "" ||
		subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) != 1 ||
		!auth.CheckPassword(s.admin.PasswordHash, password) {
		logger.FromContext(ctx, s.log).Warn("admin login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, s.admin.Username, auth.RoleAdmin)
}

func (s *AuthService) issue(ctx context.Context, subject, role string) (*models.TokenResponse, error) {
	token, expiresAt, err := s.tokens.Issue(subject, role)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.log).Info("token issued", zap.String("subject", subject), zap.String("role", role))
	return &models.TokenResponse{
		Token:     token,
		Role:      role,
		Subject:   subject,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}
