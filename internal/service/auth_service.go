package service

import (
	"crypto/subtle"

	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/pkg/bcrypt"
	jwtPkg "github.com/sefazor/guestphotos-backend/pkg/jwt"
)

// AuthService authenticates the single configured operator account.
type AuthService struct {
	username     string
	passwordHash string
	tokens       *jwtPkg.Manager
	logger       *zap.Logger
}

func NewAuthService(cfg config.AdminConfig, tokens *jwtPkg.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		tokens:       tokens,
		logger:       logger.Named("auth"),
	}
}

func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if s.passwordHash == "" {
		s.logger.Warn("operator login attempted but ADMIN_PASSWORD_HASH is not set")
		return nil, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := bcrypt.ComparePassword(s.passwordHash, req.Password)
	if !userOK || passErr != nil {
		s.logger.Info("operator login rejected", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(s.username)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}
