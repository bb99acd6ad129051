package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoplab/internal/apperror"
	"shoplab/internal/config"
	"shoplab/internal/models"
	"shoplab/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims are carried by the short-lived access token.
type AccessClaims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Type     string      `json:"type"`
	jwt.StandardClaims
}

// RefreshClaims are carried by the rotation token. Id is the jti that keys the
// server-side session record.
type RefreshClaims struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
	jwt.StandardClaims
}

// LoginResult is returned by Login. The refresh token is delivered to the
// client as a cookie, never in the body.
type LoginResult struct {
	AccessToken      string       `json:"accessToken"`
	User             *models.User `json:"user"`
	RefreshToken     string       `json:"-"`
	RefreshExpiresAt time.Time    `json:"-"`
}

// RefreshResult is returned by Refresh.
type RefreshResult struct {
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

// CreateUserInput is the admin payload for creating an account.
type CreateUserInput struct {
	Username string      `json:"username" validate:"required,min=3,max=100"`
	Password string      `json:"password" validate:"required,min=8,max=128"`
	Email    *string     `json:"email" validate:"omitempty,email"`
	Role     models.Role `json:"userType" validate:"omitempty,oneof=standard locked admin"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	users      repositories.UserRepository
	sessions   repositories.SessionRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, sessions repositories.SessionRepository, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies the username and password and issues a token pair.
//
// An unknown username and a wrong password are indistinguishable. A locked
// account is rejected before its credential is looked at. A legacy credential
// that verifies is rewritten in the hashed format.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if user.Role == models.RoleLocked {
		return nil, apperror.ErrAccountLocked
	}

	credential := ParseCredential(user.Password)
	if !credential.Verify(user.Username, password) {
		return nil, apperror.ErrInvalidCredentials
	}
	if credential.Format == CredentialLegacy {
		s.upgradeCredential(ctx, user, password)
	}

	now := s.now()
	if err := s.sessions.DeleteExpired(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to purge expired sessions", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.issueRefreshToken(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{
		AccessToken:      accessToken,
		User:             user,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Refresh mints a new access token from a rotation token. Every failure is
// reported as UNAUTHORIZED.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	unauthorized := apperror.Unauthorized("Session expired, please log in again")

	claims, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return nil, unauthorized
	}

	session, err := s.sessions.GetByID(ctx, claims.Id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("failed to load session", zap.String("session_id", claims.Id), zap.Error(err))
		}
		return nil, unauthorized
	}
	if subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(hashToken(refreshToken))) != 1 ||
		session.UserID != claims.UserID {
		return nil, unauthorized
	}
	now := s.now()
	if !now.Before(session.ExpiresAt) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", zap.String("session_id", session.ID), zap.Error(err))
		}
		return nil, unauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, unauthorized
	}
	if user.Role == models.RoleLocked {
		return nil, unauthorized
	}

	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: accessToken, User: user}, nil
}

// Logout revokes the session behind the rotation token. It succeeds whether
// or not the token was valid.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		var ve *jwt.ValidationError
		// An expired token still names a session worth deleting.
		if !errors.As(err, &ve) || ve.Errors != jwt.ValidationErrorExpired {
			return nil
		}
	}
	if claims == nil || claims.Type != tokenTypeRefresh || claims.Id == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.Id); err != nil {
		s.logger.Warn("failed to delete session on logout", zap.String("session_id", claims.Id), zap.Error(err))
	}
	return nil
}

// ValidateAccessToken parses and validates an access token, returning its claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc)
	if err != nil || !token.Valid || claims.Type != tokenTypeAccess {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// GetUser returns the account behind an authenticated request.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("user %d not found", id)
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}

// CreateUser stores a new account. Its credential is always in hashed format.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperror.Validation("Invalid user", map[string]string{"username": "username is required"})
	}
	if input.Password == "" {
		return nil, apperror.Validation("Invalid user", map[string]string{"password": "password is required"})
	}
	role := input.Role
	if role == "" {
		role = models.RoleStandard
	}
	if !role.Valid() {
		return nil, apperror.Validation("Invalid user", map[string]string{"userType": "must be standard, locked or admin"})
	}

	credential, err := HashPassword(input.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	user := &models.User{Username: username, Email: input.Email, Password: credential, Role: role}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("Invalid user", map[string]string{"username": "username or email is already taken"})
		}
		return nil, apperror.Internal("failed to create user", err)
	}
	return user, nil
}

// upgradeCredential rewrites a verified legacy credential in hashed format.
// A failed rewrite does not fail the login; the next login retries it.
func (s *AuthService) upgradeCredential(ctx context.Context, user *models.User, password string) {
	hashed, err := HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash legacy credential", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		s.logger.Error("failed to upgrade legacy credential", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.Password = hashed
	s.logger.Info("legacy credential upgraded", zap.Uint("user_id", user.ID))
}

func (s *AuthService) signAccessToken(user *models.User, now time.Time) (string, error) {
	claims := AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Type:     tokenTypeAccess,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.accessTTL).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Internal("failed to generate token", err)
	}
	return signed, nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.refreshTTL)
	claims := RefreshClaims{
		UserID: user.ID,
		Type:   tokenTypeRefresh,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, apperror.Internal("failed to generate token", err)
	}

	session := &models.AuthSession{
		ID:        claims.Id,
		UserID:    user.ID,
		TokenHash: hashToken(signed),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, apperror.Internal("failed to store session", err)
	}
	return signed, expiresAt, nil
}

// parseRefreshToken returns the claims even when err is non-nil, so callers
// can inspect an expired token.
func (s *AuthService) parseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc)
	if err != nil {
		return claims, err
	}
	if !token.Valid || claims.Type != tokenTypeRefresh || claims.Id == "" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.jwtSecret, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
