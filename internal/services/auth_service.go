package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sharebite/internal/metrics"
	"sharebite/internal/models"
	"sharebite/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong
	// password alike, so callers cannot tell which one was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated user carried by a session token.
type Identity struct {
	UserID   uint
	Username string
}

// AuthService handles registration, login and session token verification.
type AuthService struct {
	userRepo   repositories.UserRepository
	secret     []byte
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService. Tokens are signed with secret and
// expire after sessionTTL.
func NewAuthService(userRepo repositories.UserRepository, secret string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// SessionTTL is the lifetime of issued tokens.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// RegisterUser hashes the password and stores a new user. A taken username
// or email yields repositories.ErrDuplicateIdentity.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdentity) {
			metrics.Registrations.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil, err
		}
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// LoginUser verifies the credentials and returns a signed session token
// together with the authenticated identity.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *Identity, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.Logins.WithLabelValues(metrics.OutcomeInvalid).Inc()
			return "", nil, ErrInvalidCredentials
		}
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return "", nil, ErrInvalidCredentials
	}

	identity := &Identity{UserID: user.ID, Username: user.Username}
	token, err := s.IssueToken(identity)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return "", nil, err
	}

	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return token, identity, nil
}

// IssueToken signs a session token for identity.
func (s *AuthService) IssueToken(identity *Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  identity.UserID,
		"username": identity.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.sessionTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a session token and returns its identity.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidToken)
	}

	return &Identity{UserID: uint(userID), Username: username}, nil
}

// Authenticate verifies tokenString and confirms its user still exists. The
// returned identity carries the stored username. A token for an unknown user
// yields ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	identity, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d no longer exists", ErrInvalidToken, identity.UserID)
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return &Identity{UserID: user.ID, Username: user.Username}, nil
}
