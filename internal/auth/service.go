// Package auth issues and validates the JWT bearer tokens that identify API
// callers. Account creation itself goes through the social engine so signup
// and its per-user documents stay one transaction.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/Deepakgauttam/twitter-clone/internal/errors"
	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
)

const tokenLifetime = 24 * time.Hour

// Service handles registration, login and token validation.
type Service struct {
	jwtSecret []byte
	engine    *social.Engine
	db        *gorm.DB
}

// NewService creates a new authentication service.
func NewService(jwtSecret []byte, engine *social.Engine, db *gorm.DB) *Service {
	return &Service{jwtSecret: jwtSecret, engine: engine, db: db}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a signup request
type RegisterRequest struct {
	ScreenName string `json:"screen_name" binding:"required"`
	Name       string `json:"name"`
	Password   string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	ScreenName string `json:"screen_name" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Register creates a new account and returns a fresh token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedStr := string(hashed)

	user, err := s.engine.CreateUser(ctx, req.ScreenName, req.Name, &hashedStr)
	if err != nil {
		return nil, err
	}
	return s.generateAuthResponse(user)
}

// Login authenticates with screen name and password. Unknown handles and bad
// passwords get the same answer.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.engine.GetUserByScreenName(ctx, req.ScreenName)
	if err != nil {
		if _, ok := apperrors.AsAPIError(err); ok {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	return s.generateAuthResponse(user)
}

// generateAuthResponse creates JWT token and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	expiresAt := now.Add(tokenLifetime)

	claims := jwt.MapClaims{
		"user_id":     user.ID,
		"screen_name": user.ScreenName,
		"exp":         expiresAt.Unix(),
		"iat":         now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the user it names.
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, apperrors.Unauthorized("invalid token claims")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	return &user, nil
}
