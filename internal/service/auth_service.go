package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quizhub/internal/config"
	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/logger"
	"quizhub/internal/util"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidJWTToken = errors.New("invalid jwt token")

// AuthService defines the interface for authentication operations.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	RefreshTokens(ctx context.Context, refreshTokenString string) (newAccessToken string, newRefreshToken string, err error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(userID string, ttl time.Duration, tokenType string) (string, error)
}

type authServiceImpl struct {
	userRepo    domain.UserRepository
	profileRepo domain.ProfileRepository
	txManager   domain.TransactionManager
	clock       domain.Clock
	jwtConfig   config.JWTConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo domain.UserRepository,
	profileRepo domain.ProfileRepository,
	txManager domain.TransactionManager,
	clock domain.Clock,
	jwtConfig config.JWTConfig,
) (AuthService, error) {
	if jwtConfig.Secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	return &authServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		txManager:   txManager,
		clock:       clock,
		jwtConfig:   jwtConfig,
	}, nil
}

// Register creates the user and its profile in one transaction. The
// profile starts with the signup token grant, and the grant date is
// stamped so the daily grant does not double-fire on day one.
func (s *authServiceImpl) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	appLogger := logger.Get()

	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewInvalidInputError("a valid email is required")
	}
	if username == "" {
		return nil, domain.NewInvalidInputError("username is required")
	}
	if len(req.Password) < 8 {
		return nil, domain.NewInvalidInputError("password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, domain.NewError(domain.CodeConflict, "email is already registered", nil)
	}
	sameName, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError("failed to check existing username", err)
	}
	if sameName != nil {
		return nil, domain.NewError(domain.CodeConflict, "username is already taken", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           util.NewULID(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.CreateUser(txCtx, user); err != nil {
			return err
		}
		profile := &domain.UserProfile{
			ID:                 util.NewULID(),
			UserID:             user.ID,
			SubscriptionPlan:   domain.PlanBasic,
			Tokens:             domain.SignupTokens,
			LastTokenGrantDate: now,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		return s.profileRepo.CreateProfile(txCtx, profile)
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to register user", err)
	}

	appLogger.Info("New user registered",
		zap.String("userID", user.ID),
		zap.String("email", user.Email))

	return &dto.UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	}, nil
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	appLogger := logger.Get()

	user, err := s.userRepo.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", "", domain.NewInternalError("failed to fetch user", err)
	}
	if user == nil {
		return "", "", domain.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		appLogger.Warn("Login failed", zap.String("email", email))
		return "", "", domain.NewUnauthorizedError("invalid email or password")
	}

	accessToken, err := s.CreateJWT(user.ID, s.jwtConfig.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.CreateJWT(user.ID, s.jwtConfig.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	appLogger.Info("User logged in", zap.String("userID", user.ID))
	return accessToken, refreshToken, nil
}

func (s *authServiceImpl) CreateJWT(userID string, ttl time.Duration, tokenType string) (string, error) {
	now := s.clock.Now()
	claims := dto.AuthClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	appLogger := logger.Get()
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appLogger.Warn("JWT token expired", zap.Error(err))
		} else {
			appLogger.Warn("JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*dto.AuthClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}

func (s *authServiceImpl) RefreshTokens(ctx context.Context, refreshTokenString string) (string, string, error) {
	appLogger := logger.Get()

	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return "", "", domain.NewUnauthorizedError("invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", "", domain.NewUnauthorizedError("not a refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", "", domain.NewInternalError("failed to fetch user", err)
	}
	if user == nil {
		return "", "", domain.NewNotFoundError(fmt.Sprintf("User %s not found for refresh token", claims.UserID))
	}

	newAccessToken, err := s.CreateJWT(user.ID, s.jwtConfig.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}
	newRefreshToken, err := s.CreateJWT(user.ID, s.jwtConfig.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}

	appLogger.Info("JWT token refreshed", zap.String("userID", user.ID))
	return newAccessToken, newRefreshToken, nil
}
