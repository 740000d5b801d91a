package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs for Request validation
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin manager staff vendor"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse returns User data without exposing sensitive fields
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt string    `json:"created_at"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, apperror.New(apperror.KindConflict, "username already exists")
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.New(apperror.KindConflict, "email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, err, "failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role,
		FullName: req.FullName,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create user")
	}

	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.New(apperror.KindAccessDenied, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.KindAccessDenied, "invalid email or password")
	}

	// Opportunistic cleanup of stale sessions
	_ = s.repo.DeleteExpiredRefreshTokens(ctx)

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	stored, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.New(apperror.KindAccessDenied, "invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperror.New(apperror.KindAccessDenied, "refresh token expired")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.New(apperror.KindAccessDenied, "invalid refresh token")
	}

	// Rotate: the old token dies with the refresh that used it
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to rotate refresh token")
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.KindStorage, err, "failed to revoke refresh token")
	}
	return nil
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load user")
	}
	return mapToUserResponse(user), nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*AuthResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"role":  user.Role,
		"email": user.Email,
		"exp":   time.Now().Add(accessTokenTTL).Unix(),
	})
	accessToken, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, err, "failed to sign access token")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, err, "failed to mint refresh token")
	}
	refreshToken := hex.EncodeToString(raw)
	if err := s.repo.SaveRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to store refresh token")
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *mapToUserResponse(user),
	}, nil
}
