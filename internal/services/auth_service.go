// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string     `json:"first_name" validate:"required,max=50"`
	LastName  string     `json:"last_name" validate:"required,max=50"`
	Username  string     `json:"username" validate:"required,username"`
	Email     string     `json:"email" validate:"required,email,max=100"`
	Password  string     `json:"password" validate:"required,min=8,max=72"`
	BirthDate *string    `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender    string     `json:"gender,omitempty" validate:"omitempty,max=10"`
	FamilyID  *uuid.UUID `json:"family_id,omitempty"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	const op = "auth.Register"

	if err := utils.ValidateStruct(req); err != nil {
		return nil, wrapError(KindInvalidInput, op, "validation failed", err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	birthDate, err := ParseDate(req.BirthDate)
	if err != nil {
		return nil, newError(KindInvalidInput, op, "birth_date must be YYYY-MM-DD")
	}

	db := s.db.WithContext(ctx)

	var existingUser models.User
	if err := db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser).Error; err == nil {
		if existingUser.Email == req.Email {
			return nil, newError(KindConflict, op, "user with this email already exists")
		}
		return nil, newError(KindConflict, op, "username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.FamilyID != nil {
		var family models.Family
		if err := db.Select("id").First(&family, "id = ?", *req.FamilyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(KindNotFound, op, "family not found")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Username:  req.Username,
		Email:     req.Email,
		BirthDate: birthDate,
		Gender:    req.Gender,
		FamilyID:  req.FamilyID,
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := db.Omit(clause.Associations).Create(user).Error; err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, wrapError(KindConflict, op, "username or email already taken", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(user)
}

// Login checks a username and password. Unknown users and wrong passwords get
// the same error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	const op = "auth.Login"

	if err := utils.ValidateStruct(req); err != nil {
		return nil, wrapError(KindInvalidInput, op, "validation failed", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindUnauthorized, op, "invalid username or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, newError(KindUnauthorized, op, "invalid username or password")
	}

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	const op = "auth.RefreshToken"

	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, wrapError(KindUnauthorized, op, "invalid refresh token", err)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, wrapError(KindUnauthorized, op, "invalid user ID in token", err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(KindUnauthorized, op, "user no longer exists")
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// Verify resolves an access token to the principal it was issued for. Tokens
// of deleted accounts stop verifying.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.Principal, error) {
	const op = "auth.Verify"

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, wrapError(KindUnauthorized, op, "invalid or expired token", err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, wrapError(KindUnauthorized, op, "invalid user ID in token", err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(KindUnauthorized, op, "user no longer exists")
		}
		return nil, err
	}

	return &models.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "auth.GetUserByID", "user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, user.Email, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
