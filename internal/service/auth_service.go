package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"propelize/internal/apperr"
	"propelize/internal/model"
	"propelize/internal/repository"
	"propelize/internal/utils"
)

// Client-facing messages. Login failures never reveal whether the email exists.
const (
	MsgInvalidCredentials   = "incorrect email or password"
	MsgRefreshTokenRequired = "refresh token required"
	MsgInvalidRefreshToken  = "invalid or expired refresh token"
	MsgUserNotFound         = "user not found"
	MsgEmailTaken           = "a user with this email already exists"
)

// AuthService provides registration, login and token refresh
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *utils.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
}

type authService struct {
	userRepo          repository.UserRepository
	tokens            *utils.TokenService
	hasher            *utils.PasswordHasher
	initialAdminEmail string
	logger            *slog.Logger
}

// NewAuthService creates a new AuthService. Registration with initialAdminEmail yields an admin.
func NewAuthService(userRepo repository.UserRepository, tokens *utils.TokenService, hasher *utils.PasswordHasher, initialAdminEmail string, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		userRepo:          userRepo,
		tokens:            tokens,
		hasher:            hasher,
		initialAdminEmail: normalizeEmail(initialAdminEmail),
		logger:            logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account with the default role
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, apperr.Conflict(MsgEmailTaken)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		role = model.RoleAdmin
		s.logger.InfoContext(ctx, "registering initial admin", slog.String("email", email))
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}
	// A concurrent registration with the same email loses on the unique constraint.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and returns a fresh token pair
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *utils.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		s.hasher.VerifyDummy(password)
		return nil, nil, apperr.InvalidCredential(MsgInvalidCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, apperr.InvalidCredential(MsgInvalidCredentials)
	}

	tokens, err := s.tokens.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.Validation(MsgRefreshTokenRequired)
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", slog.Any("error", err))
		return nil, apperr.Wrap(apperr.KindInvalidCredential, MsgInvalidRefreshToken, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}
	if user == nil {
		return nil, apperr.InvalidCredential(MsgUserNotFound)
	}

	return s.tokens.IssueTokenPair(user)
}
