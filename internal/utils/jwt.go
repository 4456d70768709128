package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"propelize/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RefreshTokenType marks the payload of every refresh token.
	RefreshTokenType = "refresh"
)

var (
	// ErrInvalidToken is returned for every verification failure: bad
	// signature, expiry, malformed input or wrong token class.
	ErrInvalidToken = errors.New("invalid token")

	ErrEmptySecret   = errors.New("token secrets must not be empty")
	ErrSharedSecrets = errors.New("access and refresh secrets must differ")
)

// AccessClaims custom claims for access tokens
type AccessClaims struct {
	ID    int        `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims custom claims for refresh tokens
type RefreshClaims struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login and on refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds until the access token expires
}

// TokenService issues and verifies access and refresh tokens. Each token
// class is signed with its own secret.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		ts.now = now
	}
}

// NewTokenService creates a new TokenService
func NewTokenService(accessSecret, refreshSecret string, opts ...TokenOption) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrEmptySecret
	}
	if accessSecret == refreshSecret {
		return nil, ErrSharedSecrets
	}
	ts := &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

func (ts *TokenService) registeredClaims(userID int, ttl time.Duration) jwt.RegisteredClaims {
	now := ts.now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Subject:   strconv.Itoa(userID),
		ID:        uuid.NewString(),
	}
}

// IssueAccessToken signs a 15 minute access token for user
func (ts *TokenService) IssueAccessToken(user *model.User) (string, error) {
	claims := &AccessClaims{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		RegisteredClaims: ts.registeredClaims(user.ID, AccessTokenTTL),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// IssueRefreshToken signs a 7 day refresh token for user
func (ts *TokenService) IssueRefreshToken(user *model.User) (string, error) {
	claims := &RefreshClaims{
		ID:               user.ID,
		Email:            user.Email,
		Type:             RefreshTokenType,
		RegisteredClaims: ts.registeredClaims(user.ID, RefreshTokenTTL),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

// IssueTokenPair issues both tokens for user
func (ts *TokenService) IssueTokenPair(user *model.User) (*TokenPair, error) {
	access, err := ts.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := ts.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(AccessTokenTTL / time.Second),
	}, nil
}

// VerifyAccessToken validates an access token and returns its claims
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(tokenString, claims, ts.accessSecret); err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// VerifyRefreshToken validates a refresh token and returns its claims
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(tokenString, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != RefreshTokenType {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}

func (ts *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
