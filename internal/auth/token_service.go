package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khanghh/kcentral/internal/common"
	"github.com/khanghh/kcentral/internal/store"
	"github.com/khanghh/kcentral/model"
	"github.com/khanghh/kcentral/params"
)

type TokenType string

const (
	TokenTypeAccess   TokenType = "access"
	TokenTypeRefresh  TokenType = "refresh"
	TokenTypeRecovery TokenType = "recovery"
)

type Claims struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// RecoveryTicket marks a recovery token as not yet used.
type RecoveryTicket struct {
	TokenID   string `json:"tokenID"   redis:"token_id"`
	UserID    uint   `json:"userID"    redis:"user_id"`
	ExpiresAt int64  `json:"expiresAt" redis:"expires_at"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenConfig struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RecoveryTTL time.Duration
}

type TokenService struct {
	masterKey     string
	config        TokenConfig
	recoveryStore store.Store[RecoveryTicket]
}

func (s *TokenService) sign(user *model.User, tokenType TokenType, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.masterKey))
	if err != nil {
		return "", nil, err
	}
	return signedToken, claims, nil
}

func (s *TokenService) IssueTokenPair(user *model.User) (*TokenPair, error) {
	access, _, err := s.sign(user, TokenTypeAccess, s.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.sign(user, TokenTypeRefresh, s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify parses the token and checks its signature and expiry.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.masterKey), nil
	}, jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	switch claims.TokenType {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeRecovery:
	default:
		return nil, ErrTokenType
	}
	return &claims, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	claims, err := s.Verify(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", ErrTokenType
	}
	user := &model.User{ID: claims.UserID, Username: claims.Username, Email: claims.Email}
	access, _, err := s.sign(user, TokenTypeAccess, s.config.AccessTTL)
	return access, err
}

func (s *TokenService) recoveryKey(tokenID string) string {
	return common.CalculateHash(s.masterKey, tokenID)
}

// IssueRecoveryToken mints a single use token for resetting the password of
// user. It stays valid until consumed or expired.
func (s *TokenService) IssueRecoveryToken(ctx context.Context, user *model.User) (string, error) {
	token, claims, err := s.sign(user, TokenTypeRecovery, s.config.RecoveryTTL)
	if err != nil {
		return "", err
	}
	ticket := RecoveryTicket{
		TokenID:   claims.ID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	if err := s.recoveryStore.Set(ctx, s.recoveryKey(claims.ID), ticket, s.config.RecoveryTTL); err != nil {
		return "", fmt.Errorf("register recovery token: %w", err)
	}
	return token, nil
}

// CheckRecoveryToken reports whether the recovery token is still unused.
func (s *TokenService) CheckRecoveryToken(ctx context.Context, claims *Claims) error {
	ticket, err := s.recoveryStore.Get(ctx, s.recoveryKey(claims.ID))
	if errors.Is(err, store.ErrNotFound) {
		return ErrRecoveryConsumed
	}
	if err != nil {
		return err
	}
	if ticket.UserID != claims.UserID || time.Now().Unix() > ticket.ExpiresAt {
		return ErrRecoveryConsumed
	}
	return nil
}

// ConsumeRecoveryToken removes the registration of a recovery token. Only the
// first caller succeeds.
func (s *TokenService) ConsumeRecoveryToken(ctx context.Context, claims *Claims) error {
	err := s.recoveryStore.Delete(ctx, s.recoveryKey(claims.ID))
	if errors.Is(err, store.ErrNotFound) {
		return ErrRecoveryConsumed
	}
	return err
}

func (s *TokenService) RecoveryTTL() time.Duration {
	return s.config.RecoveryTTL
}

func NewTokenService(masterKey string, storage store.Storage, config TokenConfig) *TokenService {
	if config.AccessTTL <= 0 {
		config.AccessTTL = params.AccessTokenExpiration
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = params.RefreshTokenExpiration
	}
	if config.RecoveryTTL <= 0 {
		config.RecoveryTTL = params.RecoveryTokenExpiration
	}
	return &TokenService{
		masterKey:     masterKey,
		config:        config,
		recoveryStore: store.New[RecoveryTicket](storage, params.RecoveryTokenKeyPrefix),
	}
}
