package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/uuid"
)

const issuer = "finanzas-api"

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	// Fingerprint ties a reset token to the password hash it was issued
	// against, so the token stops working once the password changes.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
func (m *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeAccess, m.accessTTL, "")
}

// GenerateRefreshToken generates a long-lived JWT refresh token for a user.
func (m *TokenManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeRefresh, m.refreshTTL, "")
}

// GenerateResetToken generates a password reset token bound to the user's
// current password hash.
func (m *TokenManager) GenerateResetToken(user *models.User) (string, error) {
	return m.sign(user, TokenTypeReset, m.resetTTL, PasswordFingerprint(user.Password))
}

// ValidateAccessToken parses an access token.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return m.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken parses and validates a refresh token JWT.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.validate(tokenString, TokenTypeRefresh)
}

// ValidateResetToken parses a password reset token. Callers must still
// compare the fingerprint against the stored password hash.
func (m *TokenManager) ValidateResetToken(tokenString string) (*JWTClaims, error) {
	return m.validate(tokenString, TokenTypeReset)
}

func (m *TokenManager) sign(user *models.User, tokenType string, ttl time.Duration, fingerprint string) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		UserID:      user.ID,
		Email:       user.Email,
		TokenType:   tokenType,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
			ID:        uuid.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) validate(tokenString, tokenType string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))

	if err != nil || !token.Valid {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// PasswordFingerprint is a short digest of a password hash.
func PasswordFingerprint(passwordHash string) string {
	return HashToken(passwordHash)[:16]
}
