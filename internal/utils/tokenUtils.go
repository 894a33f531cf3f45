package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims is the access-token payload used by the auth middleware.
type Claims struct {
	ID   string `json:"id"`
	Role int    `json:"role"`
	jwt.RegisteredClaims
}

// Reset-flow continuation token stages. A request-stage token only
// authorizes code verification; a verified-stage token only authorizes
// the final password change.
const (
	StageRequest  = "request"
	StageVerified = "verified"
)

// ResetClaims is the payload of the signed continuation tokens that
// carry the reset flow between requests without server-side sessions.
type ResetClaims struct {
	Stage    string `json:"stage"`
	RecordID string `json:"rid"`
	jwt.RegisteredClaims
}

var ErrInvalidResetToken = errors.New("invalid reset token")

// GenerateAccessToken returns a signed HS256 session token for an
// authenticated account.
func GenerateAccessToken(secret []byte, id primitive.ObjectID, role int) (string, error) {
	claims := &Claims{
		ID:   id.Hex(),
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateResetToken mints a continuation token for the password-reset
// flow, scoped to one verification record and one stage.
func GenerateResetToken(secret []byte, email string, recordID primitive.ObjectID, stage string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &ResetClaims{
		Stage:    stage,
		RecordID: recordID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseResetToken validates a continuation token and returns its claims.
// Every failure mode (malformed, bad signature, expired, not yet valid)
// collapses into ErrInvalidResetToken so callers cannot tell which check
// rejected the token.
func ParseResetToken(secret []byte, tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidResetToken
	}
	return claims, nil
}
