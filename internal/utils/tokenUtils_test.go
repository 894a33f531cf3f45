package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var tokenTestSecret = []byte("token-test-secret")

func TestResetTokenRoundTrip(t *testing.T) {
	recordID := primitive.NewObjectID()

	token, err := GenerateResetToken(tokenTestSecret, "alice@example.com", recordID, StageRequest, 15*time.Minute)
	require.NoError(t, err)

	claims, err := ParseResetToken(tokenTestSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, recordID.Hex(), claims.RecordID)
	assert.Equal(t, StageRequest, claims.Stage)
}

func TestParseResetTokenRejections(t *testing.T) {
	recordID := primitive.NewObjectID()

	good, err := GenerateResetToken(tokenTestSecret, "alice@example.com", recordID, StageVerified, 15*time.Minute)
	require.NoError(t, err)

	expired, err := GenerateResetToken(tokenTestSecret, "alice@example.com", recordID, StageRequest, -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"malformed", tokenTestSecret, "not-a-jwt"},
		{"empty", tokenTestSecret, ""},
		{"wrong secret", []byte("some-other-secret"), good},
		{"expired", tokenTestSecret, expired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ParseResetToken(tc.secret, tc.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidResetToken)
		})
	}
}

func TestGenerateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(tokenTestSecret, primitive.NewObjectID(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
