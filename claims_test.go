package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionClaimsAccessors(t *testing.T) {
	userID := uuid.NewString()
	issued := time.Now().Truncate(time.Second)
	expires := issued.Add(24 * time.Hour)

	claims := &accounts.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "accounts-test",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UID: userID,
	}

	assert.Equal(t, userID, claims.Subject())
	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, issued.Unix(), claims.IssuedAt().Unix())
	assert.Equal(t, expires.Unix(), claims.Expires().Unix())
}

func TestSessionClaimsUserIDFallsBackToSubject(t *testing.T) {
	userID := uuid.NewString()

	claims := &accounts.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}

	assert.Equal(t, userID, claims.UserID())
}

func TestSessionClaimsZeroTimes(t *testing.T) {
	claims := &accounts.SessionClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
