package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObject(t *testing.T) {
	userID := uuid.New().String()
	now := time.Now()
	sessionData := map[string]any{
		"theme": "dark",
	}

	session := &accounts.SessionObject{
		UserID:         userID,
		Audience:       []string{"api"},
		Issuer:         "accounts-test",
		IssuedAt:       &now,
		ExpirationDate: &now,
		Data:           sessionData,
	}

	assert.Equal(t, userID, session.GetUserID())

	userUUID, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, userUUID.String())

	assert.Equal(t, []string{"api"}, session.GetAudience())
	assert.Equal(t, "accounts-test", session.GetIssuer())
	assert.Equal(t, &now, session.GetIssuedAt())
	assert.Equal(t, sessionData, session.GetData())

	stringRep := session.String()
	assert.Contains(t, stringRep, userID)
	assert.Contains(t, stringRep, "api")
	assert.Contains(t, stringRep, "accounts-test")
}

func TestSessionObjectBadUUID(t *testing.T) {
	session := &accounts.SessionObject{UserID: "not-a-uuid"}

	_, err := session.GetUserUUID()
	assert.Error(t, err)
}
