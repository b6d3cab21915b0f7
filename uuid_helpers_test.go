package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHasUserUUID(t *testing.T) {
	t.Run("uuid subject", func(t *testing.T) {
		session := &accounts.SessionObject{
			UserID: uuid.NewString(),
		}

		assert.True(t, accounts.HasUserUUID(session))
	})

	t.Run("opaque subject", func(t *testing.T) {
		session := &accounts.SessionObject{
			UserID: "ext|1234567890",
		}

		assert.False(t, accounts.HasUserUUID(session))
	})

	t.Run("nil session", func(t *testing.T) {
		assert.False(t, accounts.HasUserUUID(nil))
	})
}
