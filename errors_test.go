package accounts_test

import (
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured token expired error",
			err:      accounts.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "wrapped jwt library message",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "different structured error",
			err:      accounts.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured malformed error",
			err:      accounts.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "jwt library message",
			err:      errors.New("token is malformed: could not base64 decode"),
			expected: true,
		},
		{
			name:     "middleware missing token message",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "expired is not malformed",
			err:      accounts.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsMalformedError(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "sqlite unique violation",
			err:      errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			expected: true,
		},
		{
			name:     "postgres unique violation",
			err:      errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE=23505)`),
			expected: true,
		},
		{
			name:     "unrelated database error",
			err:      errors.New("database is locked"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsUniqueViolation(tt.err))
		})
	}
}

func TestSentinelCategoriesAndCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
	}{
		{"invalid credentials", accounts.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, "INVALID_CREDENTIALS"},
		{"duplicate email", accounts.ErrDuplicateEmail, goerrors.CategoryConflict, "DUPLICATE_EMAIL"},
		{"verification not found", accounts.ErrVerificationNotFound, goerrors.CategoryBadInput, "INVALID_OR_EXPIRED_TOKEN"},
		{"too many attempts", accounts.ErrTooManyLoginAttempts, goerrors.CategoryAuth, "TOO_MANY_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var richErr *goerrors.Error
			assert.True(t, goerrors.As(tt.err, &richErr))
			assert.Equal(t, tt.category, richErr.Category)
			assert.Equal(t, tt.textCode, richErr.TextCode)
		})
	}
}
