package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupWithToken(t *testing.T, repo accounts.RepositoryManager, email string) (notifier *recordingNotifier, user *accounts.User) {
	t.Helper()

	notifier = &recordingNotifier{}
	handler := accounts.NewSignupHandler(repo, notifier)

	var resp *accounts.SignupResponse
	err := handler.Execute(context.Background(), accounts.SignupMessage{
		Name:     "Pepe Rone",
		Email:    email,
		Password: "secret123",
		OnResponse: func(r *accounts.SignupResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	return notifier, resp.User
}

func TestVerifyEmailHandler(t *testing.T) {
	repo := newTestRepo(t)
	tokens := newTestTokenService()
	handler := accounts.NewVerifyEmailHandler(repo, tokens)

	notifier, user := signupWithToken(t, repo, "pepe.rone@example.com")

	var resp *accounts.VerifyEmailResponse
	err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{
		Token: notifier.LastToken(),
		OnResponse: func(r *accounts.VerifyEmailResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.EmailValidated)

	// the flag is persisted, not just set on the returned struct
	got, err := repo.Users().GetByIdentifier(context.Background(), user.Email)
	require.NoError(t, err)
	assert.True(t, got.EmailValidated)

	// verification doubles as login
	require.NotEqual(t, "", resp.SessionToken)
	claims, err := tokens.Validate(resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
}

func TestVerifyEmailHandlerInvalidToken(t *testing.T) {
	repo := newTestRepo(t)
	handler := accounts.NewVerifyEmailHandler(repo, newTestTokenService())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"unknown token", "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: tt.token})
			require.Error(t, err)
			assert.ErrorIs(t, err, accounts.ErrVerificationNotFound)
		})
	}
}

func TestVerifyEmailHandlerSingleUse(t *testing.T) {
	repo := newTestRepo(t)
	handler := accounts.NewVerifyEmailHandler(repo, newTestTokenService())

	notifier, _ := signupWithToken(t, repo, "pepe.rone@example.com")
	token := notifier.LastToken()

	require.NoError(t, handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: token}))

	err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: token})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrVerificationNotFound)
}
