package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccountLifecycle walks the whole happy path: signup, email dispatch,
// verification, the session issued on verification, a regular login, and a
// password change against the live session.
func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	notifier := &recordingNotifier{}

	provider := accounts.NewUserProvider(usersTracker{users: repo.Users()})
	auther := accounts.NewAuthenticator(provider, NewMockConfig())
	tokens := auther.TokenService()

	signup := accounts.NewSignupHandler(repo, notifier)
	verify := accounts.NewVerifyEmailHandler(repo, tokens)
	change := accounts.NewChangePasswordHandler(repo)

	// signup stores the user unverified and dispatches exactly one email
	var signupResp *accounts.SignupResponse
	err := signup.Execute(ctx, accounts.SignupMessage{
		Name:     "Pepe Rone",
		Email:    "pepe.rone@example.com",
		Password: "secret123",
		OnResponse: func(r *accounts.SignupResponse) {
			signupResp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, signupResp)
	require.Len(t, notifier.Sent(), 1)
	assert.False(t, signupResp.User.EmailValidated)

	// the emailed token verifies the account and logs the user in
	var verifyResp *accounts.VerifyEmailResponse
	err = verify.Execute(ctx, accounts.VerifyEmailMessage{
		Token: notifier.LastToken(),
		OnResponse: func(r *accounts.VerifyEmailResponse) {
			verifyResp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, verifyResp)
	assert.True(t, verifyResp.User.EmailValidated)

	claims, err := tokens.Validate(verifyResp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, signupResp.User.ID.String(), claims.UserID())

	// the link is single use
	err = verify.Execute(ctx, accounts.VerifyEmailMessage{Token: notifier.LastToken()})
	assert.ErrorIs(t, err, accounts.ErrVerificationNotFound)

	// a regular login works with the original credentials
	loginToken, err := auther.Login(ctx, "pepe.rone@example.com", "secret123")
	require.NoError(t, err)

	session, err := auther.SessionFromToken(loginToken)
	require.NoError(t, err)
	assert.Equal(t, signupResp.User.ID.String(), session.GetUserID())

	// password change invalidates the old password for future logins
	err = change.Execute(ctx, accounts.ChangePasswordMessage{
		UserID:          signupResp.User.ID,
		CurrentPassword: "secret123",
		NewPassword:     "rotated456",
	})
	require.NoError(t, err)

	_, err = auther.Login(ctx, "pepe.rone@example.com", "secret123")
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)

	_, err = auther.Login(ctx, "pepe.rone@example.com", "rotated456")
	require.NoError(t, err)
}
