package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracker keeps users in memory and records tracking calls
type fakeTracker struct {
	users     map[string]*accounts.User
	attempts  int
	successes int
}

func newFakeTracker(users ...*accounts.User) *fakeTracker {
	t := &fakeTracker{users: map[string]*accounts.User{}}
	for _, u := range users {
		t.users[u.Email] = u
	}
	return t
}

func (f *fakeTracker) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	user, ok := f.users[identifier]
	if !ok {
		return nil, accounts.ErrIdentityNotFound
	}
	return user, nil
}

func (f *fakeTracker) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	f.attempts++
	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	return nil
}

func (f *fakeTracker) TrackSucccessfulLogin(ctx context.Context, user *accounts.User) error {
	f.successes++
	user.LoginAttempts = 0
	now := time.Now()
	user.LoggedInAt = &now
	return nil
}

func testUser(t *testing.T, email, password string) *accounts.User {
	t.Helper()
	hash, err := accounts.HashPassword(password)
	require.NoError(t, err)
	return &accounts.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
	}
}

func TestVerifyIdentity(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	identity, err := provider.VerifyIdentity(context.Background(), user.Email, "secret123")
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, user.Email, identity.Email())
	assert.Equal(t, 1, tracker.successes)
}

func TestVerifyIdentityUnknownAndWrongPasswordLookAlike(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	_, errUnknown := provider.VerifyIdentity(context.Background(), "ghost@example.com", "secret123")
	_, errWrongPwd := provider.VerifyIdentity(context.Background(), user.Email, "wrong-password")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPwd)

	// same error either way so the endpoint cannot confirm which emails exist
	assert.ErrorIs(t, errUnknown, accounts.ErrMismatchedHashAndPassword)
	assert.ErrorIs(t, errWrongPwd, accounts.ErrMismatchedHashAndPassword)
	assert.Equal(t, errUnknown.Error(), errWrongPwd.Error())
}

func TestVerifyIdentityAgainstStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "pepe.rone@example.com", "secret123")
	provider := accounts.NewUserProvider(usersTracker{users: repo.Users()})

	_, errUnknown := provider.VerifyIdentity(ctx, "ghost@example.com", "secret123")
	_, errWrongPwd := provider.VerifyIdentity(ctx, user.Email, "wrong-password")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPwd)

	// same error either way so the endpoint cannot confirm which emails exist
	assert.ErrorIs(t, errUnknown, accounts.ErrMismatchedHashAndPassword)
	assert.ErrorIs(t, errWrongPwd, accounts.ErrMismatchedHashAndPassword)
	assert.Equal(t, errUnknown.Error(), errWrongPwd.Error())

	// the failed attempt made it to storage without clobbering other columns
	got, err := repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LoginAttempts)
	assert.NotNil(t, got.LoginAttemptAt)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.NotNil(t, got.CreatedAt)

	identity, err := provider.VerifyIdentity(ctx, user.Email, "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
}

func TestVerifyIdentityTracksFailedAttempts(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	for i := 0; i < 3; i++ {
		_, err := provider.VerifyIdentity(context.Background(), user.Email, "wrong")
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	}

	assert.Equal(t, 3, tracker.attempts)
	assert.Equal(t, 3, user.LoginAttempts)
}

func TestVerifyIdentityCoolDown(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	now := time.Now()
	user.LoginAttempts = accounts.MaxLoginAttempts + 1
	user.LoginAttemptAt = &now

	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	_, err := provider.VerifyIdentity(context.Background(), user.Email, "secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrTooManyLoginAttempts)
}

func TestVerifyIdentityCoolDownExpires(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	old := time.Now().Add(-25 * time.Hour)
	user.LoginAttempts = accounts.MaxLoginAttempts + 1
	user.LoginAttemptAt = &old

	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	identity, err := provider.VerifyIdentity(context.Background(), user.Email, "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.Email, identity.Email())
}

func TestFindIdentityByIdentifier(t *testing.T) {
	user := testUser(t, "pepe.rone@example.com", "secret123")
	tracker := newFakeTracker(user)
	provider := accounts.NewUserProvider(tracker)

	identity, err := provider.FindIdentityByIdentifier(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())

	_, err = provider.FindIdentityByIdentifier(context.Background(), "ghost@example.com")
	require.Error(t, err)
}
