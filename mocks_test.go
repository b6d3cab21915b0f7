package accounts_test

import (
	"context"
	"sync"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

// MockIdentity implements accounts.Identity
type MockIdentity struct {
	IDValue       string
	EmailValue    string
	NameValue     string
	VerifiedValue bool
}

func (m MockIdentity) ID() string          { return m.IDValue }
func (m MockIdentity) Email() string       { return m.EmailValue }
func (m MockIdentity) Name() string        { return m.NameValue }
func (m MockIdentity) EmailVerified() bool { return m.VerifiedValue }

// MockConfig implements accounts.Config
type MockConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

func NewMockConfig() *MockConfig {
	return &MockConfig{
		SigningKey:      "test-signing-key",
		SigningMethod:   "HS256",
		ContextKey:      "user",
		TokenExpiration: 24,
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
		Issuer:          "accounts-test",
		Audience:        []string{"api"},
	}
}

func (m *MockConfig) GetSigningKey() string    { return m.SigningKey }
func (m *MockConfig) GetSigningMethod() string { return m.SigningMethod }
func (m *MockConfig) GetContextKey() string    { return m.ContextKey }
func (m *MockConfig) GetTokenExpiration() int  { return m.TokenExpiration }
func (m *MockConfig) GetTokenLookup() string   { return m.TokenLookup }
func (m *MockConfig) GetAuthScheme() string    { return m.AuthScheme }
func (m *MockConfig) GetIssuer() string        { return m.Issuer }
func (m *MockConfig) GetAudience() []string    { return m.Audience }

// recordingNotifier captures verification dispatches for assertions
type recordingNotifier struct {
	mu       sync.Mutex
	sent     []sentVerification
	failWith error
}

type sentVerification struct {
	Email string
	Token string
}

func (n *recordingNotifier) SendVerification(ctx context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, sentVerification{Email: email, Token: token})
	return nil
}

func (n *recordingNotifier) Sent() []sentVerification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentVerification, len(n.sent))
	copy(out, n.sent)
	return out
}

func (n *recordingNotifier) LastToken() string {
	sent := n.Sent()
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1].Token
}
