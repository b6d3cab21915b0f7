package config

import (
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

// BaseConfig is the application configuration tree. go-config hydrates it
// from config files and environment providers; nothing below reads the
// environment directly.
type BaseConfig struct {
	Name        string       `koanf:"name" json:"name"`
	Env         string       `koanf:"env" json:"env"`
	Server      *Server      `koanf:"server" json:"server"`
	Auth        *Auth        `koanf:"auth" json:"auth"`
	Persistence *Persistence `koanf:"persistence" json:"persistence"`
	Mailer      *Mailer      `koanf:"mailer" json:"mailer"`
}

func (a *BaseConfig) GetName() string {
	return a.Name
}

func (a *BaseConfig) GetEnv() string {
	return a.Env
}

func (a *BaseConfig) GetServer() *Server {
	if a.Server == nil {
		a.Server = &Server{}
	}
	return a.Server
}

func (a *BaseConfig) GetAuth() *Auth {
	if a.Auth == nil {
		a.Auth = &Auth{}
	}
	return a.Auth
}

func (a *BaseConfig) GetPersistence() *Persistence {
	if a.Persistence == nil {
		a.Persistence = &Persistence{}
	}
	return a.Persistence
}

func (a *BaseConfig) GetMailer() *Mailer {
	if a.Mailer == nil {
		a.Mailer = &Mailer{}
	}
	return a.Mailer
}

// Validate fails fast on missing secrets. There are no baked in defaults for
// the signing key or the DSN.
func (a *BaseConfig) Validate() error {
	if a.GetAuth().SigningKey == "" {
		return errors.New("auth.signing_key is required", errors.CategoryValidation)
	}
	if a.GetPersistence().DSN == "" {
		return errors.New("persistence.dsn is required", errors.CategoryValidation)
	}
	return nil
}

type Server struct {
	Port           int    `koanf:"port" json:"port"`
	AllowedOrigins string `koanf:"allowed_origins" json:"allowed_origins"`
}

func (s Server) GetPort() int {
	if s.Port == 0 {
		return 8080
	}
	return s.Port
}

func (s Server) GetAddr() string {
	return fmt.Sprintf(":%d", s.GetPort())
}

func (s Server) GetAllowedOrigins() string {
	if s.AllowedOrigins == "" {
		return "http://localhost:5173"
	}
	return s.AllowedOrigins
}

// Auth satisfies the accounts.Config interface
type Auth struct {
	SigningKey      string   `koanf:"signing_key" json:"-"`
	SigningMethod   string   `koanf:"signing_method" json:"signing_method"`
	ContextKey      string   `koanf:"context_key" json:"context_key"`
	TokenExpiration int      `koanf:"token_expiration" json:"token_expiration"`
	TokenLookup     string   `koanf:"token_lookup" json:"token_lookup"`
	AuthScheme      string   `koanf:"auth_scheme" json:"auth_scheme"`
	Issuer          string   `koanf:"issuer" json:"issuer"`
	Audience        []string `koanf:"audience" json:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

// GetTokenExpiration is expressed in hours
func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 24
	}
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "accounts"
	}
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	if len(a.Audience) == 0 {
		return []string{"api"}
	}
	return a.Audience
}

type Persistence struct {
	Debug                 bool   `koanf:"debug" json:"debug"`
	Driver                string `koanf:"driver" json:"driver"`
	DSN                   string `koanf:"dsn" json:"-"`
	PingTimeoutExpression string `koanf:"ping_timeout" json:"ping_timeout"`
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

// Mailer satisfies the accounts.MailerConfig interface
type Mailer struct {
	Enabled           bool   `koanf:"enabled" json:"enabled"`
	Host              string `koanf:"host" json:"host"`
	Port              int    `koanf:"port" json:"port"`
	Username          string `koanf:"username" json:"-"`
	Password          string `koanf:"password" json:"-"`
	FromName          string `koanf:"from_name" json:"from_name"`
	FromAddress       string `koanf:"from_address" json:"from_address"`
	FrontendURL       string `koanf:"frontend_url" json:"frontend_url"`
	TimeoutExpression string `koanf:"timeout" json:"timeout"`
}

func (m Mailer) GetEnabled() bool {
	return m.Enabled
}

func (m Mailer) GetHost() string {
	return m.Host
}

func (m Mailer) GetPort() int {
	if m.Port == 0 {
		return 587
	}
	return m.Port
}

func (m Mailer) GetUsername() string {
	return m.Username
}

func (m Mailer) GetPassword() string {
	return m.Password
}

func (m Mailer) GetFromName() string {
	if m.FromName == "" {
		return "AI Assistant"
	}
	return m.FromName
}

func (m Mailer) GetFromAddress() string {
	if m.FromAddress == "" {
		return m.Username
	}
	return m.FromAddress
}

func (m Mailer) GetFrontendURL() string {
	if m.FrontendURL == "" {
		return "http://localhost:5173"
	}
	return m.FrontendURL
}

func (m Mailer) GetSendTimeout() time.Duration {
	if m.TimeoutExpression == "" {
		return 15 * time.Second
	}
	dur, err := time.ParseDuration(m.TimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", m.TimeoutExpression),
		)
	}
	return dur
}
