package accounts

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// LoginPayload carries the credentials of a login request
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// HTTPAuthenticator bridges the Authenticator to router handlers
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload) (string, error)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	MakeClientRouteAuthErrorHandler() func(router.Context, error) error
}

type RouteAuthenticator struct {
	auth          Authenticator
	cfg           Config
	validator     TokenValidator
	tokenDuration time.Duration
	Logger        Logger
	ErrorHandler  func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	tokenDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		tokenDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:           cfg,
		auth:          auther,
		Logger:        defLogger{},
		tokenDuration: tokenDuration,
	}

	if provider, ok := auther.(interface{ TokenValidator() TokenValidator }); ok {
		a.validator = provider.TokenValidator()
	}

	if a.validator == nil {
		return nil, errors.New("authenticator does not expose a token validator", errors.CategoryInternal)
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

func (a RouteAuthenticator) GetTokenDuration() time.Duration {
	return a.tokenDuration
}

// ProtectedRoute gates a route on a valid bearer token. Claims end up in
// Locals under the configured context key.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: validatorBridge{a.validator},
			ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(c, ac)
				}
				return c
			},
		})(hf)
	}
}

// Login exchanges credentials for a session token. No cookie is set, the
// client holds the token and replays it as a bearer header.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}
	return token, nil
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return RespondWithError(c, richErr)
}

// validatorBridge adapts the package validator to the middleware interface.
type validatorBridge struct {
	validator TokenValidator
}

func (b validatorBridge) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := b.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RespondWithError writes the JSON error envelope clients key off of. Status
// comes from the rich error code, unknown errors become opaque 500s.
func RespondWithError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"text_code": richErr.TextCode,
			"message":   richErr.Message,
		},
	})
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return http.StatusUnauthorized
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
