package accounts

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RegisterAuthRoutes mounts the account endpoints. Protected routes share the
// bearer middleware built from the controller's authenticator.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(),
	)

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("signup.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("sign-out.post")

	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmailPost).
		SetName("verify-email.post")

	app.Post(controller.Routes.ResendVerification, controller.ResendVerificationPost).
		SetName("resend-verification.post")

	app.Get(controller.Routes.Me, controller.MeShow, protected).
		SetName("me.get")

	app.Post(controller.Routes.Password, controller.PasswordPost, protected).
		SetName("password.post")
}

type AuthControllerRoutes struct {
	Signup             string
	Login              string
	Logout             string
	VerifyEmail        string
	ResendVerification string
	Me                 string
	Password           string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Config       Config
	Tokens       TokenService
	Notifier     Notifier
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: RespondWithError,
		Routes: &AuthControllerRoutes{
			Signup:             "/api/auth/signup",
			Login:              "/api/auth/login",
			Logout:             "/api/auth/logout",
			VerifyEmail:        "/api/auth/verify-email",
			ResendVerification: "/api/auth/resend-verification",
			Me:                 "/api/auth/me",
			Password:           "/api/auth/password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Notifier == nil {
		c.Notifier = LogNotifier{Logger: c.Logger}
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithHTTPAuthenticator(auther HTTPAuthenticator, cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		c.Config = cfg
		return c
	}
}

func WithTokenService(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: ", "error", err)
		return a.respondValidation(ctx, map[string]string{"body": "Failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: ", "error", err)
		return a.respondValidation(ctx, FormatValidationErrorToMap(err))
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	signup := NewSignupHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	req := SignupMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if err := signup.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("signup error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"message": "User created. Verification email sent.",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.respondValidation(ctx, map[string]string{"body": "Failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, FormatValidationErrorToMap(err))
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, ErrMismatchedHashAndPassword)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"token": token,
		"user":  user.Public(),
	})
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// Validate will run validation rules
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) VerifyEmailPost(ctx router.Context) error {
	payload := new(VerifyEmailRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("verify email parse payload: ", "error", err)
		return a.respondValidation(ctx, map[string]string{"body": "Failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, FormatValidationErrorToMap(err))
	}

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Token: payload.Token,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Repo, a.Tokens)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify email error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Email verified successfully",
		"token":   res.SessionToken,
		"user":    res.User.Public(),
	})
}

// ResendVerificationRequest payload
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResendVerificationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResendVerificationPost reissues the verification link. The response does
// not reveal whether the address has an account.
func (a *AuthController) ResendVerificationPost(ctx router.Context) error {
	payload := new(ResendVerificationRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("resend verification parse payload: ", "error", err)
		return a.respondValidation(ctx, map[string]string{"body": "Failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, FormatValidationErrorToMap(err))
	}

	resend := NewResendVerificationHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	req := ResendVerificationMessage{Email: payload.Email}

	if err := resend.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("resend verification error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "If the account exists and is unverified, a new email was sent.",
	})
}

func (a *AuthController) MeShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), claims.UserID())
	if err != nil {
		a.Logger.Error("me lookup error: ", "error", err)
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"user": user.Public(),
	})
}

// LogoutPost acknowledges logout. Sessions are bearer tokens held by the
// client, the server keeps no state to clear.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Logout successful",
	})
}

// PasswordChangeRequest payload
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate will run validation rules
func (r PasswordChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) PasswordPost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	payload := new(PasswordChangeRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password change parse payload: ", "error", err)
		return a.respondValidation(ctx, map[string]string{"body": "Failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, FormatValidationErrorToMap(err))
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodeSession)
	}

	change := NewChangePasswordHandler(a.Repo)

	req := ChangePasswordMessage{
		UserID:          userID,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	if err := change.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password change error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Password updated",
	})
}

func (a *AuthController) respondValidation(ctx router.Context, fields map[string]string) error {
	return ctx.JSON(http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"text_code": "VALIDATION_ERROR",
			"message":   "Invalid request payload",
			"fields":    fields,
		},
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into field
// message pairs for the response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
