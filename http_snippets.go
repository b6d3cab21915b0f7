package accounts

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterSnippetRoutes mounts the snippet history endpoints. Every route
// requires a valid session.
func RegisterSnippetRoutes[T any](app router.Router[T], opts ...SnippetControllerOption) {
	controller := NewSnippetController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(),
	)

	app.Get(controller.Routes.Collection, controller.List, protected).
		SetName("snippets.list")

	app.Post(controller.Routes.Collection, controller.Create, protected).
		SetName("snippets.create")

	app.Delete(controller.Routes.Item, controller.Delete, protected).
		SetName("snippets.delete")
}

type SnippetControllerRoutes struct {
	Collection string
	Item       string
}

type SnippetController struct {
	Logger       Logger
	Repo         RepositoryManager
	Routes       *SnippetControllerRoutes
	Auther       HTTPAuthenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

type SnippetControllerOption func(*SnippetController) *SnippetController

func NewSnippetController(opts ...SnippetControllerOption) *SnippetController {
	c := &SnippetController{
		Logger:       defLogger{},
		ErrorHandler: RespondWithError,
		Routes: &SnippetControllerRoutes{
			Collection: "/api/snippets",
			Item:       "/api/snippets/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in snippet controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in snippet controller...")
	}

	if c.Config == nil {
		panic("Missing Config in snippet controller...")
	}

	return c
}

func WithSnippetLogger(logger Logger) SnippetControllerOption {
	return func(c *SnippetController) *SnippetController {
		c.Logger = logger
		return c
	}
}

func WithSnippetRepositoryManager(repo RepositoryManager) SnippetControllerOption {
	return func(c *SnippetController) *SnippetController {
		c.Repo = repo
		return c
	}
}

func WithSnippetAuthenticator(auther HTTPAuthenticator, cfg Config) SnippetControllerOption {
	return func(c *SnippetController) *SnippetController {
		c.Auther = auther
		c.Config = cfg
		return c
	}
}

func (a *SnippetController) List(ctx router.Context) error {
	userID, err := a.sessionUserID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	snippets, err := a.Repo.Snippets().ListByOwner(ctx.Context(), userID)
	if err != nil {
		a.Logger.Error("snippet list error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"snippets": snippets,
	})
}

// SnippetCreateRequest payload
type SnippetCreateRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Validate will run validation rules
func (r SnippetCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.Language, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Code, validation.Required),
	)
}

func (a *SnippetController) Create(ctx router.Context) error {
	userID, err := a.sessionUserID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(SnippetCreateRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("snippet parse payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"text_code": "VALIDATION_ERROR",
				"message":   "Invalid request payload",
			},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"text_code": "VALIDATION_ERROR",
				"message":   "Invalid request payload",
				"fields":    FormatValidationErrorToMap(err),
			},
		})
	}

	snippet := &Snippet{
		UserID:   userID,
		Prompt:   payload.Prompt,
		Language: payload.Language,
		Code:     payload.Code,
	}

	created, err := a.Repo.Snippets().Save(ctx.Context(), snippet)
	if err != nil {
		a.Logger.Error("snippet create error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"snippet": created,
	})
}

func (a *SnippetController) Delete(ctx router.Context) error {
	userID, err := a.sessionUserID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"text_code": "VALIDATION_ERROR",
				"message":   "Invalid snippet id",
			},
		})
	}

	if err := a.Repo.Snippets().DeleteOwned(ctx.Context(), userID, id); err != nil {
		if repository.IsRecordNotFound(err) {
			return ctx.JSON(http.StatusNotFound, map[string]any{
				"error": map[string]any{
					"text_code": "SNIPPET_NOT_FOUND",
					"message":   "Snippet not found",
				},
			})
		}
		a.Logger.Error("snippet delete error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Snippet deleted",
	})
}

func (a *SnippetController) sessionUserID(ctx router.Context) (uuid.UUID, error) {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return uuid.Nil, ErrUnableToFindSession
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return uuid.Nil, ErrUnableToDecodeSession
	}

	return userID, nil
}
