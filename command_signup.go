package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Name       string `json:"name" example:"Pepe Rone" doc:"Display name."`
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password   string `json:"password" doc:"Plain text password, hashed before storage."`
	OnResponse func(resp *SignupResponse)
}

func (m SignupMessage) Type() string { return "account.signup" }

type SignupResponse struct {
	User    *User
	Token   string
	Success bool
}

type SignupHandler struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
}

func NewSignupHandler(repo RepositoryManager, notifier Notifier) *SignupHandler {
	return &SignupHandler{
		repo:     repo,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *SignupHandler) WithLogger(l Logger) *SignupHandler {
	h.logger = l
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	user := &User{}
	resp := &SignupResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Name = event.Name
		user.Email = event.Email
		user.PasswordHash = hash

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		token, err := h.repo.VerificationTokens().IssueTx(ctx, tx, user.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
		}

		resp.User = user
		resp.Token = token

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	// Dispatch outside the transaction. If the email cannot be sent we remove
	// the token so the account does not hold a link that was never delivered;
	// the user recovers through the resend verification flow.
	if err := h.notifier.SendVerification(ctx, resp.User.Email, resp.Token); err != nil {
		if derr := h.repo.VerificationTokens().DeleteToken(ctx, resp.Token); derr != nil {
			h.logger.Error("failed to remove undelivered verification token", "user_id", resp.User.ID, "error", derr)
		}
		return err
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
