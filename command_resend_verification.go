package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResendVerificationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *ResendVerificationResponse)
}

func (m ResendVerificationMessage) Type() string { return "account.resend_verification" }

type ResendVerificationResponse struct {
	// Dispatched is false when the account is missing or already verified.
	// The HTTP layer reports success either way to avoid leaking which
	// addresses have accounts.
	Dispatched bool
	Success    bool
}

type ResendVerificationHandler struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger
}

func NewResendVerificationHandler(repo RepositoryManager, notifier Notifier) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:     repo,
		notifier: notifier,
		logger:   defLogger{},
	}
}

func (h *ResendVerificationHandler) WithLogger(l Logger) *ResendVerificationHandler {
	h.logger = l
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	resp := &ResendVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
		}

		if user.EmailValidated {
			user = nil
			return nil
		}

		// Reissue invalidates any outstanding link so only the newest
		// token can redeem.
		if err := h.repo.VerificationTokens().InvalidateForUserTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to invalidate previous tokens")
		}

		if token, err = h.repo.VerificationTokens().IssueTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification resend transaction failed")
	}

	if user != nil {
		if err := h.notifier.SendVerification(ctx, user.Email, token); err != nil {
			if derr := h.repo.VerificationTokens().DeleteToken(ctx, token); derr != nil {
				h.logger.Error("failed to remove undelivered verification token", "user_id", user.ID, "error", derr)
			}
			return err
		}
		resp.Dispatched = true
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
