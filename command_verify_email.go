package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" doc:"Single use verification token from the email link."`
	OnResponse func(resp *VerifyEmailResponse)
}

func (m VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailResponse struct {
	SessionToken string
	User         *User
	Success      bool
}

type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens TokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{repo: repo, tokens: tokens}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Token == "" {
		return ErrVerificationNotFound
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		userID, err := h.repo.VerificationTokens().RedeemTx(ctx, tx, event.Token)
		if err != nil {
			return err
		}

		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, userID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrVerifiedUserMissing
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for verification")
		}

		if err := h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
		}

		user.EmailValidated = true
		resp.User = user

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	// Verification doubles as login: mint the session once the row is
	// committed so a signing failure never rolls back the verified flag.
	token, err := h.tokens.Generate(identityFromUser(resp.User))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}
	resp.SessionToken = token

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
