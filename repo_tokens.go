package accounts

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationTokenTTL is how long a verification link stays redeemable.
var VerificationTokenTTL = 24 * time.Hour

// RedeemTokenSQL deletes and returns the binding in one statement. The single
// atomic delete is what guarantees a token redeems at most once under
// concurrent requests; never split this into a select followed by a delete.
var RedeemTokenSQL = `DELETE FROM "verification_tokens"
WHERE
	"token" = ?
AND
	"created_at" > ?
RETURNING "user_id";`

type VerificationTokens interface {
	repository.Repository[*VerificationToken]

	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (string, error)

	Redeem(ctx context.Context, token string) (uuid.UUID, error)
	RedeemTx(ctx context.Context, tx bun.IDB, token string) (uuid.UUID, error)

	InvalidateForUser(ctx context.Context, userID uuid.UUID) error
	InvalidateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error

	DeleteToken(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type verificationTokens struct {
	repository.Repository[*VerificationToken]
	db  *bun.DB
	ttl time.Duration
}

var _ VerificationTokens = (*verificationTokens)(nil)

type VerificationTokensOption func(*verificationTokens)

// WithVerificationTokenTTL overrides the default 24h redemption window.
func WithVerificationTokenTTL(ttl time.Duration) VerificationTokensOption {
	return func(v *verificationTokens) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

func NewVerificationTokensRepository(db *bun.DB, opts ...VerificationTokensOption) VerificationTokens {
	repo := repository.NewRepository[*VerificationToken](db, repository.ModelHandlers[*VerificationToken]{
		NewRecord: func() *VerificationToken { return &VerificationToken{} },
		GetID: func(t *VerificationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *VerificationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	tokens := &verificationTokens{
		Repository: repo,
		db:         db,
		ttl:        VerificationTokenTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(tokens)
		}
	}

	return tokens
}

func (r *verificationTokens) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	return r.IssueTx(ctx, r.db, userID)
}

// IssueTx mints a fresh high entropy token bound to the user. Callers that
// want the single-outstanding-link policy pair this with InvalidateForUserTx
// in the same transaction.
func (r *verificationTokens) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (string, error) {
	token, err := generateVerificationToken()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}

	// set created_at here rather than relying on the column default so the
	// redeem cutoff compares values the driver encoded the same way
	now := time.Now()
	record := &VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		CreatedAt: &now,
	}

	if _, err := r.Repository.CreateTx(ctx, tx, record); err != nil {
		return "", err
	}

	return token, nil
}

func (r *verificationTokens) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	return r.RedeemTx(ctx, r.db, token)
}

// RedeemTx consumes the token: exactly one caller gets the bound user id,
// everyone else gets ErrVerificationNotFound. An expired row fails the
// created_at predicate even if the purge pass has not removed it yet.
func (r *verificationTokens) RedeemTx(ctx context.Context, tx bun.IDB, token string) (uuid.UUID, error) {
	cutoff := time.Now().Add(-r.ttl)

	var userID uuid.UUID
	err := tx.NewRaw(RedeemTokenSQL, token, cutoff).Scan(ctx, &userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, ErrVerificationNotFound
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to redeem verification token")
	}

	return userID, nil
}

func (r *verificationTokens) InvalidateForUser(ctx context.Context, userID uuid.UUID) error {
	return r.InvalidateForUserTx(ctx, r.db, userID)
}

func (r *verificationTokens) InvalidateForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)
	return err
}

// DeleteToken is the compensating action when delivery fails after issuance.
func (r *verificationTokens) DeleteToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)
	return err
}

// PurgeExpired removes rows past the TTL. Redemption already refuses them, so
// this only keeps the table small; run it from a background ticker.
func (r *verificationTokens) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-r.ttl)

	res, err := r.db.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("?TableAlias.created_at <= ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func generateVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
