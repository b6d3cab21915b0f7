package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Snippets interface {
	repository.Repository[*Snippet]

	Save(ctx context.Context, record *Snippet) (*Snippet, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*Snippet, error)
	DeleteOwned(ctx context.Context, userID, id uuid.UUID) error
}

type snippets struct {
	repository.Repository[*Snippet]
	db *bun.DB
}

var _ Snippets = (*snippets)(nil)

func NewSnippetsRepository(db *bun.DB) Snippets {
	repo := repository.NewRepository[*Snippet](db, repository.ModelHandlers[*Snippet]{
		NewRecord: func() *Snippet { return &Snippet{} },
		GetID: func(s *Snippet) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Snippet, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	return &snippets{
		Repository: repo,
		db:         db,
	}
}

func (r *snippets) Save(ctx context.Context, record *Snippet) (*Snippet, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.Create(ctx, record)
}

func (r *snippets) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*Snippet, error) {
	var records []*Snippet
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteOwned scopes the delete to the owner so a user can only remove their
// own history.
func (r *snippets) DeleteOwned(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Snippet)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id":      id.String(),
				"user_id": userID.String(),
			})
	}

	return nil
}
