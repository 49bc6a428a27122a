package instagram

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var AnonymizeBusinessSQL = `UPDATE "businesses" AS "biz"
SET
	"access_token" = NULL,
	"token_expires_at" = NULL,
	"instagram_username" = 'DELETED',
	"is_active" = FALSE
WHERE
	"biz"."deleted_at" IS NULL
AND (
	"biz"."instagram_business_account_id" = ?
) RETURNING *;`

type Businesses interface {
	repository.Repository[*Business]

	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Business, error)
	FindByOwnerIDTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) ([]*Business, error)
	FindByInstagramAccountID(ctx context.Context, igAccountID string) ([]*Business, error)

	DeleteByOwnerID(ctx context.Context, ownerID uuid.UUID) error
	DeleteByOwnerIDTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error

	Save(ctx context.Context, record *Business) (*Business, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *Business) (*Business, error)

	AnonymizeByInstagramAccountID(ctx context.Context, igAccountID string) error
}

type businesses struct {
	repository.Repository[*Business]
	db *bun.DB
}

var (
	_ Businesses                       = (*businesses)(nil)
	_ repository.Repository[*Business] = (*businesses)(nil)
)

func NewBusinessesRepository(db *bun.DB) Businesses {
	repo := repository.NewRepository[*Business](db, repository.ModelHandlers[*Business]{
		NewRecord: func() *Business { return &Business{} },
		GetID: func(b *Business) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Business, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
	})

	return &businesses{
		Repository: repo,
		db:         db,
	}
}

func (r *businesses) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Business, error) {
	return r.FindByOwnerIDTx(ctx, r.db, ownerID)
}

func (r *businesses) FindByOwnerIDTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) ([]*Business, error) {
	var records []*Business
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *businesses) FindByInstagramAccountID(ctx context.Context, igAccountID string) ([]*Business, error) {
	var records []*Business
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.instagram_business_account_id = ?", igAccountID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *businesses) DeleteByOwnerID(ctx context.Context, ownerID uuid.UUID) error {
	return r.DeleteByOwnerIDTx(ctx, r.db, ownerID)
}

// DeleteByOwnerIDTx removes every Business row owned by the user. The delete
// is hard: a reconnect must not leave stale credentials recoverable.
func (r *businesses) DeleteByOwnerIDTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Business)(nil)).
		Where("owner_id = ?", ownerID).
		ForceDelete().
		Exec(ctx)
	return err
}

func (r *businesses) Save(ctx context.Context, record *Business) (*Business, error) {
	return r.SaveTx(ctx, r.db, record)
}

func (r *businesses) SaveTx(ctx context.Context, tx bun.IDB, record *Business) (*Business, error) {
	prepareBusinessDefaults(record)

	existing, err := r.Repository.GetByIdentifierTx(ctx, tx, record.ID.String())
	if err == nil && existing != nil {
		return r.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
	}

	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return r.Repository.CreateTx(ctx, tx, record)
}

// AnonymizeByInstagramAccountID strips the credential and PII from every
// Business row mapped to the account, keeping referential integrity for
// deletion callbacks instead of hard deleting.
func (r *businesses) AnonymizeByInstagramAccountID(ctx context.Context, igAccountID string) error {
	res, err := r.Repository.RawTx(ctx, r.db, AnonymizeBusinessSQL, igAccountID)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"instagram_business_account_id": igAccountID,
			})
	}

	return nil
}

func prepareBusinessDefaults(record *Business) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		if record.InstagramBusinessAccountID != "" {
			if id, err := hashid.NewUUID(record.OwnerID.String() + ":" + record.InstagramBusinessAccountID); err == nil {
				record.ID = id
			}
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}
