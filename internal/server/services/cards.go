package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/dbx"
	"github.com/kymbms/name-card-manage/internal/server/models"
	"github.com/kymbms/name-card-manage/internal/server/repositories/repomanager"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// CardService stores and serves the per-user card documents. Payloads are
// opaque CBOR blobs; the only server-side interpretation is the shallow
// field merge done by Patch.
type CardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCardService(db *sql.DB, m repomanager.RepositoryManager) *CardService {
	return &CardService{db: db, repomanager: m}
}

func validateCollection(collection wire.Collection) error {
	switch collection {
	case wire.CollectionContacts, wire.CollectionMyCard:
		return nil
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
}

func (s *CardService) Put(ctx context.Context, userID string, collection wire.Collection, cardID string, payload []byte) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	repo := s.repomanager.Cards(s.db)
	return repo.Upsert(ctx, &models.Card{
		UserID:     userID,
		Collection: string(collection),
		CardID:     cardID,
		Payload:    payload,
	})
}

// Patch merges fields into the stored document under a row lock, so two
// concurrent patches to the same card cannot lose each other's fields.
func (s *CardService) Patch(ctx context.Context, userID string, collection wire.Collection, cardID string, fields []byte) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Cards(tx)

		card, err := repo.GetForUpdate(ctx, userID, string(collection), cardID)
		if err != nil {
			return err
		}

		merged, err := mergeFields(card.Payload, fields)
		if err != nil {
			return fmt.Errorf("error merging fields: %v", err)
		}

		card.Payload = merged
		return repo.Upsert(ctx, card)
	})
}

func (s *CardService) Remove(ctx context.Context, userID string, collection wire.Collection, cardID string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	repo := s.repomanager.Cards(s.db)
	return repo.Delete(ctx, userID, string(collection), cardID)
}

// BatchPut upserts all records in one transaction: either the whole batch
// lands or none of it does.
func (s *CardService) BatchPut(ctx context.Context, userID string, collection wire.Collection, records []wire.Record) error {
	if err := validateCollection(collection); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Cards(tx)
		for _, r := range records {
			card := &models.Card{
				UserID:     userID,
				Collection: string(collection),
				CardID:     r.ID,
				Payload:    r.Payload,
			}
			if err := repo.Upsert(ctx, card); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CardService) Get(ctx context.Context, userID string, collection wire.Collection, cardID string) (*models.Card, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	repo := s.repomanager.Cards(s.db)
	return repo.Get(ctx, userID, string(collection), cardID)
}

// List returns the full current contents of one collection, in the form
// snapshot pushes use.
func (s *CardService) List(ctx context.Context, userID string, collection wire.Collection) ([]wire.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	repo := s.repomanager.Cards(s.db)
	cards, err := repo.List(ctx, userID, string(collection))
	if err != nil {
		return nil, err
	}

	records := make([]wire.Record, 0, len(cards))
	for _, c := range cards {
		records = append(records, wire.Record{ID: c.CardID, Payload: c.Payload})
	}
	return records, nil
}

// mergeFields applies a shallow merge of the patch fields over the stored
// CBOR document and re-encodes the result.
func mergeFields(payload, fields []byte) ([]byte, error) {
	doc := map[string]any{}
	if err := cbor.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if err := cbor.Unmarshal(fields, &patch); err != nil {
		return nil, err
	}

	for k, v := range patch {
		doc[k] = v
	}

	return cbor.Marshal(doc)
}
