package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/dbx"
	"github.com/kymbms/name-card-manage/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (user_id, collection, card_id, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, collection, card_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, card.UserID, card.Collection, card.CardID, card.Payload); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, collection, cardID string) (*models.Card, error) {
	query := `
		SELECT payload, updated_at
		FROM cards
		WHERE user_id = $1 AND collection = $2 AND card_id = $3
	`
	return r.get(ctx, query, userID, collection, cardID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, collection, cardID string) (*models.Card, error) {
	query := `
		SELECT payload, updated_at
		FROM cards
		WHERE user_id = $1 AND collection = $2 AND card_id = $3
		FOR UPDATE
	`
	return r.get(ctx, query, userID, collection, cardID)
}

func (r *PostgresRepository) get(ctx context.Context, query, userID, collection, cardID string) (*models.Card, error) {
	card := &models.Card{UserID: userID, Collection: collection, CardID: cardID}
	if err := r.db.QueryRowContext(ctx, query, userID, collection, cardID).Scan(&card.Payload, &card.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return card, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, collection, cardID string) error {
	query := `
		DELETE FROM cards
		WHERE user_id = $1 AND collection = $2 AND card_id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, userID, collection, cardID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, collection string) ([]*models.Card, error) {
	query := `
		SELECT card_id, payload, updated_at
		FROM cards
		WHERE user_id = $1 AND collection = $2
		ORDER BY card_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Card
	for rows.Next() {
		card := &models.Card{UserID: userID, Collection: collection}
		if err := rows.Scan(&card.CardID, &card.Payload, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
