package mycard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/common"
)

// SQLiteRepository implements Repository over the local sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, namespace string) (*models.Contact, error) {
	query := `SELECT name, company, role, phone, fax, email, address, website, memo,
		tags, is_favorite, color, photo, card_front, card_back, orientation
		FROM mycards WHERE namespace=?`
	row := r.db.QueryRowContext(ctx, query, namespace)

	var (
		c           models.Contact
		tags        string
		orientation string
	)
	err := row.Scan(&c.Name, &c.Company, &c.Role, &c.Phone, &c.Fax, &c.Email,
		&c.Address, &c.Website, &c.Memo, &tags, &c.IsFavorite, &c.Color,
		&c.Photo, &c.CardFront, &c.CardBack, &orientation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select my card: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		c.Tags = nil
	}
	c.ID = models.MyCardID
	c.Orientation = models.Orientation(orientation)
	return &c, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, namespace string, card models.Contact) error {
	tags, err := json.Marshal(card.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	query := `INSERT INTO mycards (namespace, name, company, role, phone, fax, email, address,
			website, memo, tags, is_favorite, color, photo, card_front, card_back, orientation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace) DO UPDATE SET
			name=excluded.name, company=excluded.company, role=excluded.role,
			phone=excluded.phone, fax=excluded.fax, email=excluded.email,
			address=excluded.address, website=excluded.website, memo=excluded.memo,
			tags=excluded.tags, is_favorite=excluded.is_favorite, color=excluded.color,
			photo=excluded.photo, card_front=excluded.card_front,
			card_back=excluded.card_back, orientation=excluded.orientation`
	_, err = r.db.ExecContext(ctx, query,
		namespace, card.Name, card.Company, card.Role, card.Phone, card.Fax, card.Email,
		card.Address, card.Website, card.Memo, string(tags), card.IsFavorite, card.Color,
		card.Photo, card.CardFront, card.CardBack, string(card.Orientation))
	if err != nil {
		return fmt.Errorf("failed to save my card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Purge(ctx context.Context, namespace string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mycards WHERE namespace=?`, namespace); err != nil {
		return fmt.Errorf("failed to purge my card: %w", err)
	}
	return nil
}
