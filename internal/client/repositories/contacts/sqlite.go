package contacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/dbx"
)

// SQLiteRepository implements Repository over the local sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const contactColumns = `id, name, company, role, phone, fax, email, address, website, memo,
		tags, is_favorite, color, photo, card_front, card_back, orientation`

func (r *SQLiteRepository) GetAll(ctx context.Context, namespace string) ([]models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE namespace=? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	defer rows.Close()

	var result []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, namespace string, records []models.Contact) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE namespace=?`, namespace); err != nil {
			return fmt.Errorf("failed to clear contacts: %w", err)
		}
		query := `INSERT INTO contacts (namespace, ` + contactColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, c := range records {
			tags, err := json.Marshal(c.Tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags: %w", err)
			}
			_, err = tx.ExecContext(ctx, query,
				namespace, c.ID, c.Name, c.Company, c.Role, c.Phone, c.Fax, c.Email,
				c.Address, c.Website, c.Memo, string(tags), c.IsFavorite, c.Color,
				c.Photo, c.CardFront, c.CardBack, string(c.Orientation))
			if err != nil {
				return fmt.Errorf("failed to insert contact %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Purge(ctx context.Context, namespace string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE namespace=?`, namespace); err != nil {
		return fmt.Errorf("failed to purge contacts: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanContact reads one contact row. A corrupt tags column is tolerated:
// the record keeps its other fields and the tags come back empty.
func scanContact(row rowScanner) (models.Contact, error) {
	var (
		c           models.Contact
		tags        string
		orientation string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Role, &c.Phone, &c.Fax, &c.Email,
		&c.Address, &c.Website, &c.Memo, &tags, &c.IsFavorite, &c.Color,
		&c.Photo, &c.CardFront, &c.CardBack, &orientation)
	if err != nil {
		return models.Contact{}, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		c.Tags = nil
	}
	c.Orientation = models.Orientation(orientation)
	return c, nil
}
