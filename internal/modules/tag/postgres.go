package tag

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgreSQL tag repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, t *Tag) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO shopify_tags (id, shop, name)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		t.ID, t.Shop, t.Name,
	).Scan(&t.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTagExists
	}
	return err
}

func (r *postgresRepository) ListByShop(ctx context.Context, shop string) ([]*Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shop, name, created_at
		FROM shopify_tags
		WHERE shop = $1
		ORDER BY created_at ASC, name ASC`, shop)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		t := &Tag{}
		if err := rows.Scan(&t.ID, &t.Shop, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
