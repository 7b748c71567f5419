package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andamios/andamios-api/internal/core/domain"
)

const itemColumns = `id, name, description, created_at, updated_at`

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		id int64
		it domain.Item
	)
	if err := row.Scan(&id, &it.Name, &it.Description, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.ID = strconv.FormatInt(id, 10)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO items (name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+itemColumns,
		item.Name, item.Description, item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	created, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return created, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) Update(ctx context.Context, id string, update domain.ItemUpdate) (*domain.Item, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE items SET
		     name        = COALESCE($2, name),
		     description = COALESCE($3, description),
		     updated_at  = $4
		 WHERE id = $1
		 RETURNING `+itemColumns,
		key, update.Name, update.Description, time.Now().UTC(),
	)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return domain.ErrItemNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}
