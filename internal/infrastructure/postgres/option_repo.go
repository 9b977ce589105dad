package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lewebsimple/autologin/internal/domain"
)

type OptionRepository struct {
	pool *pgxpool.Pool
}

func NewOptionRepository(pool *pgxpool.Pool) *OptionRepository {
	return &OptionRepository{pool: pool}
}

func (r *OptionRepository) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM autologin_options WHERE name = $1`,
		name,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOptionNotFound
		}
		return nil, fmt.Errorf("get option %q: %w", name, err)
	}
	return value, nil
}

// AddIfAbsent relies on the primary key so concurrent installs cannot both win.
func (r *OptionRepository) AddIfAbsent(ctx context.Context, name string, value []byte) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO autologin_options (name, value) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, value,
	)
	if err != nil {
		return false, fmt.Errorf("add option %q: %w", name, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OptionRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM autologin_options WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete option %q: %w", name, err)
	}
	return nil
}
