package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo lectura del catálogo de ítems sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, code, name, unit_price`

// GetByID devuelve (nil, nil) si el ítem no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM item WHERE id = $1`, id)
}

// GetByCode busca sin distinguir mayúsculas (índice item_code_upper_idx). Devuelve (nil, nil) si no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM item WHERE upper(code) = upper($1) ORDER BY code = $1 DESC, id LIMIT 1`, code)
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg any) (*entity.Item, error) {
	var it entity.Item
	err := r.q.QueryRow(ctx, query, arg).Scan(&it.ID, &it.Code, &it.Name, &it.UnitPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get item", err)
	}
	return &it, nil
}

// Upsert inserta el ítem o actualiza nombre y precio si el código ya existe. Asigna item.ID.
func (r *ItemRepo) Upsert(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO item (code, name, unit_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, unit_price = EXCLUDED.unit_price
		RETURNING id`
	if err := r.q.QueryRow(ctx, query, item.Code, item.Name, item.UnitPrice).Scan(&item.ID); err != nil {
		return mapError("upsert item", err)
	}
	return nil
}
