package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.ShelfRepository = (*ShelfRepo)(nil)

// ShelfRepo implementación del ShelfLedger sobre PostgreSQL (usable con pool o tx).
// La columna type guarda el canal como texto ('STORE' / 'WEBSITE').
type ShelfRepo struct {
	q Querier
}

// NewShelfRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShelfRepository(q Querier) *ShelfRepo {
	return &ShelfRepo{q: q}
}

type shelfRow struct {
	ID       int64  `db:"id"`
	ItemID   int64  `db:"item_id"`
	Type     string `db:"type"`
	Quantity int    `db:"quantity"`
}

func (s shelfRow) toEntity() (entity.ShelfSlot, error) {
	ch, err := entity.ParseChannel(s.Type)
	if err != nil {
		return entity.ShelfSlot{}, fmt.Errorf("%w: estante %d: %w", domain.ErrPersistence, s.ID, err)
	}
	return entity.ShelfSlot{ID: s.ID, ItemID: s.ItemID, Channel: ch, Quantity: s.Quantity}, nil
}

var shelfColumns = []string{"id", "item_id", "type", "quantity"}

// Get devuelve (nil, nil) si el estante no existe.
func (r *ShelfRepo) Get(ctx context.Context, itemID int64, channel entity.Channel) (*entity.ShelfSlot, error) {
	query, args, err := psql.Select(shelfColumns...).From("shelf").
		Where(sq.Eq{"item_id": itemID, "type": channel.String()}).ToSql()
	if err != nil {
		return nil, mapError("build get shelf", err)
	}
	var row shelfRow
	if err := pgxscan.Get(ctx, r.q, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get shelf", err)
	}
	return r.one(row)
}

// ListByItemForUpdate bloquea los estantes del ítem en orden de canal.
func (r *ShelfRepo) ListByItemForUpdate(ctx context.Context, itemID int64) ([]entity.ShelfSlot, error) {
	b := psql.Select(shelfColumns...).From("shelf").
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("type").
		Suffix("FOR UPDATE")
	return r.list(ctx, "lock item shelves", b)
}

// AddQuantity suma qty al estante, creándolo si no existe.
func (r *ShelfRepo) AddQuantity(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error) {
	query := `
		INSERT INTO shelf (item_id, type, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, type)
		DO UPDATE SET quantity = shelf.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id, item_id, type, quantity`
	var row shelfRow
	if err := pgxscan.Get(ctx, r.q, &row, query, itemID, channel.String(), qty); err != nil {
		return nil, mapError("add shelf quantity", err)
	}
	return r.one(row)
}

// Decrement resta qty con un UPDATE condicional; si no alcanza devuelve la cantidad disponible en el error.
func (r *ShelfRepo) Decrement(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error) {
	query := `
		UPDATE shelf SET quantity = quantity - $3, updated_at = now()
		WHERE item_id = $1 AND type = $2 AND quantity >= $3
		RETURNING id, item_id, type, quantity`
	var row shelfRow
	err := pgxscan.Get(ctx, r.q, &row, query, itemID, channel.String(), qty)
	if err == nil {
		return r.one(row)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError("decrement shelf", err)
	}

	current, err := r.Get(ctx, itemID, channel)
	if err != nil {
		return nil, err
	}
	shortage := &domain.StockShortageError{ItemID: itemID, Channel: channel.String(), Requested: qty}
	if current != nil {
		shortage.Available = current.Quantity
	}
	return nil, shortage
}

// List todos los estantes ordenados por ítem y canal.
func (r *ShelfRepo) List(ctx context.Context) ([]entity.ShelfSlot, error) {
	return r.list(ctx, "list shelves", psql.Select(shelfColumns...).From("shelf").OrderBy("item_id", "type"))
}

// ListBelow estantes del canal con cantidad menor a min.
func (r *ShelfRepo) ListBelow(ctx context.Context, channel entity.Channel, min int) ([]entity.ShelfSlot, error) {
	b := psql.Select(shelfColumns...).From("shelf").
		Where(sq.Eq{"type": channel.String()}).
		Where(sq.Lt{"quantity": min}).
		OrderBy("item_id")
	return r.list(ctx, "list low shelves", b)
}

func (r *ShelfRepo) one(row shelfRow) (*entity.ShelfSlot, error) {
	s, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShelfRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]entity.ShelfSlot, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, mapError("build "+op, err)
	}
	var rows []shelfRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, mapError(op, err)
	}
	out := make([]entity.ShelfSlot, 0, len(rows))
	for _, row := range rows {
		s, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
