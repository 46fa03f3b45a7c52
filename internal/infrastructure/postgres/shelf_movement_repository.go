package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.ShelfMovementRepository = (*ShelfMovementRepo)(nil)

// ShelfMovementRepo MovementLog sobre PostgreSQL. La tabla rechaza UPDATE y DELETE mediante trigger.
type ShelfMovementRepo struct {
	q Querier
}

// NewShelfMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShelfMovementRepository(q Querier) *ShelfMovementRepo {
	return &ShelfMovementRepo{q: q}
}

type movementRow struct {
	ID            int64     `db:"id"`
	StockBatchID  int64     `db:"stock_batch_id"`
	ShelfID       int64     `db:"shelf_id"`
	QuantityMoved int       `db:"quantity_moved"`
	MovedAt       time.Time `db:"moved_at"`
}

// Create inserta el movimiento; si MovedAt es cero usa la hora del servidor.
func (r *ShelfMovementRepo) Create(ctx context.Context, m *entity.ShelfMovement) error {
	query := `
		INSERT INTO shelf_movement (stock_batch_id, shelf_id, quantity_moved, moved_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		RETURNING id, moved_at`
	var movedAt *time.Time
	if !m.MovedAt.IsZero() {
		movedAt = &m.MovedAt
	}
	if err := r.q.QueryRow(ctx, query, m.StockBatchID, m.ShelfID, m.QuantityMoved, movedAt).Scan(&m.ID, &m.MovedAt); err != nil {
		return mapError("create shelf movement", err)
	}
	return nil
}

// List movimientos más recientes primero, filtrados por lote y/o estante.
func (r *ShelfMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]entity.ShelfMovement, error) {
	b := psql.Select("id", "stock_batch_id", "shelf_id", "quantity_moved", "moved_at").
		From("shelf_movement").
		OrderBy("moved_at DESC", "id DESC")
	if filter.StockBatchID > 0 {
		b = b.Where(sq.Eq{"stock_batch_id": filter.StockBatchID})
	}
	if filter.ShelfID > 0 {
		b = b.Where(sq.Eq{"shelf_id": filter.ShelfID})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, mapError("build list shelf movements", err)
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, mapError("list shelf movements", err)
	}
	out := make([]entity.ShelfMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.ShelfMovement(row))
	}
	return out, nil
}
