package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

// StockBatchRepo implementación del BatchLedger sobre PostgreSQL (usable con pool o tx).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

type batchRow struct {
	ID             int64     `db:"id"`
	ItemID         int64     `db:"item_id"`
	Quantity       int       `db:"quantity"`
	DateOfPurchase time.Time `db:"date_of_purchase"`
	DateOfExpiry   time.Time `db:"date_of_expiry"`
	Availability   bool      `db:"availability"`
}

func (b batchRow) toEntity() entity.StockBatch {
	return entity.StockBatch{
		ID:             b.ID,
		ItemID:         b.ItemID,
		Quantity:       b.Quantity,
		DateOfPurchase: entity.Day(b.DateOfPurchase),
		DateOfExpiry:   entity.Day(b.DateOfExpiry),
		Availability:   b.Availability,
	}
}

var batchColumns = []string{"id", "item_id", "quantity", "date_of_purchase", "date_of_expiry", "availability"}

// Create inserta el lote y asigna su ID.
func (r *StockBatchRepo) Create(ctx context.Context, batch *entity.StockBatch) error {
	query := `
		INSERT INTO stock_batch (item_id, quantity, date_of_purchase, date_of_expiry, availability)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		batch.ItemID, batch.Quantity, entity.Day(batch.DateOfPurchase), entity.Day(batch.DateOfExpiry), batch.Availability,
	).Scan(&batch.ID)
	if err != nil {
		return mapError("create stock batch", err)
	}
	return nil
}

// GetByID devuelve (nil, nil) si el lote no existe.
func (r *StockBatchRepo) GetByID(ctx context.Context, id int64) (*entity.StockBatch, error) {
	query, args, err := psql.Select(batchColumns...).From("stock_batch").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, mapError("build get stock batch", err)
	}
	var row batchRow
	if err := pgxscan.Get(ctx, r.q, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock batch", err)
	}
	b := row.toEntity()
	return &b, nil
}

func sellableQuery(itemID int64, today time.Time) sq.SelectBuilder {
	return psql.Select(batchColumns...).
		From("stock_batch").
		Where(sq.Eq{"item_id": itemID, "availability": true}).
		Where(sq.Gt{"quantity": 0}).
		Where(sq.GtOrEq{"date_of_expiry": entity.Day(today)}).
		OrderBy("id")
}

// ListSellable lotes vendibles del ítem a la fecha today.
func (r *StockBatchRepo) ListSellable(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error) {
	return r.list(ctx, "list sellable batches", sellableQuery(itemID, today))
}

// ListSellableForUpdate bloquea los lotes vendibles en orden de id.
func (r *StockBatchRepo) ListSellableForUpdate(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error) {
	return r.list(ctx, "lock sellable batches", sellableQuery(itemID, today).Suffix("FOR UPDATE"))
}

// Decrement resta qty solo si el lote tiene cantidad suficiente; availability pasa a false al llegar a cero.
func (r *StockBatchRepo) Decrement(ctx context.Context, batchID int64, qty int) error {
	query := `
		UPDATE stock_batch
		SET quantity = quantity - $2, availability = (quantity - $2) > 0
		WHERE id = $1 AND quantity >= $2`
	tag, err := r.q.Exec(ctx, query, batchID, qty)
	if err != nil {
		return mapError("decrement stock batch", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	current, err := r.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	shortage := &domain.StockShortageError{Requested: qty}
	if current != nil {
		shortage.ItemID = current.ItemID
		shortage.Available = current.Quantity
	}
	return shortage
}

// ListExpiring lotes disponibles con stock que vencen entre from y to.
func (r *StockBatchRepo) ListExpiring(ctx context.Context, from, to time.Time) ([]entity.StockBatch, error) {
	b := psql.Select(batchColumns...).
		From("stock_batch").
		Where(sq.Eq{"availability": true}).
		Where(sq.Gt{"quantity": 0}).
		Where(sq.GtOrEq{"date_of_expiry": entity.Day(from)}).
		Where(sq.LtOrEq{"date_of_expiry": entity.Day(to)}).
		OrderBy("date_of_expiry", "id")
	return r.list(ctx, "list expiring batches", b)
}

// ListExpired lotes disponibles con stock vencidos antes de today.
func (r *StockBatchRepo) ListExpired(ctx context.Context, today time.Time) ([]entity.StockBatch, error) {
	b := psql.Select(batchColumns...).
		From("stock_batch").
		Where(sq.Eq{"availability": true}).
		Where(sq.Gt{"quantity": 0}).
		Where(sq.Lt{"date_of_expiry": entity.Day(today)}).
		OrderBy("date_of_expiry", "id")
	return r.list(ctx, "list expired batches", b)
}

func (r *StockBatchRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]entity.StockBatch, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, mapError("build "+op, err)
	}
	var rows []batchRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, mapError(op, err)
	}
	out := make([]entity.StockBatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
