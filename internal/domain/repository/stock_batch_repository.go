package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// StockBatchRepository puerto del BatchLedger: lotes de stock por ítem.
// Los lotes nunca se eliminan; solo se decrementan hasta cero.
type StockBatchRepository interface {
	Create(ctx context.Context, batch *entity.StockBatch) error
	GetByID(ctx context.Context, id int64) (*entity.StockBatch, error)
	// ListSellable devuelve los lotes disponibles con cantidad > 0 y no vencidos a la fecha today.
	ListSellable(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error)
	// ListSellableForUpdate igual que ListSellable pero bloquea las filas (SELECT FOR UPDATE),
	// en orden de id. Solo tiene sentido dentro de una transacción.
	ListSellableForUpdate(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error)
	// Decrement resta qty de forma condicional (quantity >= qty) y recalcula availability.
	// Si ninguna fila cumple la condición devuelve un *domain.StockShortageError.
	Decrement(ctx context.Context, batchID int64, qty int) error
	// ListExpiring lotes disponibles que vencen entre from y to (ambos inclusive).
	ListExpiring(ctx context.Context, from, to time.Time) ([]entity.StockBatch, error)
	// ListExpired lotes disponibles con stock cuyo vencimiento es anterior a today.
	ListExpired(ctx context.Context, today time.Time) ([]entity.StockBatch, error)
}
