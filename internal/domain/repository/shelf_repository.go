package repository

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// ShelfRepository puerto del ShelfLedger: cantidad en estante por (ítem, canal).
type ShelfRepository interface {
	// Get devuelve (nil, nil) si el estante no existe.
	Get(ctx context.Context, itemID int64, channel entity.Channel) (*entity.ShelfSlot, error)
	// ListByItemForUpdate bloquea los estantes existentes del ítem, ordenados por canal.
	ListByItemForUpdate(ctx context.Context, itemID int64) ([]entity.ShelfSlot, error)
	// AddQuantity suma qty al estante (lo crea con qty si no existe) y devuelve el estado final.
	AddQuantity(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error)
	// Decrement resta qty con un UPDATE condicional (quantity >= qty). Si no afecta filas
	// devuelve un *domain.StockShortageError.
	Decrement(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error)
	List(ctx context.Context) ([]entity.ShelfSlot, error)
	// ListBelow estantes del canal con cantidad menor a min.
	ListBelow(ctx context.Context, channel entity.Channel, min int) ([]entity.ShelfSlot, error)
}

// ShelfMovementRepository puerto del MovementLog. Solo inserción y lectura: no hay Update ni Delete.
type ShelfMovementRepository interface {
	Create(ctx context.Context, movement *entity.ShelfMovement) error
	List(ctx context.Context, filter MovementFilter) ([]entity.ShelfMovement, error)
}

// MovementFilter filtros opcionales para listar movimientos (cero = sin filtro).
type MovementFilter struct {
	StockBatchID int64
	ShelfID      int64
	Limit        int
}
