package inventory

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// TransferCoordinator mueve cantidad entre los estantes de dos canales del mismo ítem.
type TransferCoordinator struct {
	txRunner TxRunner
	itemRepo repository.ItemRepository
	log      *logger.Logger
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(txRunner TxRunner, itemRepo repository.ItemRepository, log *logger.Logger) *TransferCoordinator {
	return &TransferCoordinator{txRunner: txRunner, itemRepo: itemRepo, log: log}
}

// TransferInput entrada de una transferencia entre canales.
type TransferInput struct {
	ItemID   int64
	Quantity int
	From     entity.Channel
	To       entity.Channel
	UserID   string
}

// TransferResult cantidades de ambos estantes después de la transferencia.
type TransferResult struct {
	ItemID       int64
	FromQuantity int
	ToQuantity   int
}

// Transfer descuenta el estante origen y suma al destino (creándolo si no existe) en una sola tx.
// Los estantes del ítem se bloquean primero, siempre en orden de canal.
func (c *TransferCoordinator) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if !in.From.Valid() || !in.To.Valid() {
		return nil, domain.Invalid("canal inválido")
	}
	if in.From == in.To {
		return nil, domain.Invalid("los canales de origen y destino deben ser distintos")
	}
	if _, err := findItem(ctx, c.itemRepo, in.ItemID); err != nil {
		return nil, err
	}

	res := &TransferResult{ItemID: in.ItemID}
	err := c.txRunner.Run(ctx, func(
		_ repository.StockBatchRepository,
		shelfRepo repository.ShelfRepository,
		_ repository.ShelfMovementRepository,
	) error {
		slots, err := shelfRepo.ListByItemForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		available := 0
		for _, s := range slots {
			if s.Channel == in.From {
				available = s.Quantity
			}
		}
		if available < in.Quantity {
			return &domain.StockShortageError{
				ItemID:    in.ItemID,
				Channel:   in.From.String(),
				Requested: in.Quantity,
				Available: available,
			}
		}

		src, err := shelfRepo.Decrement(ctx, in.ItemID, in.From, in.Quantity)
		if err != nil {
			return err
		}
		dst, err := shelfRepo.AddQuantity(ctx, in.ItemID, in.To, in.Quantity)
		if err != nil {
			return err
		}
		res.FromQuantity = src.Quantity
		res.ToQuantity = dst.Quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Int64("item_id", in.ItemID).
		Str("from", in.From.String()).
		Str("to", in.To.String()).
		Int("quantity", in.Quantity).
		Str("user_id", in.UserID).
		Msg("transferencia entre estantes")
	return res, nil
}
