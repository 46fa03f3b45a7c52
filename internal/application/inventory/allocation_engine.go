package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// AllocationEngine mueve stock de los lotes a los estantes (Shelve) y descuenta estantes en ventas (Sell).
// Cada operación es atómica: se confirma completa o no deja rastro.
type AllocationEngine struct {
	txRunner  TxRunner
	batchRepo repository.StockBatchRepository
	itemRepo  repository.ItemRepository
	log       *logger.Logger
	cfg       Settings
}

// NewAllocationEngine construye el motor. batchRepo se usa solo para la preselección fuera de la tx.
func NewAllocationEngine(
	txRunner TxRunner,
	batchRepo repository.StockBatchRepository,
	itemRepo repository.ItemRepository,
	log *logger.Logger,
	cfg Settings,
) *AllocationEngine {
	return &AllocationEngine{
		txRunner:  txRunner,
		batchRepo: batchRepo,
		itemRepo:  itemRepo,
		log:       log,
		cfg:       cfg,
	}
}

// ShelveInput entrada para surtir un estante desde los lotes.
type ShelveInput struct {
	ItemID   int64
	Quantity int
	Channel  entity.Channel
	UserID   string
}

// ShelveResult resultado de un surtido confirmado.
type ShelveResult struct {
	OperationID   string
	ItemID        int64
	Channel       entity.Channel
	ShelfQuantity int // cantidad del estante después del surtido
	Picks         []inventory.BatchPick
	Movements     []entity.ShelfMovement
}

// Shelve pasa quantity unidades de los lotes del ítem al estante del canal.
//
// La selección se hace dos veces: una lectura previa sin bloqueo para fallar rápido sin abrir
// transacción, y otra sobre los lotes bloqueados (SELECT FOR UPDATE) que es la que se aplica.
func (e *AllocationEngine) Shelve(ctx context.Context, in ShelveInput) (*ShelveResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if !in.Channel.Valid() {
		return nil, domain.Invalid("canal inválido")
	}
	if _, err := findItem(ctx, e.itemRepo, in.ItemID); err != nil {
		return nil, err
	}

	today := e.cfg.today()
	window := e.cfg.nearExpiryDays()

	batches, err := e.batchRepo.ListSellable(ctx, in.ItemID, today)
	if err != nil {
		return nil, err
	}
	pre, err := inventory.SelectBatches(batches, in.Quantity, today, window)
	if err != nil {
		return nil, err
	}
	if !pre.Complete() {
		return nil, &domain.StockShortageError{ItemID: in.ItemID, Requested: in.Quantity, Available: pre.Selected}
	}

	res := &ShelveResult{
		OperationID: uuid.New().String(),
		ItemID:      in.ItemID,
		Channel:     in.Channel,
	}
	err = e.txRunner.Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		shelfRepo repository.ShelfRepository,
		movRepo repository.ShelfMovementRepository,
	) error {
		locked, err := batchRepo.ListSellableForUpdate(ctx, in.ItemID, today)
		if err != nil {
			return err
		}
		sel, err := inventory.SelectBatches(locked, in.Quantity, today, window)
		if err != nil {
			return err
		}
		if !sel.Complete() {
			return &domain.StockShortageError{ItemID: in.ItemID, Requested: in.Quantity, Available: sel.Selected}
		}

		slot, err := shelfRepo.AddQuantity(ctx, in.ItemID, in.Channel, in.Quantity)
		if err != nil {
			return err
		}
		now := e.cfg.now()
		movements := make([]entity.ShelfMovement, 0, len(sel.Picks))
		for _, pick := range sel.Picks {
			if err := batchRepo.Decrement(ctx, pick.BatchID, pick.Quantity); err != nil {
				return err
			}
			mov := entity.ShelfMovement{
				StockBatchID:  pick.BatchID,
				ShelfID:       slot.ID,
				QuantityMoved: pick.Quantity,
				MovedAt:       now,
			}
			if err := movRepo.Create(ctx, &mov); err != nil {
				return err
			}
			movements = append(movements, mov)
		}

		res.ShelfQuantity = slot.Quantity
		res.Picks = sel.Picks
		res.Movements = movements
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("operation_id", res.OperationID).
		Int64("item_id", in.ItemID).
		Str("channel", in.Channel.String()).
		Int("quantity", in.Quantity).
		Int("batches", len(res.Picks)).
		Str("user_id", in.UserID).
		Msg("estante surtido")
	return res, nil
}

// SellInput entrada para una venta directa de estante.
type SellInput struct {
	ItemID   int64
	Quantity int
	Channel  entity.Channel
}

// Sell descuenta el estante en su propia transacción. Para ventas dentro de una factura usar SellInTx.
func (e *AllocationEngine) Sell(ctx context.Context, in SellInput) (*entity.ShelfSlot, error) {
	if err := validateSale(in.Quantity, in.Channel); err != nil {
		return nil, err
	}
	if _, err := findItem(ctx, e.itemRepo, in.ItemID); err != nil {
		return nil, err
	}
	var slot *entity.ShelfSlot
	err := e.txRunner.Run(ctx, func(
		_ repository.StockBatchRepository,
		shelfRepo repository.ShelfRepository,
		_ repository.ShelfMovementRepository,
	) error {
		var err error
		slot, err = e.SellInTx(ctx, shelfRepo, in.ItemID, in.Quantity, in.Channel)
		return err
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// SellInTx descuenta el estante usando el repositorio del caller (misma transacción de la factura).
// El descuento es un UPDATE condicional: si no alcanza, devuelve ErrInsufficientStock y
// el caller debe revertir su transacción.
func (e *AllocationEngine) SellInTx(
	ctx context.Context,
	shelfRepo repository.ShelfRepository,
	itemID int64,
	quantity int,
	channel entity.Channel,
) (*entity.ShelfSlot, error) {
	if err := validateSale(quantity, channel); err != nil {
		return nil, err
	}
	return shelfRepo.Decrement(ctx, itemID, channel, quantity)
}

func validateSale(quantity int, channel entity.Channel) error {
	if quantity <= 0 {
		return domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if !channel.Valid() {
		return domain.Invalid("canal inválido")
	}
	return nil
}
