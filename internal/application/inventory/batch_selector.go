package inventory

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

// BatchSelector decide de qué lotes saldría una cantidad, sin modificar nada.
// Sirve para consultas de disponibilidad; la asignación real vuelve a seleccionar bajo bloqueo.
type BatchSelector struct {
	batchRepo repository.StockBatchRepository
	itemRepo  repository.ItemRepository
	cfg       Settings
}

// NewBatchSelector construye el selector.
func NewBatchSelector(batchRepo repository.StockBatchRepository, itemRepo repository.ItemRepository, cfg Settings) *BatchSelector {
	return &BatchSelector{batchRepo: batchRepo, itemRepo: itemRepo, cfg: cfg}
}

// Select devuelve la selección de lotes para vender quantity unidades del ítem.
// Un faltante se informa en Selection.Shortfall, no como error.
func (s *BatchSelector) Select(ctx context.Context, itemID int64, quantity int) (*inventory.Selection, error) {
	if quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if _, err := findItem(ctx, s.itemRepo, itemID); err != nil {
		return nil, err
	}
	today := s.cfg.today()
	batches, err := s.batchRepo.ListSellable(ctx, itemID, today)
	if err != nil {
		return nil, err
	}
	sel, err := inventory.SelectBatches(batches, quantity, today, s.cfg.nearExpiryDays())
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// CheckAvailability indica, por ítem, si hay lotes suficientes para la cantidad pedida.
func (s *BatchSelector) CheckAvailability(ctx context.Context, requested map[int64]int) (map[int64]bool, error) {
	result := make(map[int64]bool, len(requested))
	for itemID, qty := range requested {
		sel, err := s.Select(ctx, itemID, qty)
		if err != nil {
			return nil, err
		}
		result[itemID] = sel.Complete()
	}
	return result, nil
}
