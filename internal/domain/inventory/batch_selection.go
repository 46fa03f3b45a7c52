package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// NearExpiryDays ventana por defecto (en días) para priorizar lotes próximos a vencer.
const NearExpiryDays = 7

// BatchPick cantidad a tomar de un lote.
type BatchPick struct {
	BatchID  int64 `json:"batch_id"`
	Quantity int   `json:"quantity"`
}

// Selection resultado de una selección de lotes. Shortfall > 0 indica que el stock
// disponible no alcanza: Picks contiene entonces la selección parcial.
type Selection struct {
	Requested int         `json:"requested"`
	Selected  int         `json:"selected"`
	Shortfall int         `json:"shortfall"`
	Picks     []BatchPick `json:"picks"`
}

// Complete indica si la selección cubre la cantidad pedida.
func (s Selection) Complete() bool { return s.Shortfall == 0 }

// SelectBatches elige de qué lotes sale la cantidad pedida (servicio de dominio, sin I/O).
//
// Orden: primero los lotes que vencen dentro de nearExpiryDays, luego vencimiento ascendente,
// luego fecha de compra ascendente (FIFO) y por último id. Se descartan lotes vencidos,
// no disponibles o vacíos. El slice de entrada no se modifica.
func SelectBatches(batches []entity.StockBatch, required int, today time.Time, nearExpiryDays int) (Selection, error) {
	if required <= 0 {
		return Selection{}, domain.Invalid("la cantidad debe ser mayor que cero (recibido %d)", required)
	}

	candidates := make([]entity.StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.Sellable(today) {
			candidates = append(candidates, b)
		}
	}
	SortForSale(candidates, today, nearExpiryDays)

	sel := Selection{Requested: required}
	remaining := required
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := min(b.Quantity, remaining)
		sel.Picks = append(sel.Picks, BatchPick{BatchID: b.ID, Quantity: take})
		sel.Selected += take
		remaining -= take
	}
	sel.Shortfall = remaining
	return sel, nil
}

// SortForSale ordena in situ los lotes según la prioridad de venta.
func SortForSale(batches []entity.StockBatch, today time.Time, nearExpiryDays int) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		an, bn := a.IsNearExpiry(today, nearExpiryDays), b.IsNearExpiry(today, nearExpiryDays)
		if an != bn {
			return an
		}
		if !a.DateOfExpiry.Equal(b.DateOfExpiry) {
			return a.DateOfExpiry.Before(b.DateOfExpiry)
		}
		if !a.DateOfPurchase.Equal(b.DateOfPurchase) {
			return a.DateOfPurchase.Before(b.DateOfPurchase)
		}
		return a.ID < b.ID
	})
}

// Available suma la cantidad vendible de los lotes a la fecha today.
func Available(batches []entity.StockBatch, today time.Time) int {
	total := 0
	for _, b := range batches {
		if b.Sellable(today) {
			total += b.Quantity
		}
	}
	return total
}
