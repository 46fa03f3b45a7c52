package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error la transacción se revierte completa.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		batchRepo repository.StockBatchRepository,
		shelfRepo repository.ShelfRepository,
		movRepo repository.ShelfMovementRepository,
	) error) error
}

// Settings parámetros del motor de inventario.
type Settings struct {
	NearExpiryDays    int              // ventana de prioridad por vencimiento (días)
	LowStockThreshold int              // umbral para alertas de estante bajo
	Now               func() time.Time // reloj; nil = time.Now
}

// DefaultSettings valores usados cuando no hay configuración explícita.
func DefaultSettings() Settings {
	return Settings{NearExpiryDays: inventory.NearExpiryDays, LowStockThreshold: 5}
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Settings) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s Settings) nearExpiryDays() int {
	if s.NearExpiryDays <= 0 {
		return inventory.NearExpiryDays
	}
	return s.NearExpiryDays
}
