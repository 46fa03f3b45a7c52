package billing

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye estantes y facturas.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		shelfRepo repository.ShelfRepository,
		billRepo repository.BillRepository,
	) error) error
}

// ShelfSeller descuenta estantes usando los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
type ShelfSeller interface {
	SellInTx(
		ctx context.Context,
		shelfRepo repository.ShelfRepository,
		itemID int64,
		quantity int,
		channel entity.Channel,
	) (*entity.ShelfSlot, error)
}

// InvoiceNumberGenerator entrega números de factura únicos.
type InvoiceNumberGenerator interface {
	Next(ctx context.Context) (string, error)
}
