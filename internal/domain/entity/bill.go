package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill cabecera de una venta. InvoiceNumber es único entre todas las facturas persistidas
// y nunca se reasigna.
type Bill struct {
	ID            string
	InvoiceNumber string
	Channel       Channel
	CreatedBy     string
	CreatedAt     time.Time
	Lines         []BillLine
}

// BillLine línea de factura. UnitPrice es una copia del precio del ítem al momento de la venta.
type BillLine struct {
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}
