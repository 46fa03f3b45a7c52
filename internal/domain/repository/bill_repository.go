package repository

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// BillRepository persistencia de facturas y sus líneas.
type BillRepository interface {
	// Create inserta cabecera y líneas. Un número de factura repetido devuelve domain.ErrConflict.
	Create(ctx context.Context, bill *entity.Bill) error
	// GetByInvoiceNumber devuelve (nil, nil) si no existe.
	GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*entity.Bill, error)
}

// InvoiceNumberRepository registro de números de factura emitidos.
type InvoiceNumberRepository interface {
	// Exists indica si el número ya está en una factura o reservado.
	Exists(ctx context.Context, invoiceNumber string) (bool, error)
	// Reserve registra el número. Si ya estaba reservado devuelve domain.ErrConflict.
	Reserve(ctx context.Context, invoiceNumber string) error
}
