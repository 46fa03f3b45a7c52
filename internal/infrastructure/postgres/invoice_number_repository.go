package postgres

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.InvoiceNumberRepository = (*InvoiceNumberRepo)(nil)

// InvoiceNumberRepo reservas de números de factura. La PK de invoice_reservation garantiza unicidad.
type InvoiceNumberRepo struct {
	q Querier
}

// NewInvoiceNumberRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceNumberRepository(q Querier) *InvoiceNumberRepo {
	return &InvoiceNumberRepo{q: q}
}

// Exists consulta facturas emitidas y reservas.
func (r *InvoiceNumberRepo) Exists(ctx context.Context, invoiceNumber string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM bill WHERE invoice_number = $1)
		    OR EXISTS (SELECT 1 FROM invoice_reservation WHERE invoice_number = $1)`
	var found bool
	if err := r.q.QueryRow(ctx, query, invoiceNumber).Scan(&found); err != nil {
		return false, mapError("check invoice number", err)
	}
	return found, nil
}

// Reserve inserta la reserva; un número repetido devuelve domain.ErrConflict.
func (r *InvoiceNumberRepo) Reserve(ctx context.Context, invoiceNumber string) error {
	if _, err := r.q.Exec(ctx, `INSERT INTO invoice_reservation (invoice_number) VALUES ($1)`, invoiceNumber); err != nil {
		return mapError("reserve invoice number", err)
	}
	return nil
}
