package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo facturas y líneas sobre PostgreSQL (usable con pool o tx).
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

// Create persiste cabecera y líneas. La restricción única sobre invoice_number se traduce a ErrConflict.
func (r *BillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	query := `
		INSERT INTO bill (id, invoice_number, channel, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, bill.ID, bill.InvoiceNumber, bill.Channel.String(), nullIfEmpty(bill.CreatedBy), bill.CreatedAt)
	if err != nil {
		return mapError("create bill", err)
	}

	lineQuery := `
		INSERT INTO bill_item (bill_id, item_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`
	for _, l := range bill.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, bill.ID, l.ItemID, l.Quantity, l.UnitPrice); err != nil {
			return mapError("create bill item", err)
		}
	}
	return nil
}

type billItemRow struct {
	ItemID    int64           `db:"item_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

// GetByInvoiceNumber devuelve (nil, nil) si no existe.
func (r *BillRepo) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*entity.Bill, error) {
	query := `
		SELECT id, invoice_number, channel, COALESCE(created_by, ''), created_at
		FROM bill WHERE invoice_number = $1`
	var (
		b       entity.Bill
		channel string
		created time.Time
	)
	err := r.q.QueryRow(ctx, query, invoiceNumber).Scan(&b.ID, &b.InvoiceNumber, &channel, &b.CreatedBy, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get bill", err)
	}
	if b.Channel, err = entity.ParseChannel(channel); err != nil {
		return nil, mapError("get bill", err)
	}
	b.CreatedAt = created.UTC()

	var rows []billItemRow
	err = pgxscan.Select(ctx, r.q, &rows,
		`SELECT item_id, quantity, unit_price FROM bill_item WHERE bill_id = $1 ORDER BY item_id`, b.ID)
	if err != nil {
		return nil, mapError("list bill items", err)
	}
	b.Lines = make([]entity.BillLine, 0, len(rows))
	for _, row := range rows {
		b.Lines = append(b.Lines, entity.BillLine(row))
	}
	return &b, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
