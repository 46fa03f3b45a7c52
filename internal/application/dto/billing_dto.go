package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// CreateBillRequest body para POST /api/bills.
type CreateBillRequest struct {
	Channel string            `json:"channel"`
	Items   []BillItemRequest `json:"items"`
}

// BillItemRequest línea solicitada (ítem por ID o código y cantidad).
type BillItemRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// BillResponse factura con sus líneas para GET /api/bills/:invoiceNumber.
type BillResponse struct {
	ID            string             `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	Channel       string             `json:"channel"`
	CreatedBy     string             `json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []BillItemResponse `json:"items"`
	Total         decimal.Decimal    `json:"total"`
}

// BillItemResponse línea con su subtotal.
type BillItemResponse struct {
	ItemID    int64           `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewBillResponse convierte la entidad y calcula subtotales y total.
func NewBillResponse(b *entity.Bill) BillResponse {
	resp := BillResponse{
		ID:            b.ID,
		InvoiceNumber: b.InvoiceNumber,
		Channel:       b.Channel.String(),
		CreatedBy:     b.CreatedBy,
		CreatedAt:     b.CreatedAt,
		Items:         make([]BillItemResponse, 0, len(b.Lines)),
		Total:         decimal.Zero,
	}
	for _, l := range b.Lines {
		sub := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		resp.Items = append(resp.Items, BillItemResponse{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Subtotal: sub})
		resp.Total = resp.Total.Add(sub)
	}
	return resp
}

// InvoiceNumberResponse número reservado por POST /api/billing/invoice-numbers.
type InvoiceNumberResponse struct {
	InvoiceNumber string `json:"invoice_number"`
}
