package dto

import (
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// DateLayout formato de fechas de lote en el API (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ReceiveBatchRequest body para POST /api/inventory/batches.
// Item acepta el ID numérico o el código del ítem.
type ReceiveBatchRequest struct {
	Item           string `json:"item"`
	Quantity       int    `json:"quantity"`
	DateOfPurchase string `json:"date_of_purchase,omitempty"` // vacío = hoy
	DateOfExpiry   string `json:"date_of_expiry"`
}

// BatchResponse lote de stock en respuestas.
type BatchResponse struct {
	ID              int64  `json:"id"`
	ItemID          int64  `json:"item_id"`
	Quantity        int    `json:"quantity"`
	DateOfPurchase  string `json:"date_of_purchase"`
	DateOfExpiry    string `json:"date_of_expiry"`
	Availability    bool   `json:"availability"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
}

// NewBatchResponse arma la respuesta calculando los días restantes respecto a today.
func NewBatchResponse(b entity.StockBatch, today time.Time) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		ItemID:          b.ItemID,
		Quantity:        b.Quantity,
		DateOfPurchase:  b.DateOfPurchase.Format(DateLayout),
		DateOfExpiry:    b.DateOfExpiry.Format(DateLayout),
		Availability:    b.Availability,
		DaysUntilExpiry: b.DaysUntilExpiry(today),
	}
}

// AvailabilityRequest body para POST /api/inventory/availability: ítem → cantidad requerida.
type AvailabilityRequest struct {
	Items map[int64]int `json:"items"`
}

// AvailabilityResponse ítem → si alcanza el stock vendible.
type AvailabilityResponse struct {
	Items map[int64]bool `json:"items"`
}

// ShelveRequest body para POST /api/shelves/stock.
type ShelveRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Channel  string `json:"channel"`
}

// ShelveResponse resultado del surtido.
type ShelveResponse struct {
	OperationID   string             `json:"operation_id"`
	ItemID        int64              `json:"item_id"`
	Channel       string             `json:"channel"`
	ShelfQuantity int                `json:"shelf_quantity"`
	Movements     []MovementResponse `json:"movements"`
}

// SellRequest body para POST /api/shelves/sell.
type SellRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Channel  string `json:"channel"`
}

// TransferRequest body para POST /api/shelves/transfer.
type TransferRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// TransferResponse cantidades finales de ambos estantes.
type TransferResponse struct {
	ItemID       int64 `json:"item_id"`
	FromQuantity int   `json:"from_quantity"`
	ToQuantity   int   `json:"to_quantity"`
}

// ShelfResponse estante en respuestas.
type ShelfResponse struct {
	ItemID   int64  `json:"item_id"`
	Channel  string `json:"channel"`
	Quantity int    `json:"quantity"`
}

// NewShelfResponse convierte la entidad.
func NewShelfResponse(s entity.ShelfSlot) ShelfResponse {
	return ShelfResponse{ItemID: s.ItemID, Channel: s.Channel.String(), Quantity: s.Quantity}
}

// MovementResponse movimiento de lote a estante.
type MovementResponse struct {
	ID            int64     `json:"id"`
	StockBatchID  int64     `json:"stock_batch_id"`
	ShelfID       int64     `json:"shelf_id"`
	QuantityMoved int       `json:"quantity_moved"`
	MovedAt       time.Time `json:"moved_at"`
}

// NewMovementResponses convierte una lista de movimientos.
func NewMovementResponses(ms []entity.ShelfMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, MovementResponse(m))
	}
	return out
}
