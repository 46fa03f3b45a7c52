package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MovementQuery filtros de GET /api/shelves/movements.
type MovementQuery struct {
	StockBatchID int64 `query:"stock_batch_id"`
	ShelfID      int64 `query:"shelf_id"`
	Limit        int   `query:"limit"`
}
