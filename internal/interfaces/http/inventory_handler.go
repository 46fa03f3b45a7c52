package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-inventory/internal/application/dto"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// InventoryHandler maneja recepción de lotes, selección y alertas de vencimiento (protegido).
type InventoryHandler struct {
	stock    *inventory.StockUseCase
	selector *inventory.BatchSelector
	items    *inventory.ItemLookup
	log      *logger.Logger
	// expiryDays ventana por defecto de GET /batches/expiring.
	expiryDays int
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(stock *inventory.StockUseCase, selector *inventory.BatchSelector, items *inventory.ItemLookup, log *logger.Logger, expiryDays int) *InventoryHandler {
	return &InventoryHandler{stock: stock, selector: selector, items: items, log: log, expiryDays: expiryDays}
}

// ReceiveBatch godoc
// @Summary      Registrar lote de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveBatchRequest  true  "item, quantity, date_of_purchase, date_of_expiry (YYYY-MM-DD)"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches [post]
func (h *InventoryHandler) ReceiveBatch(c *fiber.Ctx) error {
	var in dto.ReceiveBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	var purchase, expiry time.Time
	var err error
	if in.DateOfPurchase != "" {
		if purchase, err = time.Parse(dto.DateLayout, in.DateOfPurchase); err != nil {
			return badRequest(c, "VALIDATION", "date_of_purchase debe tener formato YYYY-MM-DD")
		}
	}
	if expiry, err = time.Parse(dto.DateLayout, in.DateOfExpiry); err != nil {
		return badRequest(c, "VALIDATION", "date_of_expiry debe tener formato YYYY-MM-DD")
	}

	item, err := h.items.Resolve(c.Context(), in.Item)
	if err != nil {
		return respondError(c, h.log, err)
	}
	batch, err := h.stock.ReceiveBatch(c.Context(), inventory.ReceiveBatchInput{
		ItemID:         item.ID,
		Quantity:       in.Quantity,
		DateOfPurchase: purchase,
		DateOfExpiry:   expiry,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBatchResponse(*batch, time.Now()))
}

// Selection godoc
// @Summary      Lotes de los que saldría una cantidad (sin modificar nada)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true  "ID o código del ítem"
// @Param        quantity  query  int     true  "Cantidad requerida"
// @Success      200  {object}  inventory.Selection
// @Router       /api/inventory/items/{id}/selection [get]
func (h *InventoryHandler) Selection(c *fiber.Ctx) error {
	item, err := h.items.Resolve(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	sel, err := h.selector.Select(c.Context(), item.ID, c.QueryInt("quantity"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(sel)
}

// Expiring godoc
// @Summary      Lotes disponibles que vencen en los próximos días
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (por defecto la configurada)"
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/inventory/batches/expiring [get]
func (h *InventoryHandler) Expiring(c *fiber.Ctx) error {
	batches, err := h.stock.ExpiryAlerts(c.Context(), c.QueryInt("days", h.expiryDays))
	if err != nil {
		return respondError(c, h.log, err)
	}
	now := time.Now()
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.NewBatchResponse(b, now))
	}
	return c.JSON(out)
}

// Expired godoc
// @Summary      Lotes vencidos que aún tienen stock disponible
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/inventory/batches/expired [get]
func (h *InventoryHandler) Expired(c *fiber.Ctx) error {
	batches, err := h.stock.ExpiredBatches(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	now := time.Now()
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.NewBatchResponse(b, now))
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Verifica si hay stock vendible para varias cantidades
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "items: {item_id: cantidad}"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if len(in.Items) == 0 {
		return badRequest(c, "VALIDATION", "items es obligatorio")
	}
	res, err := h.selector.CheckAvailability(c.Context(), in.Items)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.AvailabilityResponse{Items: res})
}
