package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-inventory/internal/application/dto"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// ShelfHandler surtido, venta y traslado entre estantes (protegido).
type ShelfHandler struct {
	engine   *inventory.AllocationEngine
	transfer *inventory.TransferCoordinator
	stock    *inventory.StockUseCase
	items    *inventory.ItemLookup
	log      *logger.Logger
}

// NewShelfHandler construye el handler.
func NewShelfHandler(
	engine *inventory.AllocationEngine,
	transfer *inventory.TransferCoordinator,
	stock *inventory.StockUseCase,
	items *inventory.ItemLookup,
	log *logger.Logger,
) *ShelfHandler {
	return &ShelfHandler{engine: engine, transfer: transfer, stock: stock, items: items, log: log}
}

func parseChannel(c *fiber.Ctx, raw, field string) (entity.Channel, bool) {
	ch, err := entity.ParseChannel(raw)
	if err != nil {
		_ = badRequest(c, "VALIDATION", field+" debe ser STORE o WEBSITE")
		return 0, false
	}
	return ch, true
}

// Shelve godoc
// @Summary      Surtir estante desde lotes (FEFO con prioridad a próximos a vencer)
// @Tags         shelves
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ShelveRequest  true  "item, quantity, channel"
// @Success      201   {object}  dto.ShelveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shelves/stock [post]
func (h *ShelfHandler) Shelve(c *fiber.Ctx) error {
	var in dto.ShelveRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	ch, ok := parseChannel(c, in.Channel, "channel")
	if !ok {
		return nil
	}
	item, err := h.items.Resolve(c.Context(), in.Item)
	if err != nil {
		return respondError(c, h.log, err)
	}
	res, err := h.engine.Shelve(c.Context(), inventory.ShelveInput{
		ItemID: item.ID, Quantity: in.Quantity, Channel: ch, UserID: GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ShelveResponse{
		OperationID:   res.OperationID,
		ItemID:        res.ItemID,
		Channel:       res.Channel.String(),
		ShelfQuantity: res.ShelfQuantity,
		Movements:     dto.NewMovementResponses(res.Movements),
	})
}

// Sell godoc
// @Summary      Descontar unidades vendidas del estante
// @Tags         shelves
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SellRequest  true  "item, quantity, channel"
// @Success      200   {object}  dto.ShelfResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shelves/sell [post]
func (h *ShelfHandler) Sell(c *fiber.Ctx) error {
	var in dto.SellRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	ch, ok := parseChannel(c, in.Channel, "channel")
	if !ok {
		return nil
	}
	item, err := h.items.Resolve(c.Context(), in.Item)
	if err != nil {
		return respondError(c, h.log, err)
	}
	slot, err := h.engine.Sell(c.Context(), inventory.SellInput{ItemID: item.ID, Quantity: in.Quantity, Channel: ch})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewShelfResponse(*slot))
}

// Transfer godoc
// @Summary      Trasladar unidades entre estantes STORE y WEBSITE
// @Tags         shelves
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "item, quantity, from, to"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shelves/transfer [post]
func (h *ShelfHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	from, ok := parseChannel(c, in.From, "from")
	if !ok {
		return nil
	}
	to, ok := parseChannel(c, in.To, "to")
	if !ok {
		return nil
	}
	item, err := h.items.Resolve(c.Context(), in.Item)
	if err != nil {
		return respondError(c, h.log, err)
	}
	res, err := h.transfer.Transfer(c.Context(), inventory.TransferInput{
		ItemID: item.ID, Quantity: in.Quantity, From: from, To: to, UserID: GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.TransferResponse(*res))
}

// Overview godoc
// @Summary      Cantidades por ítem en ambos estantes con alerta de estante bajo
// @Tags         shelves
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  inventory.ShelfOverview
// @Router       /api/shelves/overview [get]
func (h *ShelfHandler) Overview(c *fiber.Ctx) error {
	out, err := h.stock.Overview(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Estantes de un canal por debajo del mínimo
// @Tags         shelves
// @Security     Bearer
// @Produce      json
// @Param        channel  query  string  true   "STORE | WEBSITE"
// @Param        min      query  int     false  "Mínimo (por defecto el umbral configurado)"
// @Success      200  {array}  dto.ShelfResponse
// @Router       /api/shelves/low-stock [get]
func (h *ShelfHandler) LowStock(c *fiber.Ctx) error {
	ch, ok := parseChannel(c, c.Query("channel"), "channel")
	if !ok {
		return nil
	}
	slots, err := h.stock.LowStock(c.Context(), ch, c.QueryInt("min"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.ShelfResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, dto.NewShelfResponse(s))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Cantidad en el estante de un ítem y canal
// @Tags         shelves
// @Security     Bearer
// @Produce      json
// @Param        itemId   path  string  true  "ID o código del ítem"
// @Param        channel  path  string  true  "STORE | WEBSITE"
// @Success      200  {object}  dto.ShelfResponse
// @Router       /api/shelves/{itemId}/{channel} [get]
func (h *ShelfHandler) Get(c *fiber.Ctx) error {
	ch, ok := parseChannel(c, c.Params("channel"), "channel")
	if !ok {
		return nil
	}
	item, err := h.items.Resolve(c.Context(), c.Params("itemId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	qty, err := h.stock.ShelfQuantity(c.Context(), item.ID, ch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ShelfResponse{ItemID: item.ID, Channel: ch.String(), Quantity: qty})
}

// Movements godoc
// @Summary      Historial de movimientos lote → estante
// @Tags         shelves
// @Security     Bearer
// @Produce      json
// @Param        stock_batch_id  query  int  false  "Filtrar por lote"
// @Param        shelf_id        query  int  false  "Filtrar por estante"
// @Param        limit           query  int  false  "Máximo de filas (1..500, por defecto 100)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/shelves/movements [get]
func (h *ShelfHandler) Movements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "VALIDATION", "parámetros inválidos")
	}
	ms, err := h.stock.Movements(c.Context(), repository.MovementFilter{
		StockBatchID: q.StockBatchID, ShelfID: q.ShelfID, Limit: q.Limit,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewMovementResponses(ms))
}
