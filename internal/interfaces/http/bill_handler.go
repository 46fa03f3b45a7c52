package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-inventory/internal/application/billing"
	"github.com/jhoicas/retail-inventory/internal/application/dto"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// BillHandler ventas facturadas y números de factura (protegido).
type BillHandler struct {
	bills     *billing.CreateBillUseCase
	sequencer billing.InvoiceNumberGenerator
	items     *inventory.ItemLookup
	log       *logger.Logger
}

// NewBillHandler construye el handler.
func NewBillHandler(bills *billing.CreateBillUseCase, sequencer billing.InvoiceNumberGenerator, items *inventory.ItemLookup, log *logger.Logger) *BillHandler {
	return &BillHandler{bills: bills, sequencer: sequencer, items: items, log: log}
}

// Create godoc
// @Summary      Registrar venta: descuenta estantes y guarda la factura en una sola transacción
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBillRequest  true  "channel, items[{item, quantity}]"
// @Success      201   {object}  dto.BillResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bills [post]
func (h *BillHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	ch, ok := parseChannel(c, in.Channel, "channel")
	if !ok {
		return nil
	}
	lines := make([]billing.BillLineInput, 0, len(in.Items))
	for _, it := range in.Items {
		item, err := h.items.Resolve(c.Context(), it.Item)
		if err != nil {
			return respondError(c, h.log, err)
		}
		lines = append(lines, billing.BillLineInput{ItemID: item.ID, Quantity: it.Quantity})
	}
	bill, err := h.bills.CreateBill(c.Context(), billing.CreateBillInput{Channel: ch, UserID: GetUserID(c), Lines: lines})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBillResponse(bill))
}

// GetByInvoiceNumber godoc
// @Summary      Obtener factura por número
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        invoiceNumber  path  string  true  "Número de factura"
// @Success      200  {object}  dto.BillResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{invoiceNumber} [get]
func (h *BillHandler) GetByInvoiceNumber(c *fiber.Ctx) error {
	bill, err := h.bills.GetBill(c.Context(), c.Params("invoiceNumber"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.NewBillResponse(bill))
}

// NextInvoiceNumber godoc
// @Summary      Reservar un número de factura único
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.InvoiceNumberResponse
// @Router       /api/billing/invoice-numbers [post]
func (h *BillHandler) NextInvoiceNumber(c *fiber.Ctx) error {
	n, err := h.sequencer.Next(billing.WithCaller(c.Context(), GetUserID(c)))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.InvoiceNumberResponse{InvoiceNumber: n})
}

