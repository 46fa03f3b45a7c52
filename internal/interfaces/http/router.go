package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-inventory/internal/application/billing"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/pkg/jwt"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock            *inventory.StockUseCase
	Selector         *inventory.BatchSelector
	Engine           *inventory.AllocationEngine
	Transfer         *inventory.TransferCoordinator
	Items            *inventory.ItemLookup
	Bills            *billing.CreateBillUseCase
	Sequencer        billing.InvoiceNumberGenerator
	ExpiryWindowDays int
	JWTSecret        string
	Logger           *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras además exigen rol.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	stockRoles := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	saleRoles := RequireRole(jwt.RoleAdmin, jwt.RoleCajero)

	// Lotes y selección
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Stock, deps.Selector, deps.Items, log, deps.ExpiryWindowDays)
	invGroup.Post("/batches", stockRoles, inventoryHandler.ReceiveBatch)
	invGroup.Get("/batches/expiring", inventoryHandler.Expiring)
	invGroup.Get("/batches/expired", inventoryHandler.Expired)
	invGroup.Get("/items/:id/selection", inventoryHandler.Selection)
	invGroup.Post("/availability", inventoryHandler.Availability)

	// Estantes
	shelves := api.Group("/shelves")
	shelfHandler := NewShelfHandler(deps.Engine, deps.Transfer, deps.Stock, deps.Items, log)
	shelves.Post("/stock", stockRoles, shelfHandler.Shelve)
	shelves.Post("/sell", saleRoles, shelfHandler.Sell)
	shelves.Post("/transfer", stockRoles, shelfHandler.Transfer)
	shelves.Get("/overview", shelfHandler.Overview)
	shelves.Get("/low-stock", shelfHandler.LowStock)
	shelves.Get("/movements", shelfHandler.Movements)
	shelves.Get("/:itemId/:channel", shelfHandler.Get)

	// Facturación
	billHandler := NewBillHandler(deps.Bills, deps.Sequencer, deps.Items, log)
	bills := api.Group("/bills")
	bills.Post("/", saleRoles, billHandler.Create)
	bills.Get("/:invoiceNumber", billHandler.GetByInvoiceNumber)
	api.Post("/billing/invoice-numbers", saleRoles, billHandler.NextInvoiceNumber)
}
