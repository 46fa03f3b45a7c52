package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/retail-inventory/internal/application/billing"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/retail-inventory/internal/interfaces/http"
	"github.com/jhoicas/retail-inventory/pkg/config"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// txRunner transacciones de inventario y de facturación sobre el mismo backend.
type txRunner interface {
	inventory.TxRunner
	billing.BillingTxRunner
}

// backend repositorios del almacenamiento elegido.
type backend struct {
	tx      txRunner
	items   repository.ItemRepository
	writer  seed.ItemWriter
	batches repository.StockBatchRepository
	shelves repository.ShelfRepository
	movs    repository.ShelfMovementRepository
	bills   repository.BillRepository
	numbers repository.InvoiceNumberRepository
	close   func()
}

func newMemoryBackend() *backend {
	store := memory.NewStore()
	items := store.Items()
	return &backend{
		tx: store, items: items, writer: items,
		batches: store.Batches(), shelves: store.Shelves(), movs: store.Movements(),
		bills: store.Bills(), numbers: store.InvoiceNumbers(),
		close: func() {},
	}
}

func newPostgresBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Migrations.Run {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	items := postgres.NewItemRepository(pool)
	return &backend{
		tx: postgres.NewTxRunner(pool, postgres.TxOptions{
			OperationTimeout: cfg.Inventory.OperationTimeout,
			StatementTimeout: cfg.Inventory.StatementTimeout,
		}),
		items:   items,
		writer:  items,
		batches: postgres.NewStockBatchRepository(pool),
		shelves: postgres.NewShelfRepository(pool),
		movs:    postgres.NewShelfMovementRepository(pool),
		bills:   postgres.NewBillRepository(pool),
		numbers: postgres.NewInvoiceNumberRepository(pool),
		close:   pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var be *backend
	if cfg.App.Storage == config.StorageMemory {
		be = newMemoryBackend()
	} else {
		be, err = newPostgresBackend(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
	}
	defer be.close()

	settings := inventory.Settings{
		NearExpiryDays:    cfg.Inventory.NearExpiryDays,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	}
	invLog := log.Named("inventory")
	billLog := log.Named("billing")

	stockUC := inventory.NewStockUseCase(be.batches, be.shelves, be.movs, be.items, invLog, settings)
	engine := inventory.NewAllocationEngine(be.tx, be.batches, be.items, invLog, settings)
	transfer := inventory.NewTransferCoordinator(be.tx, be.items, invLog)
	selector := inventory.NewBatchSelector(be.batches, be.items, settings)
	sequencer := billing.NewInvoiceSequencer(be.numbers, billLog, billing.SequencerConfig{
		Prefix:      cfg.Inventory.InvoicePrefix,
		MaxAttempts: cfg.Inventory.InvoiceMaxAttempts,
	})
	billsUC := billing.NewCreateBillUseCase(be.tx, engine, sequencer, be.items, be.bills, billLog)

	if cfg.App.SeedFile != "" {
		if err := loadSeed(ctx, cfg.App.SeedFile, be.writer, stockUC, log); err != nil {
			log.Fatal().Err(err).Str("file", cfg.App.SeedFile).Msg("carga inicial")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:            stockUC,
		Selector:         selector,
		Engine:           engine,
		Transfer:         transfer,
		Items:            inventory.NewItemLookup(be.items),
		Bills:            billsUC,
		Sequencer:        sequencer,
		ExpiryWindowDays: cfg.Inventory.NearExpiryDays,
		JWTSecret:        cfg.JWT.Secret,
		Logger:           log.Named("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func loadSeed(ctx context.Context, path string, items seed.ItemWriter, stock *inventory.StockUseCase, log *logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := seed.Parse(f, seed.Options{})
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, rows, items, stock, log)
	return err
}
