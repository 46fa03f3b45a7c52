// seed_stock carga ítems y lotes iniciales en PostgreSQL desde un CSV separado por ';'.
//
// Uso: go run ./cmd/seed_stock [-latin1] [-migrate] ruta/stock.csv
// Columnas: code;name;unit_price;quantity;date_of_purchase;date_of_expiry
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/seed"
	"github.com/jhoicas/retail-inventory/pkg/config"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en Windows-1252 / ISO-8859-1")
	runMigrations := flag.Bool("migrate", false, "aplicar migraciones antes de cargar")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_stock [-latin1] [-migrate] archivo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	rows, err := seed.Parse(f, seed.Options{Latin1: *latin1})
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	ctx := context.Background()
	if *runMigrations {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	items := postgres.NewItemRepository(pool)
	stock := inventory.NewStockUseCase(
		postgres.NewStockBatchRepository(pool),
		postgres.NewShelfRepository(pool),
		postgres.NewShelfMovementRepository(pool),
		items, log, inventory.Settings{NearExpiryDays: cfg.Inventory.NearExpiryDays, LowStockThreshold: cfg.Inventory.LowStockThreshold},
	)
	res, err := seed.Apply(ctx, rows, items, stock, log)
	if err != nil {
		log.Fatal().Err(err).Msg("aplicar carga")
	}
	fmt.Printf("Cargados %d ítems y %d lotes desde %s\n", res.Items, res.Batches, flag.Arg(0))
}
