package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/retail-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-inventory/pkg/config"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// Contenedor compartido por todos los tests del paquete; cada test trunca las tablas.
var (
	sharedOnce sync.Once
	sharedDSN  string
	sharedErr  error
)

func startSharedContainer() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retail_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		sharedErr = err
		return
	}
	sharedDSN, sharedErr = container.ConnectionString(ctx, "sslmode=disable")
	if sharedErr != nil {
		return
	}
	sharedErr = postgres.Migrate(sharedDSN, logger.Nop())
}

// newTestPool devuelve un pool sobre una base migrada y vacía. Se omite con -short o sin Docker.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(startSharedContainer)
	require.NoError(t, sharedErr, "iniciar PostgreSQL de prueba")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: sharedDSN, MaxConns: 16, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE invoice_reservation, bill_item, bill, shelf_movement, shelf, stock_batch, item RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func insertItem(t *testing.T, pool *pgxpool.Pool, code, price string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO item (code, name, unit_price) VALUES ($1, $1, $2) RETURNING id`, code, decimal.RequireFromString(price),
	).Scan(&id)
	require.NoError(t, err)
	return id
}
