package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/retail-inventory/internal/application/billing"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and billing.BillingTxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ billing.BillingTxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("github.com/jhoicas/retail-inventory/postgres")

// TxOptions límites de tiempo de cada transacción (cero = sin límite).
type TxOptions struct {
	OperationTimeout time.Duration // toda la transacción, desde Begin hasta Commit
	StatementTimeout time.Duration // SET LOCAL statement_timeout
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	opts TxOptions
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions) *TxRunner {
	return &TxRunner{pool: pool, opts: opts}
}

// Run inicia una transacción, ejecuta fn con repos de inventario atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	batchRepo repository.StockBatchRepository,
	shelfRepo repository.ShelfRepository,
	movRepo repository.ShelfMovementRepository,
) error) error {
	return r.inTx(ctx, "inventory", func(ctx context.Context, tx pgx.Tx) error {
		return fn(NewStockBatchRepository(tx), NewShelfRepository(tx), NewShelfMovementRepository(tx))
	})
}

// RunBilling inicia una transacción con repos de estantes y facturas (para CreateBill).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	shelfRepo repository.ShelfRepository,
	billRepo repository.BillRepository,
) error) error {
	return r.inTx(ctx, "billing", func(ctx context.Context, tx pgx.Tx) error {
		return fn(NewShelfRepository(tx), NewBillRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, name string, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, span := tracer.Start(ctx, "tx."+name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if r.opts.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.OperationTimeout)
		defer cancel()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapError("begin transaction", err)
	}
	// El rollback debe enviarse aunque ctx ya haya vencido.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if r.opts.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.opts.StatementTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapError("set statement_timeout", err)
		}
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}
