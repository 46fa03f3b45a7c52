package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	item     entity.Item
	engine   *inventory.AllocationEngine
	transfer *inventory.TransferCoordinator
	selector *inventory.BatchSelector
	stock    *inventory.StockUseCase
	cfg      inventory.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	item := store.PutItem(entity.Item{Code: "LECHE-1L", Name: "Leche entera 1L", UnitPrice: decimal.NewFromInt(4200)})

	cfg := inventory.DefaultSettings()
	cfg.Now = func() time.Time { return fixedNow }
	log := logger.Nop()

	return &fixture{
		store:    store,
		item:     item,
		engine:   inventory.NewAllocationEngine(store, store.Batches(), store.Items(), log, cfg),
		transfer: inventory.NewTransferCoordinator(store, store.Items(), log),
		selector: inventory.NewBatchSelector(store.Batches(), store.Items(), cfg),
		stock:    inventory.NewStockUseCase(store.Batches(), store.Shelves(), store.Movements(), store.Items(), log, cfg),
		cfg:      cfg,
	}
}

// engineWith arma un motor sobre el mismo almacén pero con otro TxRunner.
func (f *fixture) engineWith(runner inventory.TxRunner) *inventory.AllocationEngine {
	return inventory.NewAllocationEngine(runner, f.store.Batches(), f.store.Items(), logger.Nop(), f.cfg)
}

// failingMovements falla en la llamada número failOn a Create.
type failingMovements struct {
	repository.ShelfMovementRepository
	failOn int
	calls  int
}

func (m *failingMovements) Create(ctx context.Context, mov *entity.ShelfMovement) error {
	m.calls++
	if m.calls == m.failOn {
		return domain.ErrPersistence
	}
	return m.ShelfMovementRepository.Create(ctx, mov)
}

// hookedRunner delega en el Store y permite intervenir la transacción.
type hookedRunner struct {
	store     *memory.Store
	failMovOn int
	afterFn   func()
}

func (r *hookedRunner) Run(ctx context.Context, fn func(
	batchRepo repository.StockBatchRepository,
	shelfRepo repository.ShelfRepository,
	movRepo repository.ShelfMovementRepository,
) error) error {
	return r.store.Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		shelfRepo repository.ShelfRepository,
		movRepo repository.ShelfMovementRepository,
	) error {
		if r.failMovOn > 0 {
			movRepo = &failingMovements{ShelfMovementRepository: movRepo, failOn: r.failMovOn}
		}
		err := fn(batchRepo, shelfRepo, movRepo)
		if r.afterFn != nil {
			r.afterFn()
		}
		return err
	})
}

func (f *fixture) assertUntouched(t *testing.T, wantBatchQty int) {
	t.Helper()
	ctx := context.Background()
	assert.Equal(t, wantBatchQty, f.batchQty(t), "ningún lote queda descontado a medias")

	slot, err := f.store.Shelves().Get(ctx, f.item.ID, entity.ChannelStore)
	require.NoError(t, err)
	assert.Nil(t, slot, "el estante no se publica")

	movs, err := f.stock.Movements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs, "sin movimientos huérfanos")
}

func (f *fixture) receive(t *testing.T, qty, expiresInDays int) entity.StockBatch {
	t.Helper()
	b, err := f.stock.ReceiveBatch(context.Background(), inventory.ReceiveBatchInput{
		ItemID:         f.item.ID,
		Quantity:       qty,
		DateOfPurchase: fixedNow.AddDate(0, 0, -40),
		DateOfExpiry:   fixedNow.AddDate(0, 0, expiresInDays),
	})
	require.NoError(t, err)
	return *b
}

func (f *fixture) shelf(t *testing.T, ch entity.Channel) int {
	t.Helper()
	q, err := f.stock.ShelfQuantity(context.Background(), f.item.ID, ch)
	require.NoError(t, err)
	return q
}

func (f *fixture) batchQty(t *testing.T) int {
	t.Helper()
	batches, err := f.store.Batches().ListSellable(context.Background(), f.item.ID, fixedNow)
	require.NoError(t, err)
	total := 0
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}

// ──────────────────────────────────────────────────────────────────────────────
// Shelve
// ──────────────────────────────────────────────────────────────────────────────

func TestShelve_ConservaCantidadYRegistraMovimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	far := f.receive(t, 6, 30)
	near := f.receive(t, 7, 2)

	res, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 10, Channel: entity.ChannelStore})
	require.NoError(t, err)

	assert.Equal(t, 10, res.ShelfQuantity)
	assert.Equal(t, 10, f.shelf(t, entity.ChannelStore))
	assert.Equal(t, 3, f.batchQty(t), "13 recibidas - 10 surtidas")

	require.Len(t, res.Movements, 2)
	assert.Equal(t, near.ID, res.Movements[0].StockBatchID, "el lote próximo a vencer se usa primero")
	assert.Equal(t, 7, res.Movements[0].QuantityMoved)
	assert.Equal(t, far.ID, res.Movements[1].StockBatchID)
	assert.Equal(t, 3, res.Movements[1].QuantityMoved)

	drained, err := f.store.Batches().GetByID(ctx, near.ID)
	require.NoError(t, err)
	assert.Zero(t, drained.Quantity)
	assert.False(t, drained.Availability, "un lote agotado queda no disponible")

	logged, err := f.stock.Movements(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, logged, 2)
}

func TestShelve_SumaAEstanteExistente(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 20, 40)
	ctx := context.Background()

	_, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 4, Channel: entity.ChannelWebsite})
	require.NoError(t, err)
	res, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 5, Channel: entity.ChannelWebsite})
	require.NoError(t, err)

	assert.Equal(t, 9, res.ShelfQuantity)
	assert.Equal(t, 0, f.shelf(t, entity.ChannelStore))
}

func TestShelve_StockInsuficienteNoModificaNada(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 4, 10)
	f.receive(t, 3, -1) // vencido: no cuenta
	ctx := context.Background()

	beforeBatches, err := f.store.Batches().ListSellable(ctx, f.item.ID, fixedNow)
	require.NoError(t, err)

	_, err = f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 10, Channel: entity.ChannelStore})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var shortage *domain.StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, 4, shortage.Available)

	afterBatches, err := f.store.Batches().ListSellable(ctx, f.item.ID, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, beforeBatches, afterBatches)

	slot, err := f.store.Shelves().Get(ctx, f.item.ID, entity.ChannelStore)
	require.NoError(t, err)
	assert.Nil(t, slot, "no se crea estante si el surtido falla")
}

func TestShelve_FalloDentroDeLaTxRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 3, 10)
	f.receive(t, 3, 20)

	// El primer lote ya se descontó y el estante ya se sumó cuando falla el segundo movimiento.
	engine := f.engineWith(&hookedRunner{store: f.store, failMovOn: 2})
	_, err := engine.Shelve(context.Background(), inventory.ShelveInput{ItemID: f.item.ID, Quantity: 5, Channel: entity.ChannelStore})
	require.ErrorIs(t, err, domain.ErrPersistence)

	f.assertUntouched(t, 6)
}

func TestShelve_ContextoCanceladoAntesDelCommitNoPublica(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 10, 30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := f.engineWith(&hookedRunner{store: f.store, afterFn: cancel})

	_, err := engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 4, Channel: entity.ChannelStore})
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)

	f.assertUntouched(t, 10)
}

func TestShelve_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 0, Channel: entity.ChannelStore})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 1, Channel: entity.Channel(9)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: 999, Quantity: 1, Channel: entity.ChannelStore})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShelve_ConcurrenteNuncaSobreasigna(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 10, 20)
	f.receive(t, 5, 3)

	const workers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := entity.Channels[i%2]
			_, err := f.engine.Shelve(context.Background(), inventory.ShelveInput{ItemID: f.item.ID, Quantity: 2, Channel: ch})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 7, ok, "15 unidades alcanzan para 7 surtidos de 2")
	assert.Equal(t, workers-7, short)
	total := f.shelf(t, entity.ChannelStore) + f.shelf(t, entity.ChannelWebsite)
	assert.Equal(t, 14, total)
	assert.Equal(t, 1, f.batchQty(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Sell
// ──────────────────────────────────────────────────────────────────────────────

func TestSell_SinStockSuficienteDejaElEstanteIntacto(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 3, 15)
	ctx := context.Background()
	_, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 3, Channel: entity.ChannelStore})
	require.NoError(t, err)

	_, err = f.engine.Sell(ctx, inventory.SellInput{ItemID: f.item.ID, Quantity: 5, Channel: entity.ChannelStore})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 3, f.shelf(t, entity.ChannelStore))

	slot, err := f.engine.Sell(ctx, inventory.SellInput{ItemID: f.item.ID, Quantity: 3, Channel: entity.ChannelStore})
	require.NoError(t, err)
	assert.Zero(t, slot.Quantity)
}

func TestSell_EstanteInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Sell(context.Background(), inventory.SellInput{ItemID: f.item.ID, Quantity: 1, Channel: entity.ChannelWebsite})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestSellInTx_ValidaAntesDeTocarElRepositorio(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SellInTx(context.Background(), f.store.Shelves(), f.item.ID, -1, entity.ChannelStore)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_ConservaElTotal(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 12, 30)
	ctx := context.Background()
	_, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 12, Channel: entity.ChannelStore})
	require.NoError(t, err)

	res, err := f.transfer.Transfer(ctx, inventory.TransferInput{
		ItemID: f.item.ID, Quantity: 5, From: entity.ChannelStore, To: entity.ChannelWebsite,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, res.FromQuantity)
	assert.Equal(t, 5, res.ToQuantity)
	assert.Equal(t, 7, f.shelf(t, entity.ChannelStore))
	assert.Equal(t, 5, f.shelf(t, entity.ChannelWebsite))
	assert.Equal(t, 12, f.shelf(t, entity.ChannelStore)+f.shelf(t, entity.ChannelWebsite))
}

func TestTransfer_OrigenInsuficienteNoTransfiereNada(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 2, 30)
	ctx := context.Background()
	_, err := f.engine.Shelve(ctx, inventory.ShelveInput{ItemID: f.item.ID, Quantity: 2, Channel: entity.ChannelWebsite})
	require.NoError(t, err)

	_, err = f.transfer.Transfer(ctx, inventory.TransferInput{
		ItemID: f.item.ID, Quantity: 3, From: entity.ChannelWebsite, To: entity.ChannelStore,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.shelf(t, entity.ChannelWebsite))
	assert.Equal(t, 0, f.shelf(t, entity.ChannelStore))
}

func TestTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.transfer.Transfer(ctx, inventory.TransferInput{ItemID: f.item.ID, Quantity: 1, From: entity.ChannelStore, To: entity.ChannelStore})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfer.Transfer(ctx, inventory.TransferInput{ItemID: f.item.ID, Quantity: 0, From: entity.ChannelStore, To: entity.ChannelWebsite})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// BatchSelector
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchSelector_LecturaPuraYDisponibilidad(t *testing.T) {
	f := newFixture(t)
	f.receive(t, 5, 10)
	b2 := f.receive(t, 10, 3)
	ctx := context.Background()

	first, err := f.selector.Select(ctx, f.item.ID, 8)
	require.NoError(t, err)
	second, err := f.selector.Select(ctx, f.item.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first.Picks, 1)
	assert.Equal(t, b2.ID, first.Picks[0].BatchID)
	assert.Equal(t, 15, f.batchQty(t), "seleccionar no descuenta")

	short, err := f.selector.Select(ctx, f.item.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, short.Shortfall)

	avail, err := f.selector.CheckAvailability(ctx, map[int64]int{f.item.ID: 15})
	require.NoError(t, err)
	assert.True(t, avail[f.item.ID])
}
