package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/inventory"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return today.AddDate(0, 0, offset) }

func batch(id int64, qty, expiryIn, purchasedAt int) entity.StockBatch {
	return entity.StockBatch{
		ID:             id,
		ItemID:         1,
		Quantity:       qty,
		DateOfPurchase: day(purchasedAt),
		DateOfExpiry:   day(expiryIn),
		Availability:   qty > 0,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de selección
// ──────────────────────────────────────────────────────────────────────────────

func TestSelectBatches_PriorizaLoteMasProximoAVencer(t *testing.T) {
	batches := []entity.StockBatch{
		batch(1, 5, 10, -10),
		batch(2, 10, 3, -8),
	}

	sel, err := inventory.SelectBatches(batches, 8, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.True(t, sel.Complete())
	assert.Equal(t, []inventory.BatchPick{{BatchID: 2, Quantity: 8}}, sel.Picks,
		"los 8 deben salir del lote 2 y el lote 1 queda intacto")
}

func TestSelectBatches_VentanaDeVencimientoGanaAFechaDeCompra(t *testing.T) {
	batches := []entity.StockBatch{
		batch(1, 4, 30, -60), // el más antiguo, pero lejos de vencer
		batch(2, 4, 7, -1),   // borde de la ventana: cuenta como próximo a vencer
		batch(3, 4, 8, -90),  // fuera de la ventana
	}

	sel, err := inventory.SelectBatches(batches, 12, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.Equal(t, []inventory.BatchPick{
		{BatchID: 2, Quantity: 4},
		{BatchID: 3, Quantity: 4},
		{BatchID: 1, Quantity: 4},
	}, sel.Picks)
}

func TestSelectBatches_MismoVencimientoDesempataPorCompra(t *testing.T) {
	batches := []entity.StockBatch{
		batch(7, 3, 20, -2),
		batch(5, 3, 20, -9),
		batch(6, 3, 20, -9),
	}

	sel, err := inventory.SelectBatches(batches, 7, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.Equal(t, []inventory.BatchPick{
		{BatchID: 5, Quantity: 3},
		{BatchID: 6, Quantity: 3},
		{BatchID: 7, Quantity: 1},
	}, sel.Picks)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cantidades y faltantes
// ──────────────────────────────────────────────────────────────────────────────

func TestSelectBatches_SumaExactaHastaElTotal(t *testing.T) {
	batches := []entity.StockBatch{
		batch(1, 5, 40, -3),
		batch(2, 2, 5, -3),
		batch(3, 9, 60, -1),
	}
	total := inventory.Available(batches, today)
	require.Equal(t, 16, total)

	for q := 1; q <= total; q++ {
		sel, err := inventory.SelectBatches(batches, q, today, inventory.NearExpiryDays)
		require.NoError(t, err)
		sum := 0
		for _, p := range sel.Picks {
			assert.Positive(t, p.Quantity)
			sum += p.Quantity
		}
		assert.Equal(t, q, sum, "q=%d", q)
		assert.Zero(t, sel.Shortfall, "q=%d", q)
	}
}

func TestSelectBatches_FaltanteDevuelveSeleccionParcial(t *testing.T) {
	batches := []entity.StockBatch{batch(1, 3, 15, -1), batch(2, 4, 20, -1)}

	sel, err := inventory.SelectBatches(batches, 10, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.False(t, sel.Complete())
	assert.Equal(t, 7, sel.Selected)
	assert.Equal(t, 3, sel.Shortfall)
	assert.Len(t, sel.Picks, 2)
}

func TestSelectBatches_DescartaVencidosVaciosYNoDisponibles(t *testing.T) {
	unavailable := batch(3, 6, 12, -1)
	unavailable.Availability = false
	batches := []entity.StockBatch{
		batch(1, 5, -1, -20), // vencido ayer
		batch(2, 0, 30, -5),
		unavailable,
		batch(4, 2, 0, -5), // vence hoy: todavía se puede vender
	}

	sel, err := inventory.SelectBatches(batches, 5, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.Equal(t, []inventory.BatchPick{{BatchID: 4, Quantity: 2}}, sel.Picks)
	assert.Equal(t, 3, sel.Shortfall)
}

func TestSelectBatches_CantidadNoPositiva(t *testing.T) {
	for _, q := range []int{0, -4} {
		_, err := inventory.SelectBatches([]entity.StockBatch{batch(1, 5, 10, 0)}, q, today, inventory.NearExpiryDays)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Pureza
// ──────────────────────────────────────────────────────────────────────────────

func TestSelectBatches_LecturaRepetidaEsIdenticaYNoModificaEntrada(t *testing.T) {
	batches := []entity.StockBatch{
		batch(1, 5, 10, -10),
		batch(2, 10, 3, -8),
		batch(3, 1, 2, -20),
	}
	original := append([]entity.StockBatch(nil), batches...)

	first, err := inventory.SelectBatches(batches, 9, today, inventory.NearExpiryDays)
	require.NoError(t, err)
	second, err := inventory.SelectBatches(batches, 9, today, inventory.NearExpiryDays)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, original, batches)
}
