package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var (
	_ repository.StockBatchRepository    = (*StockBatchRepo)(nil)
	_ repository.ShelfRepository         = (*ShelfRepo)(nil)
	_ repository.ShelfMovementRepository = (*ShelfMovementRepo)(nil)
	_ repository.BillRepository          = (*BillRepo)(nil)
	_ repository.InvoiceNumberRepository = (*InvoiceNumberRepo)(nil)
)

// StockBatchRepo lotes en memoria.
type StockBatchRepo struct{ v view }

// Create asigna ID y guarda el lote.
func (r *StockBatchRepo) Create(ctx context.Context, b *entity.StockBatch) error {
	return r.v.do(ctx, func(st *state) error {
		b.ID = st.nextID()
		st.batches[b.ID] = *b
		return nil
	})
}

// GetByID devuelve (nil, nil) si no existe.
func (r *StockBatchRepo) GetByID(ctx context.Context, id int64) (*entity.StockBatch, error) {
	var out *entity.StockBatch
	err := r.v.do(ctx, func(st *state) error {
		if b, ok := st.batches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *StockBatchRepo) filter(ctx context.Context, keep func(entity.StockBatch) bool) ([]entity.StockBatch, error) {
	var out []entity.StockBatch
	err := r.v.do(ctx, func(st *state) error {
		for _, b := range st.batches {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// ListSellable lotes vendibles del ítem a la fecha today.
func (r *StockBatchRepo) ListSellable(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error) {
	return r.filter(ctx, func(b entity.StockBatch) bool { return b.ItemID == itemID && b.Sellable(today) })
}

// ListSellableForUpdate igual que ListSellable: dentro de Run el estado ya es exclusivo.
func (r *StockBatchRepo) ListSellableForUpdate(ctx context.Context, itemID int64, today time.Time) ([]entity.StockBatch, error) {
	return r.ListSellable(ctx, itemID, today)
}

// Decrement resta qty si alcanza; si no, StockShortageError.
func (r *StockBatchRepo) Decrement(ctx context.Context, batchID int64, qty int) error {
	return r.v.do(ctx, func(st *state) error {
		b, ok := st.batches[batchID]
		if !ok || b.Quantity < qty {
			return &domain.StockShortageError{ItemID: b.ItemID, Requested: qty, Available: b.Quantity}
		}
		b.Quantity -= qty
		b.Availability = b.Quantity > 0
		st.batches[batchID] = b
		return nil
	})
}

// ListExpiring lotes con stock que vencen entre from y to.
func (r *StockBatchRepo) ListExpiring(ctx context.Context, from, to time.Time) ([]entity.StockBatch, error) {
	out, err := r.filter(ctx, func(b entity.StockBatch) bool {
		return b.Availability && b.Quantity > 0 && !b.DateOfExpiry.Before(from) && !b.DateOfExpiry.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateOfExpiry.Before(out[j].DateOfExpiry) })
	return out, err
}

// ListExpired lotes con stock vencidos antes de today.
func (r *StockBatchRepo) ListExpired(ctx context.Context, today time.Time) ([]entity.StockBatch, error) {
	out, err := r.filter(ctx, func(b entity.StockBatch) bool {
		return b.Availability && b.Quantity > 0 && b.IsExpired(today)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateOfExpiry.Before(out[j].DateOfExpiry) })
	return out, err
}

// ShelfRepo estantes en memoria.
type ShelfRepo struct{ v view }

// Get devuelve (nil, nil) si no existe.
func (r *ShelfRepo) Get(ctx context.Context, itemID int64, channel entity.Channel) (*entity.ShelfSlot, error) {
	var out *entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		if s, ok := st.shelves[shelfKey{itemID, channel}]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// ListByItemForUpdate estantes del ítem ordenados por canal.
func (r *ShelfRepo) ListByItemForUpdate(ctx context.Context, itemID int64) ([]entity.ShelfSlot, error) {
	var out []entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		for _, ch := range entity.Channels {
			if s, ok := st.shelves[shelfKey{itemID, ch}]; ok {
				out = append(out, s)
			}
		}
		return nil
	})
	return out, err
}

// AddQuantity suma qty, creando el estante si no existe.
func (r *ShelfRepo) AddQuantity(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error) {
	var out entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		k := shelfKey{itemID, channel}
		s, ok := st.shelves[k]
		if !ok {
			s = entity.ShelfSlot{ID: st.nextID(), ItemID: itemID, Channel: channel}
		}
		s.Quantity += qty
		st.shelves[k] = s
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Decrement resta qty si alcanza; si no, StockShortageError.
func (r *ShelfRepo) Decrement(ctx context.Context, itemID int64, channel entity.Channel, qty int) (*entity.ShelfSlot, error) {
	var out entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		k := shelfKey{itemID, channel}
		s, ok := st.shelves[k]
		if !ok || s.Quantity < qty {
			return &domain.StockShortageError{ItemID: itemID, Channel: channel.String(), Requested: qty, Available: s.Quantity}
		}
		s.Quantity -= qty
		st.shelves[k] = s
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List todos los estantes ordenados por ítem y canal.
func (r *ShelfRepo) List(ctx context.Context) ([]entity.ShelfSlot, error) {
	var out []entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		for _, s := range st.shelves {
			out = append(out, s)
		}
		return nil
	})
	sortSlots(out)
	return out, err
}

// ListBelow estantes del canal con cantidad menor a min.
func (r *ShelfRepo) ListBelow(ctx context.Context, channel entity.Channel, min int) ([]entity.ShelfSlot, error) {
	var out []entity.ShelfSlot
	err := r.v.do(ctx, func(st *state) error {
		for _, s := range st.shelves {
			if s.Channel == channel && s.Quantity < min {
				out = append(out, s)
			}
		}
		return nil
	})
	sortSlots(out)
	return out, err
}

func sortSlots(slots []entity.ShelfSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].ItemID != slots[j].ItemID {
			return slots[i].ItemID < slots[j].ItemID
		}
		return slots[i].Channel < slots[j].Channel
	})
}

// ShelfMovementRepo movimientos en memoria (solo inserción).
type ShelfMovementRepo struct{ v view }

// Create asigna ID y agrega el movimiento.
func (r *ShelfMovementRepo) Create(ctx context.Context, m *entity.ShelfMovement) error {
	return r.v.do(ctx, func(st *state) error {
		m.ID = st.nextID()
		st.movements = append(st.movements, *m)
		return nil
	})
}

// List movimientos más recientes primero.
func (r *ShelfMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]entity.ShelfMovement, error) {
	var out []entity.ShelfMovement
	err := r.v.do(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.StockBatchID != 0 && m.StockBatchID != f.StockBatchID {
				continue
			}
			if f.ShelfID != 0 && m.ShelfID != f.ShelfID {
				continue
			}
			out = append(out, m)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// BillRepo facturas en memoria, indexadas por número.
type BillRepo struct{ v view }

// Create guarda la factura; número repetido = ErrConflict.
func (r *BillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	return r.v.do(ctx, func(st *state) error {
		if _, dup := st.bills[bill.InvoiceNumber]; dup {
			return domain.ErrConflict
		}
		st.bills[bill.InvoiceNumber] = *bill
		return nil
	})
}

// GetByInvoiceNumber devuelve (nil, nil) si no existe.
func (r *BillRepo) GetByInvoiceNumber(ctx context.Context, number string) (*entity.Bill, error) {
	var out *entity.Bill
	err := r.v.do(ctx, func(st *state) error {
		if b, ok := st.bills[number]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

// InvoiceNumberRepo reservas de números de factura.
type InvoiceNumberRepo struct{ v view }

// Exists busca en facturas y reservas.
func (r *InvoiceNumberRepo) Exists(ctx context.Context, number string) (bool, error) {
	var found bool
	err := r.v.do(ctx, func(st *state) error {
		_, inBills := st.bills[number]
		_, reserved := st.reservations[number]
		found = inBills || reserved
		return nil
	})
	return found, err
}

// Reserve registra el número; repetido = ErrConflict.
func (r *InvoiceNumberRepo) Reserve(ctx context.Context, number string) error {
	return r.v.do(ctx, func(st *state) error {
		if _, dup := st.reservations[number]; dup {
			return domain.ErrConflict
		}
		st.reservations[number] = time.Now()
		return nil
	})
}
