// Package memory implementa los repositorios en memoria (modo demo y tests).
// Las transacciones se serializan con un mutex y trabajan sobre una copia del estado
// que solo se publica si la función termina sin error.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/retail-inventory/internal/application/billing"
	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

var (
	_ inventory.TxRunner        = (*Store)(nil)
	_ billing.BillingTxRunner   = (*Store)(nil)
	_ repository.ItemRepository = (*ItemRepo)(nil)
)

type shelfKey struct {
	itemID  int64
	channel entity.Channel
}

type state struct {
	items        map[int64]entity.Item
	batches      map[int64]entity.StockBatch
	shelves      map[shelfKey]entity.ShelfSlot
	movements    []entity.ShelfMovement
	bills        map[string]entity.Bill
	reservations map[string]time.Time
	seq          int64
}

func newState() *state {
	return &state{
		items:        map[int64]entity.Item{},
		batches:      map[int64]entity.StockBatch{},
		shelves:      map[shelfKey]entity.ShelfSlot{},
		bills:        map[string]entity.Bill{},
		reservations: map[string]time.Time{},
	}
}

func (s *state) clone() *state {
	c := &state{
		items:        maps.Clone(s.items),
		batches:      maps.Clone(s.batches),
		shelves:      maps.Clone(s.shelves),
		movements:    slices.Clone(s.movements),
		bills:        make(map[string]entity.Bill, len(s.bills)),
		reservations: maps.Clone(s.reservations),
		seq:          s.seq,
	}
	for k, b := range s.bills {
		b.Lines = slices.Clone(b.Lines)
		c.bills[k] = b
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store almacén en memoria. Implementa TxRunner (inventario y facturación).
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// view ejecuta fn sobre tx si hay transacción o, si no, sobre el estado publicado con el mutex tomado.
type view struct {
	store *Store
	tx    *state
}

func (v view) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (s *Store) runTx(ctx context.Context, fn func(v view) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(view{store: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrPersistence, err)
	}
	s.state = tx
	return nil
}

// Run ejecuta fn con repos de inventario atados a una transacción.
func (s *Store) Run(ctx context.Context, fn func(
	batchRepo repository.StockBatchRepository,
	shelfRepo repository.ShelfRepository,
	movRepo repository.ShelfMovementRepository,
) error) error {
	return s.runTx(ctx, func(v view) error {
		return fn(&StockBatchRepo{v}, &ShelfRepo{v}, &ShelfMovementRepo{v})
	})
}

// RunBilling ejecuta fn con repos de estantes y facturas atados a una transacción.
func (s *Store) RunBilling(ctx context.Context, fn func(
	shelfRepo repository.ShelfRepository,
	billRepo repository.BillRepository,
) error) error {
	return s.runTx(ctx, func(v view) error {
		return fn(&ShelfRepo{v}, &BillRepo{v})
	})
}

func (s *Store) base() view { return view{store: s} }

// Items repositorio de ítems fuera de transacción.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s.base()} }

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() *StockBatchRepo { return &StockBatchRepo{s.base()} }

// Shelves repositorio de estantes fuera de transacción.
func (s *Store) Shelves() *ShelfRepo { return &ShelfRepo{s.base()} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *ShelfMovementRepo { return &ShelfMovementRepo{s.base()} }

// Bills repositorio de facturas fuera de transacción.
func (s *Store) Bills() *BillRepo { return &BillRepo{s.base()} }

// InvoiceNumbers registro de números de factura.
func (s *Store) InvoiceNumbers() *InvoiceNumberRepo { return &InvoiceNumberRepo{s.base()} }

// PutItem agrega o reemplaza un ítem del catálogo. ID cero asigna uno nuevo.
func (s *Store) PutItem(item entity.Item) entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		item.ID = s.state.nextID()
	}
	s.state.items[item.ID] = item
	return item
}

// ItemRepo catálogo en memoria.
type ItemRepo struct{ v view }

// GetByID devuelve (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	var out *entity.Item
	err := r.v.do(ctx, func(st *state) error {
		if it, ok := st.items[id]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

// GetByCode no distingue mayúsculas; prefiere el código exacto y luego el menor ID.
// Devuelve (nil, nil) si no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var out *entity.Item
	err := r.v.do(ctx, func(st *state) error {
		for _, it := range st.items {
			if !strings.EqualFold(it.Code, code) {
				continue
			}
			if out == nil || betterCodeMatch(it, *out, code) {
				out = &it
			}
		}
		return nil
	})
	return out, err
}

func betterCodeMatch(a, b entity.Item, code string) bool {
	if (a.Code == code) != (b.Code == code) {
		return a.Code == code
	}
	return a.ID < b.ID
}

// Upsert agrega el ítem o actualiza nombre y precio si el código ya existe.
func (r *ItemRepo) Upsert(ctx context.Context, item *entity.Item) error {
	return r.v.do(ctx, func(st *state) error {
		for id, it := range st.items {
			if it.Code == item.Code {
				item.ID = id
				st.items[id] = *item
				return nil
			}
		}
		item.ID = st.nextID()
		st.items[item.ID] = *item
		return nil
	})
}
