package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// StockUseCase recepción de lotes y consultas de lotes, estantes y movimientos.
type StockUseCase struct {
	batchRepo repository.StockBatchRepository
	shelfRepo repository.ShelfRepository
	movRepo   repository.ShelfMovementRepository
	itemRepo  repository.ItemRepository
	log       *logger.Logger
	cfg       Settings
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	batchRepo repository.StockBatchRepository,
	shelfRepo repository.ShelfRepository,
	movRepo repository.ShelfMovementRepository,
	itemRepo repository.ItemRepository,
	log *logger.Logger,
	cfg Settings,
) *StockUseCase {
	return &StockUseCase{
		batchRepo: batchRepo,
		shelfRepo: shelfRepo,
		movRepo:   movRepo,
		itemRepo:  itemRepo,
		log:       log,
		cfg:       cfg,
	}
}

// ReceiveBatchInput entrada para registrar un lote recibido. DateOfPurchase cero = hoy.
type ReceiveBatchInput struct {
	ItemID         int64
	Quantity       int
	DateOfPurchase time.Time
	DateOfExpiry   time.Time
}

// ReceiveBatch registra un lote nuevo, disponible, con toda su cantidad.
func (uc *StockUseCase) ReceiveBatch(ctx context.Context, in ReceiveBatchInput) (*entity.StockBatch, error) {
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	purchase := in.DateOfPurchase
	if purchase.IsZero() {
		purchase = uc.cfg.today()
	}
	if in.DateOfExpiry.IsZero() {
		return nil, domain.Invalid("fecha de vencimiento requerida")
	}
	purchase, expiry := entity.Day(purchase), entity.Day(in.DateOfExpiry)
	if expiry.Before(purchase) {
		return nil, domain.Invalid("el vencimiento no puede ser anterior a la compra")
	}
	if _, err := findItem(ctx, uc.itemRepo, in.ItemID); err != nil {
		return nil, err
	}

	b := &entity.StockBatch{
		ItemID:         in.ItemID,
		Quantity:       in.Quantity,
		DateOfPurchase: purchase,
		DateOfExpiry:   expiry,
		Availability:   true,
	}
	if err := uc.batchRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("batch_id", b.ID).
		Int64("item_id", b.ItemID).
		Int("quantity", b.Quantity).
		Time("expiry", b.DateOfExpiry).
		Msg("lote recibido")
	return b, nil
}

// ExpiryAlerts lotes con stock que vencen entre hoy y hoy+daysAhead.
func (uc *StockUseCase) ExpiryAlerts(ctx context.Context, daysAhead int) ([]entity.StockBatch, error) {
	if daysAhead < 0 {
		return nil, domain.Invalid("días de anticipación no pueden ser negativos")
	}
	today := uc.cfg.today()
	return uc.batchRepo.ListExpiring(ctx, today, today.AddDate(0, 0, daysAhead))
}

// ExpiredBatches lotes vencidos que todavía tienen stock.
func (uc *StockUseCase) ExpiredBatches(ctx context.Context) ([]entity.StockBatch, error) {
	return uc.batchRepo.ListExpired(ctx, uc.cfg.today())
}

// ShelfQuantity cantidad en estante; 0 si el estante no existe.
func (uc *StockUseCase) ShelfQuantity(ctx context.Context, itemID int64, channel entity.Channel) (int, error) {
	if !channel.Valid() {
		return 0, domain.Invalid("canal inválido")
	}
	slot, err := uc.shelfRepo.Get(ctx, itemID, channel)
	if err != nil {
		return 0, err
	}
	if slot == nil {
		return 0, nil
	}
	return slot.Quantity, nil
}

// ShelfOverview vista de ambos canales por ítem.
type ShelfOverview struct {
	ItemID          int64  `json:"item_id"`
	StoreQuantity   int    `json:"store_quantity"`
	WebsiteQuantity int    `json:"website_quantity"`
	Total           int    `json:"total"`
	LowStockShelf   string `json:"low_stock_shelf,omitempty"` // canal bajo el umbral cuando el otro no lo está
}

// Overview agrupa los estantes por ítem, ordenado por ítem.
func (uc *StockUseCase) Overview(ctx context.Context) ([]ShelfOverview, error) {
	slots, err := uc.shelfRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	byItem := make(map[int64]*ShelfOverview)
	for _, s := range slots {
		o, ok := byItem[s.ItemID]
		if !ok {
			o = &ShelfOverview{ItemID: s.ItemID}
			byItem[s.ItemID] = o
		}
		switch s.Channel {
		case entity.ChannelStore:
			o.StoreQuantity = s.Quantity
		case entity.ChannelWebsite:
			o.WebsiteQuantity = s.Quantity
		}
	}

	threshold := uc.cfg.LowStockThreshold
	out := make([]ShelfOverview, 0, len(byItem))
	for _, o := range byItem {
		o.Total = o.StoreQuantity + o.WebsiteQuantity
		storeLow, webLow := o.StoreQuantity < threshold, o.WebsiteQuantity < threshold
		switch {
		case storeLow && !webLow:
			o.LowStockShelf = entity.ChannelStore.String()
		case webLow && !storeLow:
			o.LowStockShelf = entity.ChannelWebsite.String()
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// LowStock estantes del canal con cantidad menor a min (min <= 0 usa el umbral configurado).
func (uc *StockUseCase) LowStock(ctx context.Context, channel entity.Channel, min int) ([]entity.ShelfSlot, error) {
	if !channel.Valid() {
		return nil, domain.Invalid("canal inválido")
	}
	if min <= 0 {
		min = uc.cfg.LowStockThreshold
	}
	return uc.shelfRepo.ListBelow(ctx, channel, min)
}

// Movements historial de movimientos lote→estante.
func (uc *StockUseCase) Movements(ctx context.Context, filter repository.MovementFilter) ([]entity.ShelfMovement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return uc.movRepo.List(ctx, filter)
}
