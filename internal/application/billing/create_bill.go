package billing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// CreateBillUseCase crea una factura y descuenta los estantes en una sola transacción.
type CreateBillUseCase struct {
	txRunner  BillingTxRunner
	seller    ShelfSeller
	sequencer InvoiceNumberGenerator
	itemRepo  repository.ItemRepository
	billRepo  repository.BillRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewCreateBillUseCase construye el caso de uso.
func NewCreateBillUseCase(
	txRunner BillingTxRunner,
	seller ShelfSeller,
	sequencer InvoiceNumberGenerator,
	itemRepo repository.ItemRepository,
	billRepo repository.BillRepository,
	log *logger.Logger,
) *CreateBillUseCase {
	return &CreateBillUseCase{
		txRunner:  txRunner,
		seller:    seller,
		sequencer: sequencer,
		itemRepo:  itemRepo,
		billRepo:  billRepo,
		log:       log,
		now:       time.Now,
	}
}

// BillLineInput línea pedida.
type BillLineInput struct {
	ItemID   int64
	Quantity int
}

// CreateBillInput entrada para crear una factura.
type CreateBillInput struct {
	Channel entity.Channel
	UserID  string
	Lines   []BillLineInput
}

// CreateBill valida fuera de la tx, obtiene el número de factura y luego, dentro de una tx,
// descuenta cada estante y guarda cabecera y líneas. Sin stock suficiente no se persiste nada.
func (uc *CreateBillUseCase) CreateBill(ctx context.Context, in CreateBillInput) (*entity.Bill, error) {
	if !in.Channel.Valid() {
		return nil, domain.Invalid("canal inválido")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("la factura no tiene líneas")
	}

	// Líneas del mismo ítem se agrupan; el orden por ítem fija el orden de bloqueo de estantes.
	qtyByItem := make(map[int64]int, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, domain.Invalid("la cantidad debe ser mayor que cero (ítem %d)", l.ItemID)
		}
		qtyByItem[l.ItemID] += l.Quantity
	}
	lines := make([]entity.BillLine, 0, len(qtyByItem))
	for itemID, qty := range qtyByItem {
		item, err := uc.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ItemNotFound(itemID)
		}
		lines = append(lines, entity.BillLine{ItemID: itemID, Quantity: qty, UnitPrice: item.UnitPrice})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

	number, err := uc.sequencer.Next(WithCaller(ctx, in.UserID))
	if err != nil {
		return nil, err
	}

	bill := &entity.Bill{
		ID:            uuid.New().String(),
		InvoiceNumber: number,
		Channel:       in.Channel,
		CreatedBy:     in.UserID,
		CreatedAt:     uc.now(),
		Lines:         lines,
	}
	err = uc.txRunner.RunBilling(ctx, func(
		shelfRepo repository.ShelfRepository,
		billRepo repository.BillRepository,
	) error {
		for _, l := range bill.Lines {
			if _, err := uc.seller.SellInTx(ctx, shelfRepo, l.ItemID, l.Quantity, in.Channel); err != nil {
				return err
			}
		}
		return billRepo.Create(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("bill_id", bill.ID).
		Str("invoice_number", bill.InvoiceNumber).
		Str("channel", bill.Channel.String()).
		Int("lines", len(bill.Lines)).
		Msg("factura creada")
	return bill, nil
}

// GetBill busca una factura por número.
func (uc *CreateBillUseCase) GetBill(ctx context.Context, invoiceNumber string) (*entity.Bill, error) {
	if invoiceNumber == "" {
		return nil, domain.Invalid("número de factura vacío")
	}
	bill, err := uc.billRepo.GetByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	return bill, nil
}
