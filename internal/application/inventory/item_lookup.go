package inventory

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
)

// ItemLookup resuelve referencias a ítems (ID numérico o código) contra el catálogo.
type ItemLookup struct {
	itemRepo repository.ItemRepository
}

// NewItemLookup construye el resolvedor.
func NewItemLookup(itemRepo repository.ItemRepository) *ItemLookup {
	return &ItemLookup{itemRepo: itemRepo}
}

// Resolve acepta "42" (ID) o un código ("lech-001", "LECH-001"). Los códigos se comparan normalizados.
func (l *ItemLookup) Resolve(ctx context.Context, ref string) (*entity.Item, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.Invalid("referencia de ítem vacía")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return findItem(ctx, l.itemRepo, id)
	}
	code := NormalizeCode(ref)
	item, err := l.itemRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ItemNotFound(code)
	}
	return item, nil
}

// NormalizeCode normaliza un código de ítem: NFC y mayúsculas.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(code)))
}

func findItem(ctx context.Context, itemRepo repository.ItemRepository, id int64) (*entity.Item, error) {
	if id <= 0 {
		return nil, domain.Invalid("id de ítem inválido (%d)", id)
	}
	item, err := itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ItemNotFound(id)
	}
	return item, nil
}
