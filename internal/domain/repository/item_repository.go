package repository

import (
	"context"

	"github.com/jhoicas/retail-inventory/internal/domain/entity"
)

// ItemRepository lectura del catálogo de ítems. El catálogo es propiedad de otro módulo.
// Ambos métodos devuelven (nil, nil) si el ítem no existe. GetByCode no distingue mayúsculas;
// si varios códigos coinciden gana el exacto y luego el de menor ID.
type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
}
