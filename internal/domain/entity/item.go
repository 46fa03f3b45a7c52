package entity

import "github.com/shopspring/decimal"

// Item artículo del catálogo. El motor de inventario solo lo lee (por ID o por código).
type Item struct {
	ID        int64
	Code      string
	Name      string
	UnitPrice decimal.Decimal
}
