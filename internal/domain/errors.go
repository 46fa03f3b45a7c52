package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("error de persistencia")
)

// StockShortageError detalla una falta de stock. errors.Is(err, ErrInsufficientStock) es true.
type StockShortageError struct {
	ItemID    int64
	Channel   string // vacío cuando la falta es en lotes (BatchLedger)
	Requested int
	Available int
}

func (e *StockShortageError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("stock insuficiente en lotes: item %d, solicitado %d, disponible %d",
			e.ItemID, e.Requested, e.Available)
	}
	return fmt.Sprintf("stock insuficiente en estante %s: item %d, solicitado %d, disponible %d",
		e.Channel, e.ItemID, e.Requested, e.Available)
}

// Is permite comparar contra ErrInsufficientStock.
func (e *StockShortageError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid envuelve ErrInvalidInput con un detalle legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ItemNotFound error para un ítem inexistente: es una entrada inválida y a la vez un recurso no encontrado.
func ItemNotFound(ref any) error {
	return fmt.Errorf("%w: %w: ítem %v", ErrInvalidInput, ErrNotFound, ref)
}
