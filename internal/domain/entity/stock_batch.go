package entity

import "time"

// StockBatch lote de compra de un ítem con su cantidad restante y fechas de compra y vencimiento.
// Nunca se elimina: se agota hasta cero y queda no disponible.
type StockBatch struct {
	ID             int64
	ItemID         int64
	Quantity       int
	DateOfPurchase time.Time
	DateOfExpiry   time.Time
	Availability   bool
}

// DaysUntilExpiry días calendario desde today hasta el vencimiento (negativo si ya venció).
func (b StockBatch) DaysUntilExpiry(today time.Time) int {
	return int(Day(b.DateOfExpiry).Sub(Day(today)).Hours() / 24)
}

// IsExpired indica si el lote venció antes de today. Un lote que vence hoy sigue vigente.
func (b StockBatch) IsExpired(today time.Time) bool {
	return b.DaysUntilExpiry(today) < 0
}

// IsNearExpiry indica si el lote vence dentro de windowDays días (incluye hoy).
func (b StockBatch) IsNearExpiry(today time.Time, windowDays int) bool {
	d := b.DaysUntilExpiry(today)
	return d >= 0 && d <= windowDays
}

// Sellable indica si el lote puede participar en una selección.
func (b StockBatch) Sellable(today time.Time) bool {
	return b.Availability && b.Quantity > 0 && !b.IsExpired(today)
}

// Day trunca t a la medianoche UTC de su fecha calendario.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
