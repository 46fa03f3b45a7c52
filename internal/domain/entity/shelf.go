package entity

import (
	"fmt"
	"time"
)

// Channel canal de venta de un estante. Solo existen STORE y WEBSITE.
type Channel uint8

const (
	ChannelStore Channel = iota + 1
	ChannelWebsite
)

// Channels enumera los canales en orden estable.
var Channels = []Channel{ChannelStore, ChannelWebsite}

// String devuelve la representación de almacenamiento ("STORE" / "WEBSITE").
func (c Channel) String() string {
	switch c {
	case ChannelStore:
		return "STORE"
	case ChannelWebsite:
		return "WEBSITE"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Valid indica si c es uno de los dos canales.
func (c Channel) Valid() bool {
	return c == ChannelStore || c == ChannelWebsite
}

// ParseChannel convierte la representación textual al enum.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "STORE":
		return ChannelStore, nil
	case "WEBSITE":
		return ChannelWebsite, nil
	}
	return 0, fmt.Errorf("canal desconocido %q", s)
}

// ShelfSlot cantidad en estante de un ítem para un canal. Existe a lo sumo uno por (ítem, canal).
type ShelfSlot struct {
	ID       int64
	ItemID   int64
	Channel  Channel
	Quantity int
}

// ShelfMovement registro de auditoría: cantidad movida de un lote a un estante. Solo se inserta.
type ShelfMovement struct {
	ID            int64
	StockBatchID  int64
	ShelfID       int64
	QuantityMoved int
	MovedAt       time.Time
}
