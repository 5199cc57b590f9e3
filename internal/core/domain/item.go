package domain

import (
	"github.com/shopspring/decimal"
)

// Item is a catalog entry. Price never changes after load; Quantity only
// shrinks through successful vends.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Catalog maps each stocked selection to its item.
type Catalog map[Selection]Item

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for s, item := range c {
		out[s] = item
	}
	return out
}

// Entry pairs a selection with its item for ordered listings.
type Entry struct {
	Selection Selection
	Item      Item
}
