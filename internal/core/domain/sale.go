package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale describes a committed vend.
type Sale struct {
	Selection    Selection
	Quantity     int
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Receipt is a Sale stamped for publication.
type Receipt struct {
	ID        string
	RequestID string
	Sale
	CreatedAt time.Time
}
