package messaging

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// VendCompletedEvent is the wire form of a receipt.
type VendCompletedEvent struct {
	ReceiptID    string          `json:"receipt_id"`
	RequestID    string          `json:"request_id,omitempty"`
	Selection    string          `json:"selection"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewVendCompletedEvent(r domain.Receipt) VendCompletedEvent {
	return VendCompletedEvent{
		ReceiptID:    r.ID,
		RequestID:    r.RequestID,
		Selection:    r.Selection.String(),
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Total:        r.Total,
		BalanceAfter: r.BalanceAfter,
		CreatedAt:    r.CreatedAt,
	}
}
