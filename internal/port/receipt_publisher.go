package port

import (
	"context"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

type ReceiptPublisher interface {
	// Publish announces a committed vend
	Publish(ctx context.Context, receipt domain.Receipt) error

	Close() error
}
