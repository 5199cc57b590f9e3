package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/port"
)

const publishTimeout = 5 * time.Second

// DispatchReceipts publishes receipts until queue is closed. Failed
// publishes are logged and skipped; the vend itself is never undone.
func DispatchReceipts(id int, queue <-chan domain.Receipt, publisher port.ReceiptPublisher, logger *zap.Logger) {
	for receipt := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := publisher.Publish(ctx, receipt); err != nil {
			logger.Error("failed to publish receipt",
				zap.Int("worker", id),
				zap.String("receipt_id", receipt.ID),
				zap.Error(err),
			)
		} else {
			logger.Debug("published receipt", zap.Int("worker", id), zap.String("receipt_id", receipt.ID))
		}

		cancel()
	}
}
