package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

// LogPublisher writes receipts to the log when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, receipt domain.Receipt) error {
	p.logger.Info("vend completed",
		zap.String("receipt_id", receipt.ID),
		zap.Stringer("selection", receipt.Selection),
		zap.Int("quantity", receipt.Quantity),
		zap.Stringer("total", receipt.Total),
		zap.Time("created_at", receipt.CreatedAt),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
