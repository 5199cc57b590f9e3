package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

const tracerName = "github.com/rl1809/vending-machine/internal/core/service"

type VendingService struct {
	machine *domain.Machine
	idem    port.IdempotencyStore
	logger  *zap.Logger
	tracer  trace.Tracer

	queueMu  sync.RWMutex
	closed   bool
	receipts chan domain.Receipt
}

// NewVendingService wraps machine. A queueSize of zero or less disables
// receipt queueing; idem may be nil to skip duplicate detection.
func NewVendingService(machine *domain.Machine, idem port.IdempotencyStore, queueSize int, logger *zap.Logger) *VendingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &VendingService{
		machine: machine,
		idem:    idem,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
	if queueSize > 0 {
		s.receipts = make(chan domain.Receipt, queueSize)
	}
	return s
}

func (s *VendingService) Deposit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	_, span := s.tracer.Start(ctx, "vending.deposit")
	defer span.End()
	span.SetAttributes(attribute.String("vending.amount", amount.String()))

	balance, err := s.machine.Deposit(amount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, err
	}

	s.logger.Info("deposit accepted",
		zap.Stringer("amount", amount),
		zap.Stringer("balance", balance),
	)
	return balance, nil
}

// Vend dispenses quantity units of selection. A non-empty requestID is
// claimed first; the claim is released again if the vend fails.
func (s *VendingService) Vend(ctx context.Context, requestID string, selection domain.Selection, quantity int) (domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "vending.vend")
	defer span.End()
	span.SetAttributes(
		attribute.String("vending.request_id", requestID),
		attribute.String("vending.selection", selection.String()),
		attribute.Int("vending.quantity", quantity),
	)

	if requestID != "" && s.idem != nil {
		ok, err := s.idem.SetIdempotency(ctx, vendKey(requestID))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return domain.Receipt{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			span.SetStatus(codes.Error, ErrDuplicateRequest.Error())
			return domain.Receipt{}, ErrDuplicateRequest
		}
	}

	sale, err := s.machine.Vend(selection, quantity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Info("vend rejected",
			zap.String("request_id", requestID),
			zap.Stringer("selection", selection),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		if requestID != "" && s.idem != nil {
			if releaseErr := s.idem.ReleaseIdempotency(ctx, vendKey(requestID)); releaseErr != nil {
				s.logger.Warn("failed to release request id", zap.String("request_id", requestID), zap.Error(releaseErr))
			}
		}
		return domain.Receipt{}, err
	}

	receipt := domain.Receipt{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Sale:      sale,
		CreatedAt: time.Now(),
	}
	span.SetAttributes(
		attribute.String("vending.receipt_id", receipt.ID),
		attribute.String("vending.total", sale.Total.String()),
	)
	span.SetStatus(codes.Ok, "vended")

	s.logger.Info("vend completed",
		zap.String("receipt_id", receipt.ID),
		zap.String("request_id", requestID),
		zap.Stringer("selection", selection),
		zap.Int("quantity", quantity),
		zap.Stringer("total", sale.Total),
		zap.Stringer("balance", sale.BalanceAfter),
	)

	s.enqueue(ctx, receipt)
	return receipt, nil
}

// enqueue hands the receipt to the dispatchers. The vend is already
// committed, so a cancelled context only drops the notification.
func (s *VendingService) enqueue(ctx context.Context, receipt domain.Receipt) {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()

	if s.receipts == nil || s.closed {
		return
	}

	select {
	case s.receipts <- receipt:
	case <-ctx.Done():
		s.logger.Warn("receipt dropped", zap.String("receipt_id", receipt.ID), zap.Error(ctx.Err()))
	}
}

func (s *VendingService) Lookup(selection domain.Selection) (domain.Item, bool) {
	return s.machine.Lookup(selection)
}

func (s *VendingService) Quote(selection domain.Selection, quantity int) (decimal.Decimal, error) {
	return s.machine.Quote(selection, quantity)
}

func (s *VendingService) Balance() decimal.Decimal {
	return s.machine.Balance()
}

func (s *VendingService) Catalog() []domain.Entry {
	return s.machine.Snapshot()
}

// GetReceiptQueue returns nil when queueing is disabled.
func (s *VendingService) GetReceiptQueue() <-chan domain.Receipt {
	return s.receipts
}

func (s *VendingService) Close() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.receipts != nil {
		close(s.receipts)
	}
}

func vendKey(requestID string) string {
	return "vend:" + requestID
}
