package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// PaymentResult is returned by a successful payment.
type PaymentResult struct {
	PaymentID string        `json:"payment_id"`
	Order     *models.Order `json:"order"`
}

// PaymentService moves orders from unpaid to paid. No payment gateway is
// contacted; the payment id is derived from the order.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	outbox    repositories.OutboxRepository
	tx        repositories.TxManager
	timeout   time.Duration
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orderRepo repositories.OrderRepository, outbox repositories.OutboxRepository, tx repositories.TxManager, timeout time.Duration) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		outbox:    outbox,
		tx:        tx,
		timeout:   timeout,
	}
}

// PaymentID builds the identifier recorded on a paid order.
func PaymentID(order *models.Order) string {
	return fmt.Sprintf("PAY_%s_%d", order.OrderNumber, order.ID)
}

// ProcessPayment marks the owner's order paid and moves it to processing.
// Of two concurrent payments for the same order exactly one succeeds; the
// other fails with AlreadyPaid.
func (s *PaymentService) ProcessPayment(ctx context.Context, owner string, orderID uint) (*PaymentResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var result *PaymentResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.LockForOwner(ctx, owner, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			return apperrors.AlreadyPaid("order %s is already paid", order.OrderNumber)
		}

		paymentID := PaymentID(order)
		updated, err := s.orderRepo.MarkPaid(ctx, order.ID, paymentID)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.AlreadyPaid("order %s is already paid", order.OrderNumber)
		}

		order, err = s.orderRepo.GetByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := s.outbox.Append(ctx, order.OrderNumber, models.EventOrderPaid, newOrderEvent(order)); err != nil {
			return err
		}
		result = &PaymentResult{PaymentID: paymentID, Order: order}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process payment for order %d: %w", orderID, err)
	}

	log.Printf("Order %s paid with %s", result.Order.OrderNumber, result.PaymentID)
	return result, nil
}
