package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// OrderLocator resolves a free-form order reference typed by a customer.
type OrderLocator struct {
	orderRepo repositories.OrderRepository
	timeout   time.Duration
}

// NewOrderLocator creates a new OrderLocator.
func NewOrderLocator(orderRepo repositories.OrderRepository, timeout time.Duration) *OrderLocator {
	return &OrderLocator{orderRepo: orderRepo, timeout: timeout}
}

// Find tries, in order and always within the owner's orders: the exact
// order number, the numeric id, "ORD-<id>", and finally a case-insensitive
// substring of the order number. An id the owner does not have falls
// through to the substring search. When several orders match the substring
// the earliest created one is returned.
func (l *OrderLocator) Find(ctx context.Context, owner, raw string) (*models.Order, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return nil, apperrors.NotFound("order not found")
	}
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	order, err := l.orderRepo.FindByNumber(ctx, owner, query)
	if !isNotFound(err) {
		return order, wrapLocate(query, err)
	}

	if id, ok := parseID(query); ok {
		order, err = l.orderRepo.GetForOwner(ctx, owner, id)
		if !isNotFound(err) {
			return order, wrapLocate(query, err)
		}
	}

	fragments := []string{query}
	if hasOrderPrefix(query) {
		rest := query[len(repositories.OrderNumberPrefix):]
		if id, ok := parseID(rest); ok {
			order, err = l.orderRepo.GetForOwner(ctx, owner, id)
			if !isNotFound(err) {
				return order, wrapLocate(query, err)
			}
		} else if rest != "" {
			fragments = append(fragments, rest)
		}
	}

	order, err = l.orderRepo.FindFirstByNumberFragment(ctx, owner, fragments...)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("order %s not found", query)
		}
		return nil, wrapLocate(query, err)
	}
	return order, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

func wrapLocate(query string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to locate order %q: %w", query, err)
}

func hasOrderPrefix(s string) bool {
	prefix := repositories.OrderNumberPrefix
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// parseID accepts only plain ASCII digits.
func parseID(s string) (uint, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
