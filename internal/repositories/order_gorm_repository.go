package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderNumberPrefix starts every generated order number.
const OrderNumberPrefix = "ORD-"

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// NextOrderNumber increments the sequence row; the UPDATE holds its row
// lock until the surrounding transaction ends. The value is both the id
// and the digits of the number, so ORD-<n> always names order n.
func (r *GORMOrderRepository) NextOrderNumber(ctx context.Context) (uint, string, error) {
	db := conn(ctx, r.db)
	res := db.Model(&models.OrderSequence{}).Where("name = ?", OrderSequenceName).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, "", storageErr(res.Error, "failed to advance order sequence")
	}
	if res.RowsAffected == 0 {
		return 0, "", apperrors.TransientStorage(nil, "order sequence %q is not initialised", OrderSequenceName)
	}

	var seq models.OrderSequence
	if err := db.Where("name = ?", OrderSequenceName).First(&seq).Error; err != nil {
		return 0, "", storageErr(err, "failed to read order sequence")
	}
	return uint(seq.Value), fmt.Sprintf("%s%d", OrderNumberPrefix, seq.Value), nil
}

// Create inserts the order and, through the association, its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := conn(ctx, r.db).Create(order).Error; err != nil {
		return storageErr(err, "failed to create order %s", order.OrderNumber)
	}
	return nil
}

func (r *GORMOrderRepository) first(q *gorm.DB, what string) (*models.Order, error) {
	var order models.Order
	if err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order %s not found", what)
		}
		return nil, storageErr(err, "failed to load order %s", what)
	}
	return &order, nil
}

// GetByID returns an order regardless of owner.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id), fmt.Sprint(id))
}

// GetForOwner returns the order only if ownerID owns it.
func (r *GORMOrderRepository) GetForOwner(ctx context.Context, ownerID string, id uint) (*models.Order, error) {
	return r.first(conn(ctx, r.db).Where("id = ? AND owner_id = ?", id, ownerID), fmt.Sprint(id))
}

// LockForOwner selects the order FOR UPDATE.
func (r *GORMOrderRepository) LockForOwner(ctx context.Context, ownerID string, id uint) (*models.Order, error) {
	q := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID)
	return r.first(q, fmt.Sprint(id))
}

// ListByOwner returns the owner's orders, most recent first.
func (r *GORMOrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	var orders []models.Order
	err := conn(ctx, r.db).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("owner_id = ?", ownerID).Order("created_at DESC, id DESC").Find(&orders).Error
	if err != nil {
		return nil, storageErr(err, "failed to list orders of %s", ownerID)
	}
	return orders, nil
}

// FindByNumber matches the order number exactly.
func (r *GORMOrderRepository) FindByNumber(ctx context.Context, ownerID, orderNumber string) (*models.Order, error) {
	return r.first(conn(ctx, r.db).Where("order_number = ? AND owner_id = ?", orderNumber, ownerID), orderNumber)
}

// FindFirstByNumberFragment picks the lowest id among the matches.
func (r *GORMOrderRepository) FindFirstByNumberFragment(ctx context.Context, ownerID string, fragments ...string) (*models.Order, error) {
	if len(fragments) == 0 {
		return nil, apperrors.NotFound("order not found")
	}
	db := conn(ctx, r.db)
	match := db.Session(&gorm.Session{NewDB: true})
	for i, f := range fragments {
		pattern := "%" + escapeLike(strings.ToLower(f)) + "%"
		if i == 0 {
			match = match.Where(`LOWER(order_number) LIKE ? ESCAPE '\'`, pattern)
		} else {
			match = match.Or(`LOWER(order_number) LIKE ? ESCAPE '\'`, pattern)
		}
	}
	q := db.Where("owner_id = ?", ownerID).Where(match).Order("id ASC")
	return r.first(q, strings.Join(fragments, "|"))
}

// MarkPaid is a conditional update, so two concurrent payments cannot
// both succeed.
func (r *GORMOrderRepository) MarkPaid(ctx context.Context, id uint, paymentID string) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_id":     paymentID,
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusProcessing,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, storageErr(res.Error, "failed to mark order %d paid", id)
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus sets the status and, when notes is non-nil, the notes.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, notes *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := conn(ctx, r.db).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storageErr(res.Error, "failed to update status of order %d", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("order with ID %d not found for status update", id)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
