package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ayush1910-maker/stitching-store-api/models"
)

// NewOrderNumber generates a public stitching order number.
func NewOrderNumber() string {
	return "STG-" + strings.ToUpper(uuid.NewString()[:8])
}

// NewEcommerceOrderNumber generates a public e-commerce order number.
func NewEcommerceOrderNumber() string {
	return "ECM-" + strings.ToUpper(uuid.NewString()[:8])
}

// lockOrder loads a stitching order inside tx with a row lock so the
// predecessor-status check and the status write see the same snapshot.
func lockOrder(tx *gorm.DB, orderID uint) (*models.StitchingOrder, error) {
	var order models.StitchingOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(KindNotFound, "Order not found")
	}
	if err != nil {
		return nil, err
	}
	order.Status = models.NormalizeOrderStatus(order.Status)
	return &order, nil
}

// transitionOrder moves an order to nextStatus with the stored status as a
// write predicate. If a concurrent writer got there first, RowsAffected is
// zero and the transition fails instead of silently overwriting.
func transitionOrder(tx *gorm.DB, order *models.StitchingOrder, nextStatus string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": nextStatus}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&models.StitchingOrder{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewError(KindInvalidTransition,
			fmt.Sprintf("Order status changed concurrently, cannot move to %s", nextStatus))
	}
	order.Status = nextStatus
	return nil
}

// invalidTransition builds the standard error for an illegal move.
func invalidTransition(from, to string) error {
	return NewError(KindInvalidTransition,
		fmt.Sprintf("Invalid status transition from %s to %s", from, to))
}

// CreateStitchingOrder creates a new order in pending state and writes its
// first history entry.
func CreateStitchingOrder(db *gorm.DB, order *models.StitchingOrder) (*models.StitchingOrder, error) {
	if order.TotalAmount < 0 {
		return nil, NewError(KindValidationFailed, "Order total cannot be negative")
	}
	if order.OrderNumber == "" {
		order.OrderNumber = NewOrderNumber()
	}
	order.Status = models.OrderStatusPending
	order.PaymentStatus = models.PaymentStatusPending

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusPending, order.CustomerID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AssignTailor moves a pending order to assigned and locks the tailor onto
// it. Admin only. Exactly one of two racing assigns can succeed.
func AssignTailor(db *gorm.DB, orderID, tailorID uint, admin *models.User) (*models.StitchingOrder, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can assign tailors")
	}

	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var tailor models.User
		if err := tx.First(&tailor, tailorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindValidationFailed, "Invalid tailor")
			}
			return err
		}
		if tailor.Role != models.RoleTailor || tailor.IsBanned {
			return NewError(KindValidationFailed, "Invalid tailor")
		}

		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusAssigned) {
			return invalidTransition(order.Status, models.OrderStatusAssigned)
		}

		if err := transitionOrder(tx, order, models.OrderStatusAssigned, map[string]interface{}{
			"tailor_id": tailorID,
		}); err != nil {
			return err
		}
		order.TailorID = &tailorID

		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusAssigned, admin.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AcceptOrder lets the assigned tailor take on an order.
func AcceptOrder(db *gorm.DB, orderID uint, tailor *models.User) (*models.StitchingOrder, error) {
	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := requireOwningTailor(order, tailor); err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusAccepted) {
			return invalidTransition(order.Status, models.OrderStatusAccepted)
		}

		if err := transitionOrder(tx, order, models.OrderStatusAccepted, nil); err != nil {
			return err
		}
		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusAccepted, tailor.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RejectOrder lets the assigned tailor decline an order before acceptance.
// The tailor slot is freed so the order can be reassigned.
func RejectOrder(db *gorm.DB, orderID uint, tailor *models.User, reason string) (*models.StitchingOrder, error) {
	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := requireOwningTailor(order, tailor); err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusRejected) {
			return invalidTransition(order.Status, models.OrderStatusRejected)
		}

		if err := transitionOrder(tx, order, models.OrderStatusRejected, map[string]interface{}{
			"tailor_id":        nil,
			"rejection_reason": reason,
		}); err != nil {
			return err
		}
		order.TailorID = nil
		order.RejectionReason = reason

		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusRejected, tailor.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AdvanceProductionStage moves an accepted order one step along the
// production chain (cutting, stitching, finishing, ready). No skipping.
func AdvanceProductionStage(db *gorm.DB, orderID uint, tailor *models.User, nextStage string) (*models.StitchingOrder, error) {
	nextStage = models.NormalizeOrderStatus(nextStage)
	if !models.IsProductionStage(nextStage) {
		return nil, NewError(KindValidationFailed, "Invalid production stage")
	}

	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := requireOwningTailor(order, tailor); err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, nextStage) {
			return invalidTransition(order.Status, nextStage)
		}

		if err := transitionOrder(tx, order, nextStage, nil); err != nil {
			return err
		}
		return models.AppendOrderHistory(tx, order.ID, nextStage, tailor.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkReadyForDelivery flags a finished garment as ready for dispatch.
func MarkReadyForDelivery(db *gorm.DB, orderID uint, tailor *models.User) (*models.StitchingOrder, error) {
	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := requireOwningTailor(order, tailor); err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusReadyForDelivery) {
			return invalidTransition(order.Status, models.OrderStatusReadyForDelivery)
		}

		if err := transitionOrder(tx, order, models.OrderStatusReadyForDelivery, nil); err != nil {
			return err
		}
		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusReadyForDelivery, tailor.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// QualityApprove re-confirms an order is dispatch-ready. Re-approval is an
// idempotent no-op on the status but still appends a history entry.
func QualityApprove(db *gorm.DB, orderID uint, admin *models.User) (*models.StitchingOrder, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can quality-approve orders")
	}

	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusReadyForDelivery {
			return invalidTransition(order.Status, models.OrderStatusReadyForDelivery)
		}
		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusReadyForDelivery, admin.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder terminates any non-terminal order. Admin only.
func CancelOrder(db *gorm.DB, orderID uint, admin *models.User, reason string) (*models.StitchingOrder, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can cancel orders")
	}
	if reason == "" {
		reason = "Cancelled by admin"
	}

	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusCancelled) {
			return invalidTransition(order.Status, models.OrderStatusCancelled)
		}

		if err := transitionOrder(tx, order, models.OrderStatusCancelled, map[string]interface{}{
			"cancellation_reason": reason,
		}); err != nil {
			return err
		}
		order.CancellationReason = reason

		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusCancelled, admin.ID, "")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RequestAlteration lets the owning customer ask for rework on a non-terminal
// order; the alteration record and the status change commit together.
func RequestAlteration(db *gorm.DB, orderID uint, customer *models.User, reason string, images []string) (*models.StitchingOrder, *models.AlterationRequest, error) {
	var order *models.StitchingOrder
	var alteration *models.AlterationRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customer.ID {
			return NewError(KindForbidden, "You do not have permission to access this order")
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusAlterationRequested) {
			return invalidTransition(order.Status, models.OrderStatusAlterationRequested)
		}

		if err := transitionOrder(tx, order, models.OrderStatusAlterationRequested, map[string]interface{}{
			"is_alteration_requested": true,
		}); err != nil {
			return err
		}
		order.IsAlterationRequested = true

		alteration = &models.AlterationRequest{
			OrderID: order.ID,
			Reason:  reason,
			Images:  images,
			Status:  "REQUESTED",
		}
		if err := tx.Create(alteration).Error; err != nil {
			return err
		}

		return models.AppendOrderHistory(tx, order.ID, models.OrderStatusAlterationRequested, customer.ID, "")
	})
	if err != nil {
		return nil, nil, err
	}
	return order, alteration, nil
}

// AssignDeliveryTask attaches a pickup or drop partner to an order and
// creates the corresponding task. The task table is the partner's assigned
// list; rows are appended, never rewritten wholesale.
func AssignDeliveryTask(db *gorm.DB, orderID, partnerID uint, taskType string, admin *models.User) (*models.StitchingOrder, *models.DeliveryTask, error) {
	if admin.Role != models.RoleAdmin {
		return nil, nil, NewError(KindForbidden, "Only admins can assign delivery tasks")
	}
	if taskType != models.TaskTypePickup && taskType != models.TaskTypeDrop {
		return nil, nil, NewError(KindValidationFailed, "Task type must be pickup or drop")
	}

	var order *models.StitchingOrder
	var task *models.DeliveryTask
	err := db.Transaction(func(tx *gorm.DB) error {
		var partner models.DeliveryPartner
		if err := tx.Where("user_id = ?", partnerID).First(&partner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "Delivery partner not found")
			}
			return err
		}

		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if models.IsTerminalOrderStatus(order.Status) {
			return NewError(KindInvalidTransition, "Cannot assign delivery on a closed order")
		}

		partnerColumn := "pickup_partner_id"
		if taskType == models.TaskTypeDrop {
			partnerColumn = "drop_partner_id"
		}
		if err := tx.Model(order).Update(partnerColumn, partnerID).Error; err != nil {
			return err
		}
		if taskType == models.TaskTypeDrop {
			order.DropPartnerID = &partnerID
		} else {
			order.PickupPartnerID = &partnerID
		}

		task = &models.DeliveryTask{
			OrderID:      order.ID,
			PartnerID:    partnerID,
			AssignedByID: admin.ID,
			TaskType:     taskType,
			Status:       models.TaskStatusAssigned,
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		return models.AppendOrderHistory(tx, order.ID, order.Status, admin.ID, "")
	})
	if err != nil {
		return nil, nil, err
	}
	return order, task, nil
}

// ReassignOrder swaps the tailor and/or a delivery partner on an order that
// is already in flight. Outstanding non-terminal tasks held by a replaced
// partner are soft-cancelled in the same transaction so they do not linger on
// the old partner's list.
func ReassignOrder(db *gorm.DB, orderID uint, tailorID, partnerID *uint, taskType string, admin *models.User) (*models.StitchingOrder, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can reassign orders")
	}
	if tailorID == nil && partnerID == nil {
		return nil, NewError(KindValidationFailed, "Nothing to reassign")
	}

	var order *models.StitchingOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if models.IsTerminalOrderStatus(order.Status) {
			return NewError(KindInvalidTransition, "Cannot reassign a closed order")
		}

		if tailorID != nil {
			var tailor models.User
			if err := tx.First(&tailor, *tailorID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewError(KindValidationFailed, "Invalid tailor")
				}
				return err
			}
			if tailor.Role != models.RoleTailor || tailor.IsBanned {
				return NewError(KindValidationFailed, "Invalid tailor")
			}

			if err := tx.Model(order).Update("tailor_id", *tailorID).Error; err != nil {
				return err
			}
			order.TailorID = tailorID

			if err := models.AppendOrderHistory(tx, order.ID, models.OrderStatusAssigned, admin.ID, ""); err != nil {
				return err
			}
		}

		if partnerID != nil {
			if taskType != models.TaskTypePickup && taskType != models.TaskTypeDrop {
				return NewError(KindValidationFailed, "Task type must be pickup or drop")
			}

			var partner models.DeliveryPartner
			if err := tx.Where("user_id = ?", *partnerID).First(&partner).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewError(KindNotFound, "Delivery partner not found")
				}
				return err
			}

			previous := order.PickupPartnerID
			partnerColumn := "pickup_partner_id"
			if taskType == models.TaskTypeDrop {
				previous = order.DropPartnerID
				partnerColumn = "drop_partner_id"
			}

			// Retire the replaced partner's open task for this leg.
			if previous != nil && *previous != *partnerID {
				result := tx.Model(&models.DeliveryTask{}).
					Where("order_id = ? AND partner_id = ? AND task_type = ? AND status NOT IN ?",
						order.ID, *previous, taskType,
						[]string{models.TaskStatusDelivered, models.TaskStatusCancelled}).
					Update("status", models.TaskStatusCancelled)
				if result.Error != nil {
					return result.Error
				}
			}

			if err := tx.Model(order).Update(partnerColumn, *partnerID).Error; err != nil {
				return err
			}
			if taskType == models.TaskTypeDrop {
				order.DropPartnerID = partnerID
			} else {
				order.PickupPartnerID = partnerID
			}

			task := models.DeliveryTask{
				OrderID:      order.ID,
				PartnerID:    *partnerID,
				AssignedByID: admin.ID,
				TaskType:     taskType,
				Status:       models.TaskStatusAssigned,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}

			if err := models.AppendOrderHistory(tx, order.ID, order.Status, admin.ID, ""); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AddCompletionPhoto attaches a finished-garment photo to an order the
// tailor owns. Photos can only be added once production has started and
// before the order reaches a terminal state.
func AddCompletionPhoto(db *gorm.DB, orderID uint, tailor *models.User, imageKey string) (*models.StitchingOrder, error) {
	if imageKey == "" {
		return nil, NewError(KindValidationFailed, "Photo key is required")
	}

	var order *models.StitchingOrder

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := requireOwningTailor(order, tailor); err != nil {
			return err
		}
		if models.IsTerminalOrderStatus(order.Status) {
			return NewError(KindInvalidTransition, "Cannot add photos to a closed order")
		}

		order.CompletionPhotos = append(order.CompletionPhotos, imageKey)
		return tx.Model(order).Update("completion_photos", order.CompletionPhotos).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AddDesignImage attaches a customer reference image to an order. Design
// references can only change before fabric is cut.
func AddDesignImage(db *gorm.DB, orderID uint, customer *models.User, imageKey string) (*models.StitchingOrder, error) {
	if imageKey == "" {
		return nil, NewError(KindValidationFailed, "Image key is required")
	}

	var order *models.StitchingOrder

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customer.ID {
			return NewError(KindForbidden, "You do not have permission to access this order")
		}
		switch order.Status {
		case models.OrderStatusPending, models.OrderStatusAssigned,
			models.OrderStatusAccepted, models.OrderStatusAlterationRequested:
		default:
			return NewError(KindInvalidTransition, "Design images cannot be changed after production starts")
		}

		order.DesignImages = append(order.DesignImages, imageKey)
		return tx.Model(order).Update("design_images", order.DesignImages).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// requireOwningTailor checks that the caller is the tailor assigned to the
// order.
func requireOwningTailor(order *models.StitchingOrder, tailor *models.User) error {
	if tailor.Role != models.RoleTailor {
		return NewError(KindForbidden, "Only tailors can perform this action")
	}
	if order.TailorID == nil || *order.TailorID != tailor.ID {
		return NewError(KindForbidden, "Order is not assigned to you")
	}
	return nil
}
