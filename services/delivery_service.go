package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/models"
)

// lockTask loads a delivery task inside tx with a row lock.
func lockTask(tx *gorm.DB, taskID uint) (*models.DeliveryTask, error) {
	var task models.DeliveryTask
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(KindNotFound, "Task not found")
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// transitionTask writes the task's next status with the current status as
// predicate, so a concurrent writer cannot be silently overwritten.
func transitionTask(tx *gorm.DB, task *models.DeliveryTask, nextStatus string) error {
	result := tx.Model(&models.DeliveryTask{}).
		Where("id = ? AND status = ?", task.ID, task.Status).
		Update("status", nextStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewError(KindInvalidTransition,
			fmt.Sprintf("Task status changed concurrently, cannot move to %s", nextStatus))
	}
	task.Status = nextStatus
	return nil
}

// AdvanceDeliveryTask moves a task one step along its flow (assigned,
// on_the_way, reached, picked_up, delivered). Transitions are strictly
// single-step and only the owning partner may drive them.
//
// Two steps couple back into the order state machine, inside the same
// transaction:
//   - picked_up on a pickup task advances the order to picked_up;
//   - delivered flips a drop task's order to delivered and, on any task,
//     increments the partner's completed-delivery counter. Marking delivered
//     requires at least one proof image.
func AdvanceDeliveryTask(db *gorm.DB, taskID uint, partner *models.User, nextStatus string) (*models.DeliveryTask, error) {
	if partner.Role != models.RoleDelivery {
		return nil, NewError(KindForbidden, "Only delivery partners can update tasks")
	}

	var task *models.DeliveryTask
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.PartnerID != partner.ID {
			return NewError(KindForbidden, "Task is not assigned to you")
		}
		if !models.CanTransitionTask(task.Status, nextStatus) {
			return NewError(KindInvalidTransition,
				fmt.Sprintf("Invalid status transition from %s to %s", task.Status, nextStatus))
		}

		if nextStatus == models.TaskStatusDelivered && len(task.ProofImages) == 0 {
			return NewError(KindValidationFailed, "Upload proof image before marking delivered")
		}

		if err := transitionTask(tx, task, nextStatus); err != nil {
			return err
		}

		switch nextStatus {
		case models.TaskStatusPickedUp:
			if task.TaskType == models.TaskTypePickup {
				return propagatePickup(tx, task, partner)
			}
		case models.TaskStatusDelivered:
			return propagateDelivered(tx, task, partner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// propagatePickup advances the parent order to picked_up when the pickup leg
// completes.
func propagatePickup(tx *gorm.DB, task *models.DeliveryTask, partner *models.User) error {
	order, err := lockOrder(tx, task.OrderID)
	if err != nil {
		return err
	}
	if !models.CanTransitionOrder(order.Status, models.OrderStatusPickedUp) {
		return invalidTransition(order.Status, models.OrderStatusPickedUp)
	}
	if err := transitionOrder(tx, order, models.OrderStatusPickedUp, nil); err != nil {
		return err
	}
	return models.AppendOrderHistory(tx, order.ID, models.OrderStatusPickedUp, partner.ID, "")
}

// propagateDelivered completes the delivery leg: on a drop task the parent
// order becomes delivered with a proof-carrying history entry, and the
// partner's completed count is incremented. All writes share the caller's
// transaction; a task delivered without its order is a correctness violation.
func propagateDelivered(tx *gorm.DB, task *models.DeliveryTask, partner *models.User) error {
	if task.TaskType == models.TaskTypeDrop {
		order, err := lockOrder(tx, task.OrderID)
		if err != nil {
			return err
		}
		if !models.CanTransitionOrder(order.Status, models.OrderStatusDelivered) {
			return invalidTransition(order.Status, models.OrderStatusDelivered)
		}
		if err := transitionOrder(tx, order, models.OrderStatusDelivered, nil); err != nil {
			return err
		}

		proof := ""
		if len(task.ProofImages) > 0 {
			proof = task.ProofImages[len(task.ProofImages)-1]
		}
		if err := models.AppendOrderHistory(tx, order.ID, models.OrderStatusDelivered, partner.ID, proof); err != nil {
			return err
		}
	}

	// Completing any leg earns the partner the configured per-task amount.
	earning := config.GetConfig().DeliveryPerTaskEarning
	result := tx.Model(&models.DeliveryPartner{}).
		Where("user_id = ?", partner.ID).
		Updates(map[string]interface{}{
			"total_deliveries": gorm.Expr("total_deliveries + ?", 1),
			"pending_earnings": gorm.Expr("pending_earnings + ?", earning),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewError(KindNotFound, "Delivery profile not found")
	}
	return nil
}

// AddProofImages appends delivery proof image keys to a task. Only the owning
// partner may upload, and only while the task is still open.
func AddProofImages(db *gorm.DB, taskID uint, partner *models.User, images []string) (*models.DeliveryTask, error) {
	if partner.Role != models.RoleDelivery {
		return nil, NewError(KindForbidden, "Only delivery partners can upload proof")
	}
	if len(images) == 0 {
		return nil, NewError(KindValidationFailed, "No proof images provided")
	}

	var task *models.DeliveryTask
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.PartnerID != partner.ID {
			return NewError(KindForbidden, "Task is not assigned to you")
		}
		if models.IsTerminalTaskStatus(task.Status) {
			return NewError(KindInvalidTransition, "Task is already closed")
		}

		task.ProofImages = append(task.ProofImages, images...)
		return tx.Model(task).Update("proof_images", task.ProofImages).Error
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CancelDeliveryTask retires a task from any non-terminal state. Admin only;
// the parent order is left untouched.
func CancelDeliveryTask(db *gorm.DB, taskID uint, admin *models.User) (*models.DeliveryTask, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can cancel delivery tasks")
	}

	var task *models.DeliveryTask
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if !models.CanTransitionTask(task.Status, models.TaskStatusCancelled) {
			return NewError(KindInvalidTransition, "Task is already closed")
		}
		return transitionTask(tx, task, models.TaskStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}
