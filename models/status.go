package models

import "strings"

// Canonical stitching order production statuses. The platform historically
// accumulated a second, upper-case vocabulary (TAILOR_ASSIGNED,
// READY_FOR_DISPATCH, ...) alongside these; every ingestion path must call
// NormalizeOrderStatus so only the canonical names are ever stored.
const (
	OrderStatusPending             = "pending"
	OrderStatusAssigned            = "assigned"
	OrderStatusAccepted            = "accepted"
	OrderStatusCutting             = "cutting"
	OrderStatusStitching           = "stitching"
	OrderStatusFinishing           = "finishing"
	OrderStatusReady               = "ready"
	OrderStatusReadyForDelivery    = "ready_for_delivery"
	OrderStatusPickedUp            = "picked_up"
	OrderStatusDelivered           = "delivered"
	OrderStatusRejected            = "rejected"
	OrderStatusCancelled           = "cancelled"
	OrderStatusAlterationRequested = "alteration_requested"
	OrderStatusRefunded            = "refunded"
)

// Payment status projected onto orders, independent of the production stage.
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Delivery task statuses.
const (
	TaskStatusAssigned  = "assigned"
	TaskStatusOnTheWay  = "on_the_way"
	TaskStatusReached   = "reached"
	TaskStatusPickedUp  = "picked_up"
	TaskStatusDelivered = "delivered"
	TaskStatusCancelled = "cancelled"
)

// Delivery task types.
const (
	TaskTypePickup = "pickup"
	TaskTypeDrop   = "drop"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleTailor   = "tailor"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

// legacyOrderStatus maps the retired upper-case status vocabulary onto the
// canonical one. Unknown values pass through unchanged so callers can reject
// them against the transition tables.
var legacyOrderStatus = map[string]string{
	"PLACED":                  OrderStatusPending,
	"PAYMENT_PENDING":         OrderStatusPending,
	"TAILOR_ASSIGNED":         OrderStatusAssigned,
	"PICKUP_PARTNER_ASSIGNED": OrderStatusReadyForDelivery,
	"DROP_PARTNER_ASSIGNED":   OrderStatusReadyForDelivery,
	"IN_STITCHING":            OrderStatusStitching,
	"QC_PENDING":              OrderStatusReady,
	"READY_FOR_DISPATCH":      OrderStatusReadyForDelivery,
	"PICKED_UP":               OrderStatusPickedUp,
	"OUT_FOR_DELIVERY":        OrderStatusPickedUp,
	"DELIVERED":               OrderStatusDelivered,
	"REJECTED":                OrderStatusRejected,
	"CANCELLED":               OrderStatusCancelled,
	"ALTERATION_REQUESTED":    OrderStatusAlterationRequested,
	"ALTERATION_IN_PROGRESS":  OrderStatusAlterationRequested,
	"REFUNDED":                OrderStatusRefunded,
	"in_progress":             OrderStatusStitching,
	"completed":               OrderStatusDelivered,
}

// NormalizeOrderStatus translates legacy status synonyms into the canonical
// vocabulary. Canonical values are returned unchanged.
func NormalizeOrderStatus(status string) string {
	s := strings.TrimSpace(status)
	if mapped, ok := legacyOrderStatus[s]; ok {
		return mapped
	}
	return s
}

// orderStatusPredecessors lists, for each order status, the statuses it may
// legally be entered from. Statuses absent from the map can only be set at
// creation (pending) or are unreachable by transition.
var orderStatusPredecessors = map[string][]string{
	OrderStatusAssigned:         {OrderStatusPending},
	OrderStatusAccepted:         {OrderStatusAssigned},
	OrderStatusRejected:         {OrderStatusAssigned},
	OrderStatusCutting:          {OrderStatusAccepted},
	OrderStatusStitching:        {OrderStatusCutting},
	OrderStatusFinishing:        {OrderStatusStitching},
	OrderStatusReady:            {OrderStatusFinishing},
	OrderStatusReadyForDelivery: {OrderStatusReady, OrderStatusFinishing},
	OrderStatusPickedUp:         {OrderStatusReadyForDelivery},
	OrderStatusDelivered:        {OrderStatusPickedUp, OrderStatusReadyForDelivery},
}

// orderTerminalStatuses are statuses no actor-initiated transition may leave.
var orderTerminalStatuses = map[string]bool{
	OrderStatusDelivered: true,
	OrderStatusCancelled: true,
	OrderStatusRejected:  true,
}

// productionStages is the tailor-owned forward chain, in order.
var productionStages = []string{
	OrderStatusCutting,
	OrderStatusStitching,
	OrderStatusFinishing,
	OrderStatusReady,
}

// IsTerminalOrderStatus reports whether no further transitions are allowed
// out of the given order status.
func IsTerminalOrderStatus(status string) bool {
	return orderTerminalStatuses[NormalizeOrderStatus(status)]
}

// IsProductionStage reports whether the status is one of the tailor-advanced
// production stages (cutting through ready).
func IsProductionStage(status string) bool {
	normalized := NormalizeOrderStatus(status)
	for _, stage := range productionStages {
		if stage == normalized {
			return true
		}
	}
	return false
}

// CanTransitionOrder reports whether an order may move from -> to under the
// order state machine. Cancellation and alteration requests are allowed from
// any non-terminal state; everything else follows the predecessor table.
func CanTransitionOrder(from, to string) bool {
	from = NormalizeOrderStatus(from)
	to = NormalizeOrderStatus(to)

	if to == OrderStatusCancelled || to == OrderStatusAlterationRequested {
		return !orderTerminalStatuses[from]
	}

	for _, allowed := range orderStatusPredecessors[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// OrderStatusPredecessors returns the allowed predecessor set for a status.
// The returned slice must not be mutated.
func OrderStatusPredecessors(to string) []string {
	return orderStatusPredecessors[NormalizeOrderStatus(to)]
}

// taskStatusFlow is the strict single-step forward chain for delivery tasks.
var taskStatusFlow = map[string]string{
	TaskStatusAssigned: TaskStatusOnTheWay,
	TaskStatusOnTheWay: TaskStatusReached,
	TaskStatusReached:  TaskStatusPickedUp,
	TaskStatusPickedUp: TaskStatusDelivered,
}

var taskTerminalStatuses = map[string]bool{
	TaskStatusDelivered: true,
	TaskStatusCancelled: true,
}

// CanTransitionTask reports whether a delivery task may move from -> to.
// Only single forward steps are allowed, plus cancellation from any
// non-terminal state.
func CanTransitionTask(from, to string) bool {
	if to == TaskStatusCancelled {
		return !taskTerminalStatuses[from]
	}
	return taskStatusFlow[from] == to
}

// IsTerminalTaskStatus reports whether a delivery task status is final.
func IsTerminalTaskStatus(status string) bool {
	return taskTerminalStatuses[status]
}
