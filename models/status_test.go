package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrderStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical passes through", "pending", "pending"},
		{"legacy placed", "PLACED", "pending"},
		{"legacy tailor assigned", "TAILOR_ASSIGNED", "assigned"},
		{"legacy ready for dispatch", "READY_FOR_DISPATCH", "ready_for_delivery"},
		{"legacy out for delivery", "OUT_FOR_DELIVERY", "picked_up"},
		{"legacy in stitching", "IN_STITCHING", "stitching"},
		{"legacy qc pending", "QC_PENDING", "ready"},
		{"legacy delivered", "DELIVERED", "delivered"},
		{"legacy in_progress", "in_progress", "stitching"},
		{"legacy completed", "completed", "delivered"},
		{"whitespace trimmed", " PLACED", "pending"},
		{"unknown passes through", "something_else", "something_else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOrderStatus(tt.input))
		})
	}
}

func TestCanTransitionOrder(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to assigned", OrderStatusPending, OrderStatusAssigned, true},
		{"assigned to accepted", OrderStatusAssigned, OrderStatusAccepted, true},
		{"assigned to rejected", OrderStatusAssigned, OrderStatusRejected, true},
		{"accepted to cutting", OrderStatusAccepted, OrderStatusCutting, true},
		{"cutting to stitching", OrderStatusCutting, OrderStatusStitching, true},
		{"stitching to finishing", OrderStatusStitching, OrderStatusFinishing, true},
		{"finishing to ready", OrderStatusFinishing, OrderStatusReady, true},
		{"ready to ready_for_delivery", OrderStatusReady, OrderStatusReadyForDelivery, true},
		{"finishing straight to ready_for_delivery", OrderStatusFinishing, OrderStatusReadyForDelivery, true},
		{"ready_for_delivery to picked_up", OrderStatusReadyForDelivery, OrderStatusPickedUp, true},
		{"picked_up to delivered", OrderStatusPickedUp, OrderStatusDelivered, true},
		{"ready_for_delivery straight to delivered", OrderStatusReadyForDelivery, OrderStatusDelivered, true},

		{"no stage skipping", OrderStatusPending, OrderStatusAccepted, false},
		{"no cutting from assigned", OrderStatusAssigned, OrderStatusCutting, false},
		{"no backward move", OrderStatusStitching, OrderStatusCutting, false},
		{"no delivery before ready", OrderStatusStitching, OrderStatusPickedUp, false},
		{"no reject after accept", OrderStatusAccepted, OrderStatusRejected, false},

		{"cancel from pending", OrderStatusPending, OrderStatusCancelled, true},
		{"cancel mid production", OrderStatusStitching, OrderStatusCancelled, true},
		{"cancel from ready_for_delivery", OrderStatusReadyForDelivery, OrderStatusCancelled, true},
		{"no cancel after delivered", OrderStatusDelivered, OrderStatusCancelled, false},
		{"no cancel after cancelled", OrderStatusCancelled, OrderStatusCancelled, false},
		{"no cancel after rejected", OrderStatusRejected, OrderStatusCancelled, false},

		{"alteration mid production", OrderStatusFinishing, OrderStatusAlterationRequested, true},
		{"no alteration after delivered", OrderStatusDelivered, OrderStatusAlterationRequested, false},

		{"nothing leaves delivered", OrderStatusDelivered, OrderStatusAssigned, false},
		{"nothing leaves cancelled", OrderStatusCancelled, OrderStatusAssigned, false},

		{"legacy from value normalized", "TAILOR_ASSIGNED", OrderStatusAccepted, true},
		{"legacy to value normalized", OrderStatusPending, "TAILOR_ASSIGNED", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionOrder(tt.from, tt.to))
		})
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.True(t, IsTerminalOrderStatus(OrderStatusRejected))
	assert.True(t, IsTerminalOrderStatus("DELIVERED"), "legacy synonym should normalize")

	assert.False(t, IsTerminalOrderStatus(OrderStatusPending))
	assert.False(t, IsTerminalOrderStatus(OrderStatusReadyForDelivery))
	assert.False(t, IsTerminalOrderStatus(OrderStatusAlterationRequested))
}

func TestIsProductionStage(t *testing.T) {
	for _, stage := range []string{OrderStatusCutting, OrderStatusStitching, OrderStatusFinishing, OrderStatusReady} {
		assert.True(t, IsProductionStage(stage), stage)
	}
	assert.False(t, IsProductionStage(OrderStatusPending))
	assert.False(t, IsProductionStage(OrderStatusReadyForDelivery))
	assert.False(t, IsProductionStage(OrderStatusDelivered))
}

func TestCanTransitionTask(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"assigned to on_the_way", TaskStatusAssigned, TaskStatusOnTheWay, true},
		{"on_the_way to reached", TaskStatusOnTheWay, TaskStatusReached, true},
		{"reached to picked_up", TaskStatusReached, TaskStatusPickedUp, true},
		{"picked_up to delivered", TaskStatusPickedUp, TaskStatusDelivered, true},

		{"no step skipping", TaskStatusAssigned, TaskStatusReached, false},
		{"no jump to delivered", TaskStatusAssigned, TaskStatusDelivered, false},
		{"no backward move", TaskStatusReached, TaskStatusOnTheWay, false},
		{"no self loop", TaskStatusReached, TaskStatusReached, false},

		{"cancel from assigned", TaskStatusAssigned, TaskStatusCancelled, true},
		{"cancel from reached", TaskStatusReached, TaskStatusCancelled, true},
		{"no cancel after delivered", TaskStatusDelivered, TaskStatusCancelled, false},
		{"no cancel after cancelled", TaskStatusCancelled, TaskStatusCancelled, false},
		{"nothing leaves delivered", TaskStatusDelivered, TaskStatusAssigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTask(tt.from, tt.to))
		})
	}
}

func TestOrderStatusPredecessors(t *testing.T) {
	assert.ElementsMatch(t, []string{OrderStatusPending}, OrderStatusPredecessors(OrderStatusAssigned))
	assert.ElementsMatch(t,
		[]string{OrderStatusReady, OrderStatusFinishing},
		OrderStatusPredecessors(OrderStatusReadyForDelivery))
	assert.Empty(t, OrderStatusPredecessors(OrderStatusPending), "pending is only set at creation")
}
