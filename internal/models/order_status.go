package models

import (
	"errors"

	"golang.org/x/exp/slices"
)

// OrderStatus is the lifecycle state of a purchase or change order.
//
// swagger:enum OrderStatus
type OrderStatus string

const (
	StatusDraft           OrderStatus = "Draft"
	StatusPendingApproval OrderStatus = "PendingApproval"
	StatusApproved        OrderStatus = "Approved"
	StatusRejected        OrderStatus = "Rejected"

	// Fulfillment states. They follow an approval and never touch the ledger.
	StatusDelivered   OrderStatus = "Delivered"
	StatusPaid        OrderStatus = "Paid"
	StatusImplemented OrderStatus = "Implemented"
)

// OrderStatuses lists all valid order statuses.
var OrderStatuses = []OrderStatus{
	StatusDraft,
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusDelivered,
	StatusPaid,
	StatusImplemented,
}

// orderTransitions is the forward-only transition table. A status that does
// not appear as a key is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusDelivered, StatusImplemented},
	StatusDelivered:       {StatusPaid},
}

var ErrOrderState = errors.New("the order status does not allow this operation")

// Valid reports whether the status is one of the defined statuses.
func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// CanTransitionTo reports whether the state machine allows moving from s
// to next. Statuses only ever move forward, so an approved or rejected
// order can never return to the approval flow.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// Editable reports whether line items may be added, changed or removed
// while the order is in this status.
func (s OrderStatus) Editable() bool {
	return s == StatusDraft || s == StatusPendingApproval
}
