package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// ChangeType classifies what a change order item does to the scope.
//
// swagger:enum ChangeType
type ChangeType string

const (
	ChangeAddition     ChangeType = "Addition"
	ChangeDeletion     ChangeType = "Deletion"
	ChangeModification ChangeType = "Modification"
)

// ChangeTypes lists all valid change order item types.
var ChangeTypes = []ChangeType{ChangeAddition, ChangeDeletion, ChangeModification}

// Valid reports whether the change type is one of the defined types.
func (c ChangeType) Valid() bool {
	return slices.Contains(ChangeTypes, c)
}

var (
	ErrItemAmountNegative = errors.New("item amounts must not be negative")
	ErrItemImpactInvalid  = errors.New("the item impact must be + or -")
	ErrChangeTypeInvalid  = errors.New("the specified change type does not exist")
)

// ChangeOrder is a scope change with a signed budget impact. Approving it
// applies the net impact of its items to the owning task's budget, which
// can increase, decrease or leave the budget unchanged.
type ChangeOrder struct {
	DefaultModel
	Number          string            `json:"number" gorm:"uniqueIndex" example:"CO-2025-001"`
	TaskID          uuid.UUID         `json:"taskId" example:"c672cb11-8ed8-4c46-9ee8-57a3e8b6f4d1"`
	Task            Task              `json:"-"`
	Title           string            `json:"title" example:"Additional drainage"`
	Description     string            `json:"description" example:"Client requested additional drainage on the north side"`
	Reason          string            `json:"reason" example:"Soil survey revision"`
	Status          OrderStatus       `json:"status" example:"Draft"`
	CreatedByID     uuid.UUID         `json:"createdById" example:"06cb2c31-ff07-4d97-977b-0b0eaf725cd9"`
	ApprovedByID    *uuid.UUID        `json:"approvedById" example:"d0b5c8cb-1d66-4dd4-bb25-2b92e0bde8f7"`
	DecidedAt       *time.Time        `json:"decidedAt" example:"2025-03-11T14:12:02.324831Z"`
	RejectionReason string            `json:"rejectionReason" example:""`
	Items           []ChangeOrderItem `json:"items"`
}

func (co *ChangeOrder) BeforeSave(_ *gorm.DB) error {
	co.Title = strings.TrimSpace(co.Title)
	co.Description = strings.TrimSpace(co.Description)
	co.Reason = strings.TrimSpace(co.Reason)
	co.RejectionReason = strings.TrimSpace(co.RejectionReason)
	return nil
}

// AfterFind updates the timestamps to use UTC as timezone, not +0000.
func (co *ChangeOrder) AfterFind(tx *gorm.DB) error {
	err := co.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if co.DecidedAt != nil {
		decidedAt := co.DecidedAt.In(time.UTC)
		co.DecidedAt = &decidedAt
	}

	return nil
}

// ChangeOrderItem is one signed line of a change order. The amount is an
// absolute magnitude; the impact sign determines the direction.
type ChangeOrderItem struct {
	DefaultModel
	ChangeOrderID uuid.UUID       `json:"changeOrderId" example:"7d5cf59b-bd23-45e8-8a35-f42f1e25b7a3"`
	Name          string          `json:"name" example:"Drainage piping"`
	ChangeType    ChangeType      `json:"changeType" example:"Addition"`
	Impact        Impact          `json:"impact" example:"+"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"2000.00"`
}

func (i *ChangeOrderItem) BeforeSave(_ *gorm.DB) error {
	i.Name = strings.TrimSpace(i.Name)

	if i.Amount.IsNegative() {
		return ErrItemAmountNegative
	}

	if i.Impact != ImpactIncrease && i.Impact != ImpactDecrease {
		return ErrItemImpactInvalid
	}

	if !i.ChangeType.Valid() {
		return ErrChangeTypeInvalid
	}

	return nil
}

// SignedAmount is the item's contribution to the net impact.
func (i ChangeOrderItem) SignedAmount() decimal.Decimal {
	if i.Impact == ImpactDecrease {
		return i.Amount.Neg()
	}

	return i.Amount
}

// CreateChangeOrder persists a new order in Draft and stamps its number.
func CreateChangeOrder(order *ChangeOrder) error {
	order.Status = StatusDraft
	order.ApprovedByID = nil
	order.DecidedAt = nil

	return inRetryingTransaction(func(tx *gorm.DB) error {
		number, err := AllocateNumber(tx, SequenceChangeOrder, time.Now().In(time.UTC).Year())
		if err != nil {
			return err
		}

		order.Number = number
		return tx.Create(order).Error
	})
}

// AddItem appends a line item. The stored order status is re-read in the
// same transaction as the write, so a stale copy of an already decided
// order cannot sneak in further items.
func (co *ChangeOrder) AddItem(item *ChangeOrderItem) error {
	item.ChangeOrderID = co.ID

	return DB.Transaction(func(tx *gorm.DB) error {
		err := changeOrderItemsEditable(tx, co.ID)
		if err != nil {
			return err
		}

		return tx.Create(item).Error
	})
}

// Update applies a partial update to the item. fields holds the names of
// the fields the request set, values carries their new values.
func (i *ChangeOrderItem) Update(fields []any, values ChangeOrderItem) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		err := changeOrderItemsEditable(tx, i.ChangeOrderID)
		if err != nil {
			return err
		}

		return tx.Model(i).Select("", fields...).Updates(values).Error
	})
}

// Delete removes the item from its order.
func (i *ChangeOrderItem) Delete() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		err := changeOrderItemsEditable(tx, i.ChangeOrderID)
		if err != nil {
			return err
		}

		return tx.Delete(i).Error
	})
}

// changeOrderItemsEditable checks against the stored order, not the
// caller's copy, that the order still accepts item changes.
func changeOrderItemsEditable(tx *gorm.DB, orderID uuid.UUID) error {
	var current ChangeOrder
	err := tx.First(&current, "id = ?", orderID).Error
	if err != nil {
		return err
	}

	if !current.Status.Editable() {
		return fmt.Errorf("%w: items cannot be changed on an order in status %s", ErrOrderState, current.Status)
	}

	return nil
}

// NetImpact is the signed sum of all items. Positive values increase the
// task budget, negative values decrease it.
func (co ChangeOrder) NetImpact(tx *gorm.DB) (decimal.Decimal, error) {
	var items []ChangeOrderItem
	err := tx.Where(&ChangeOrderItem{ChangeOrderID: co.ID}).Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}

	net := decimal.Zero
	for _, item := range items {
		net = net.Add(item.SignedAmount())
	}

	return net, nil
}

// Submit moves the order from Draft to PendingApproval.
func (co *ChangeOrder) Submit() error {
	return co.transition(StatusPendingApproval, func(*gorm.DB) error { return nil })
}

// Approve applies the net impact to the task budget and marks the order
// approved. A zero net impact still approves the order, but writes no
// ledger row and leaves the budget untouched.
func (co *ChangeOrder) Approve(approver User) (*Transaction, error) {
	if !approver.Role.CanApproveOrders() {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, ErrApproverRole)
	}

	decidedAt := time.Now().In(time.UTC)
	var transaction *Transaction

	err := inRetryingTransaction(func(tx *gorm.DB) error {
		var current ChangeOrder
		err := tx.First(&current, "id = ?", co.ID).Error
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(StatusApproved) {
			return fmt.Errorf("%w: cannot approve an order in status %s", ErrOrderState, current.Status)
		}

		net, err := co.NetImpact(tx)
		if err != nil {
			return err
		}

		transaction, err = recordApproval(tx, SourceChangeOrder, co.ID, co.Number, co.TaskID, net, fmt.Sprintf("Change Order: %s", co.Title), approver.ID, decidedAt)
		if err != nil {
			return err
		}

		return tx.Model(&ChangeOrder{}).Where("id = ?", co.ID).Updates(map[string]interface{}{
			"status":         StatusApproved,
			"approved_by_id": approver.ID,
			"decided_at":     decidedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	co.Status = StatusApproved
	co.ApprovedByID = &approver.ID
	co.DecidedAt = &decidedAt

	return transaction, nil
}

// Reject marks the order as rejected with no budget effect.
func (co *ChangeOrder) Reject(approver User, reason string) error {
	if !approver.Role.CanApproveOrders() {
		return fmt.Errorf("%w: %s", ErrUnauthorized, ErrApproverRole)
	}

	decidedAt := time.Now().In(time.UTC)

	err := co.transition(StatusRejected, func(tx *gorm.DB) error {
		return tx.Model(&ChangeOrder{}).Where("id = ?", co.ID).Updates(map[string]interface{}{
			"approved_by_id":   approver.ID,
			"decided_at":       decidedAt,
			"rejection_reason": reason,
		}).Error
	})
	if err != nil {
		return err
	}

	co.ApprovedByID = &approver.ID
	co.DecidedAt = &decidedAt
	co.RejectionReason = reason

	return nil
}

// Fulfill marks an approved change order as implemented. No budget effect.
func (co *ChangeOrder) Fulfill(next OrderStatus) error {
	if next != StatusImplemented {
		return fmt.Errorf("%w: %s is not a fulfillment status for change orders", ErrOrderState, next)
	}

	return co.transition(next, func(*gorm.DB) error { return nil })
}

// Delete removes the order. Only drafts can be deleted.
func (co *ChangeOrder) Delete() error {
	if co.Status != StatusDraft {
		return fmt.Errorf("%w: only orders in Draft can be deleted", ErrOrderState)
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&ChangeOrderItem{ChangeOrderID: co.ID}).Delete(&ChangeOrderItem{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(co).Error
	})
}

// transition re-reads the order inside a transaction, verifies the status
// change against the state machine and applies it together with extra.
func (co *ChangeOrder) transition(next OrderStatus, extra func(tx *gorm.DB) error) error {
	err := DB.Transaction(func(tx *gorm.DB) error {
		var current ChangeOrder
		err := tx.First(&current, "id = ?", co.ID).Error
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: cannot move an order from %s to %s", ErrOrderState, current.Status, next)
		}

		err = tx.Model(&ChangeOrder{}).Where("id = ?", co.ID).Update("status", next).Error
		if err != nil {
			return err
		}

		return extra(tx)
	})
	if err != nil {
		return err
	}

	co.Status = next
	return nil
}
