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

// ItemCategory classifies what a purchase order item pays for.
//
// swagger:enum ItemCategory
type ItemCategory string

const (
	CategoryMaterial  ItemCategory = "Material"
	CategoryLabor     ItemCategory = "Labor"
	CategoryEquipment ItemCategory = "Equipment"
	CategoryService   ItemCategory = "Service"
)

// ItemCategories lists all valid purchase order item categories.
var ItemCategories = []ItemCategory{CategoryMaterial, CategoryLabor, CategoryEquipment, CategoryService}

// Valid reports whether the category is one of the defined categories.
func (c ItemCategory) Valid() bool {
	return slices.Contains(ItemCategories, c)
}

var (
	ErrItemPriceNotPositive = errors.New("item prices must be larger than zero")
	ErrItemCategoryInvalid  = errors.New("the specified item category does not exist")
	ErrVendorArchived       = errors.New("the vendor is archived and cannot receive new purchase orders")
)

// PurchaseOrder is a commitment to pay a vendor. Approving it books the
// total of its items against the owning task's budget, always as a cost.
type PurchaseOrder struct {
	DefaultModel
	Number          string              `json:"number" gorm:"uniqueIndex" example:"PO-2025-001"`
	TaskID          uuid.UUID           `json:"taskId" example:"c672cb11-8ed8-4c46-9ee8-57a3e8b6f4d1"`
	Task            Task                `json:"-"`
	VendorID        uuid.UUID           `json:"vendorId" example:"5b8cfc27-9a26-4c05-9e49-283aa40bf70b"`
	Vendor          Vendor              `json:"-"`
	Description     string              `json:"description" example:"Rebar delivery for foundation"`
	Status          OrderStatus         `json:"status" example:"Draft"`
	CreatedByID     uuid.UUID           `json:"createdById" example:"06cb2c31-ff07-4d97-977b-0b0eaf725cd9"`
	ApprovedByID    *uuid.UUID          `json:"approvedById" example:"d0b5c8cb-1d66-4dd4-bb25-2b92e0bde8f7"`
	DecidedAt       *time.Time          `json:"decidedAt" example:"2025-03-11T14:12:02.324831Z"`
	RejectionReason string              `json:"rejectionReason" example:""`
	Items           []PurchaseOrderItem `json:"items"`
}

func (po *PurchaseOrder) BeforeSave(_ *gorm.DB) error {
	po.Description = strings.TrimSpace(po.Description)
	po.RejectionReason = strings.TrimSpace(po.RejectionReason)
	return nil
}

// AfterFind updates the timestamps to use UTC as timezone, not +0000.
func (po *PurchaseOrder) AfterFind(tx *gorm.DB) error {
	err := po.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if po.DecidedAt != nil {
		decidedAt := po.DecidedAt.In(time.UTC)
		po.DecidedAt = &decidedAt
	}

	return nil
}

// PurchaseOrderItem is one priced line of a purchase order.
type PurchaseOrderItem struct {
	DefaultModel
	PurchaseOrderID uuid.UUID       `json:"purchaseOrderId" example:"a6e26d7e-3e8a-43f6-8cba-e82695b94b9c"`
	Name            string          `json:"name" example:"Rebar B500B 12mm"`
	Category        ItemCategory    `json:"category" example:"Material"`
	Price           decimal.Decimal `json:"price" gorm:"type:DECIMAL(20,8)" example:"1200.00"`
}

func (i *PurchaseOrderItem) BeforeSave(_ *gorm.DB) error {
	i.Name = strings.TrimSpace(i.Name)

	if !i.Price.IsPositive() {
		return ErrItemPriceNotPositive
	}

	if !i.Category.Valid() {
		return ErrItemCategoryInvalid
	}

	return nil
}

// CreatePurchaseOrder persists a new order in Draft and stamps its number.
// Number allocation and the insert commit together, so no number is burned
// for an order that was never stored.
func CreatePurchaseOrder(order *PurchaseOrder) error {
	var vendor Vendor
	err := DB.First(&vendor, "id = ?", order.VendorID).Error
	if err != nil {
		return err
	}

	if vendor.Archived {
		return ErrVendorArchived
	}

	order.Status = StatusDraft
	order.ApprovedByID = nil
	order.DecidedAt = nil

	return inRetryingTransaction(func(tx *gorm.DB) error {
		number, err := AllocateNumber(tx, SequencePurchaseOrder, time.Now().In(time.UTC).Year())
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
func (po *PurchaseOrder) AddItem(item *PurchaseOrderItem) error {
	item.PurchaseOrderID = po.ID

	return DB.Transaction(func(tx *gorm.DB) error {
		err := purchaseOrderItemsEditable(tx, po.ID)
		if err != nil {
			return err
		}

		return tx.Create(item).Error
	})
}

// Update applies a partial update to the item. fields holds the names of
// the fields the request set, values carries their new values.
func (i *PurchaseOrderItem) Update(fields []any, values PurchaseOrderItem) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		err := purchaseOrderItemsEditable(tx, i.PurchaseOrderID)
		if err != nil {
			return err
		}

		return tx.Model(i).Select("", fields...).Updates(values).Error
	})
}

// Delete removes the item from its order.
func (i *PurchaseOrderItem) Delete() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		err := purchaseOrderItemsEditable(tx, i.PurchaseOrderID)
		if err != nil {
			return err
		}

		return tx.Delete(i).Error
	})
}

// purchaseOrderItemsEditable checks against the stored order, not the
// caller's copy, that the order still accepts item changes.
func purchaseOrderItemsEditable(tx *gorm.DB, orderID uuid.UUID) error {
	var current PurchaseOrder
	err := tx.First(&current, "id = ?", orderID).Error
	if err != nil {
		return err
	}

	if !current.Status.Editable() {
		return fmt.Errorf("%w: items cannot be changed on an order in status %s", ErrOrderState, current.Status)
	}

	return nil
}

// TotalAmount is the sum of all item prices, always a positive cost.
func (po PurchaseOrder) TotalAmount(tx *gorm.DB) (decimal.Decimal, error) {
	var items []PurchaseOrderItem
	err := tx.Where(&PurchaseOrderItem{PurchaseOrderID: po.ID}).Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}

	return total, nil
}

// Submit moves the order from Draft to PendingApproval.
func (po *PurchaseOrder) Submit() error {
	return po.transition(StatusPendingApproval, func(*gorm.DB) error { return nil })
}

// Approve books the order against the task budget and marks it approved.
// The ledger row, the budget update and the status change commit as one
// unit; if any of them fails, the order stays in PendingApproval.
func (po *PurchaseOrder) Approve(approver User) (*Transaction, error) {
	if !approver.Role.CanApproveOrders() {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, ErrApproverRole)
	}

	decidedAt := time.Now().In(time.UTC)
	var transaction *Transaction

	err := inRetryingTransaction(func(tx *gorm.DB) error {
		var current PurchaseOrder
		err := tx.First(&current, "id = ?", po.ID).Error
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(StatusApproved) {
			return fmt.Errorf("%w: cannot approve an order in status %s", ErrOrderState, current.Status)
		}

		total, err := po.TotalAmount(tx)
		if err != nil {
			return err
		}

		transaction, err = recordApproval(tx, SourcePurchaseOrder, po.ID, po.Number, po.TaskID, total.Neg(), fmt.Sprintf("Purchase Order: %s", po.Description), approver.ID, decidedAt)
		if err != nil {
			return err
		}

		return tx.Model(&PurchaseOrder{}).Where("id = ?", po.ID).Updates(map[string]interface{}{
			"status":         StatusApproved,
			"approved_by_id": approver.ID,
			"decided_at":     decidedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	po.Status = StatusApproved
	po.ApprovedByID = &approver.ID
	po.DecidedAt = &decidedAt

	return transaction, nil
}

// Reject marks the order as rejected. No ledger row is written and the
// task budget is untouched.
func (po *PurchaseOrder) Reject(approver User, reason string) error {
	if !approver.Role.CanApproveOrders() {
		return fmt.Errorf("%w: %s", ErrUnauthorized, ErrApproverRole)
	}

	decidedAt := time.Now().In(time.UTC)

	err := po.transition(StatusRejected, func(tx *gorm.DB) error {
		return tx.Model(&PurchaseOrder{}).Where("id = ?", po.ID).Updates(map[string]interface{}{
			"approved_by_id":   approver.ID,
			"decided_at":       decidedAt,
			"rejection_reason": reason,
		}).Error
	})
	if err != nil {
		return err
	}

	po.ApprovedByID = &approver.ID
	po.DecidedAt = &decidedAt
	po.RejectionReason = reason

	return nil
}

// Fulfill moves an approved order through its fulfillment states. These
// states carry no budget effect.
func (po *PurchaseOrder) Fulfill(next OrderStatus) error {
	if next != StatusDelivered && next != StatusPaid {
		return fmt.Errorf("%w: %s is not a fulfillment status for purchase orders", ErrOrderState, next)
	}

	return po.transition(next, func(*gorm.DB) error { return nil })
}

// Delete removes the order. Only drafts can be deleted; everything past
// Draft is part of the approval audit trail.
func (po *PurchaseOrder) Delete() error {
	if po.Status != StatusDraft {
		return fmt.Errorf("%w: only orders in Draft can be deleted", ErrOrderState)
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&PurchaseOrderItem{PurchaseOrderID: po.ID}).Delete(&PurchaseOrderItem{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(po).Error
	})
}

// transition re-reads the order inside a transaction, verifies the status
// change against the state machine and applies it together with extra.
func (po *PurchaseOrder) transition(next OrderStatus, extra func(tx *gorm.DB) error) error {
	err := DB.Transaction(func(tx *gorm.DB) error {
		var current PurchaseOrder
		err := tx.First(&current, "id = ?", po.ID).Error
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: cannot move an order from %s to %s", ErrOrderState, current.Status, next)
		}

		err = tx.Model(&PurchaseOrder{}).Where("id = ?", po.ID).Update("status", next).Error
		if err != nil {
			return err
		}

		return extra(tx)
	})
	if err != nil {
		return err
	}

	po.Status = next
	return nil
}
