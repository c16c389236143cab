package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceType is the kind of order a ledger transaction originates from.
//
// swagger:enum SourceType
type SourceType string

const (
	SourcePurchaseOrder SourceType = "purchase_order"
	SourceChangeOrder   SourceType = "change_order"
)

// SourceTypes lists all valid transaction source types.
var SourceTypes = []SourceType{SourcePurchaseOrder, SourceChangeOrder}

// Valid reports whether the source type is one of the defined types.
func (s SourceType) Valid() bool {
	return slices.Contains(SourceTypes, s)
}

// Impact is the direction of a budget change.
//
// swagger:enum Impact
type Impact string

const (
	ImpactIncrease Impact = "+"
	ImpactDecrease Impact = "-"
)

var (
	ErrTransactionExists    = errors.New("a ledger transaction already exists for this order")
	ErrTransactionImmutable = errors.New("ledger transactions cannot be changed or deleted")
)

// Transaction is one immutable ledger row. It records the exact budget
// delta caused by approving a single purchase or change order, together
// with the budget figure before and after the change.
type Transaction struct {
	DefaultModel
	Number       string          `json:"number" gorm:"uniqueIndex" example:"TXN-2025-0001"`
	ProjectID    uuid.UUID       `json:"projectId" example:"e51b0b75-e4d2-4bd6-8932-f5a43ed6a04c"`
	TaskID       uuid.UUID       `json:"taskId" example:"c672cb11-8ed8-4c46-9ee8-57a3e8b6f4d1"`
	Task         Task            `json:"-"`
	SourceType   SourceType      `json:"sourceType" gorm:"uniqueIndex:transaction_source" example:"purchase_order"`
	SourceID     uuid.UUID       `json:"sourceId" gorm:"uniqueIndex:transaction_source" example:"a6e26d7e-3e8a-43f6-8cba-e82695b94b9c"`
	SourceNumber string          `json:"sourceNumber" example:"PO-2025-001"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"1500.50"` // Absolute value of the budget change
	Impact       Impact          `json:"impact" example:"-"`
	Description  string          `json:"description" example:"Purchase Order: Rebar delivery for foundation"`
	BudgetBefore decimal.Decimal `json:"budgetBefore" gorm:"type:DECIMAL(20,8)" example:"10000.00"`
	BudgetAfter  decimal.Decimal `json:"budgetAfter" gorm:"type:DECIMAL(20,8)" example:"8499.50"`
	ApprovedByID uuid.UUID       `json:"approvedById" example:"d0b5c8cb-1d66-4dd4-bb25-2b92e0bde8f7"`
	DecidedAt    time.Time       `json:"decidedAt" example:"2025-03-11T14:12:02.324831Z"`
}

// BeforeUpdate keeps the ledger append-only.
func (t *Transaction) BeforeUpdate(_ *gorm.DB) error {
	return ErrTransactionImmutable
}

// BeforeDelete keeps the ledger append-only.
func (t *Transaction) BeforeDelete(_ *gorm.DB) error {
	return ErrTransactionImmutable
}

// AfterFind updates the timestamps to use UTC as timezone, not +0000.
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	err := t.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	t.DecidedAt = t.DecidedAt.In(time.UTC)
	return nil
}

// SignedAmount is the budget delta the transaction applied, with its sign.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Impact == ImpactDecrease {
		return t.Amount.Neg()
	}

	return t.Amount
}

// recordApproval writes the ledger row for an approved order and applies
// the budget delta to the owning task, all within the caller's transaction.
//
// A zero signed amount is a valid no-op: no row is written and the budget
// is untouched. A duplicate (sourceType, sourceID) pair fails on the unique
// index, which is what makes re-approval impossible.
func recordApproval(tx *gorm.DB, sourceType SourceType, sourceID uuid.UUID, sourceNumber string, taskID uuid.UUID, signed decimal.Decimal, description string, approverID uuid.UUID, decidedAt time.Time) (*Transaction, error) {
	if signed.IsZero() {
		return nil, nil
	}

	// Row-level lock on postgres. On sqlite the single write connection
	// already serializes the read-modify-write.
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var task Task
	err := q.First(&task, "id = ?", taskID).Error
	if err != nil {
		return nil, err
	}

	budgetBefore := task.Budget
	budgetAfter := budgetBefore.Add(signed)

	impact := ImpactDecrease
	if signed.IsPositive() {
		impact = ImpactIncrease
	}

	number, err := AllocateNumber(tx, SequenceTransaction, decidedAt.Year())
	if err != nil {
		return nil, err
	}

	transaction := Transaction{
		Number:       number,
		ProjectID:    task.ProjectID,
		TaskID:       task.ID,
		SourceType:   sourceType,
		SourceID:     sourceID,
		SourceNumber: sourceNumber,
		Amount:       signed.Abs(),
		Impact:       impact,
		Description:  description,
		BudgetBefore: budgetBefore,
		BudgetAfter:  budgetAfter,
		ApprovedByID: approverID,
		DecidedAt:    decidedAt,
	}

	err = tx.Create(&transaction).Error
	if err != nil {
		return nil, err
	}

	err = tx.Model(&Task{}).Where("id = ?", task.ID).Update("budget", budgetAfter).Error
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

// maxApprovalRetries bounds the internal retries for transient write
// conflicts before the error is surfaced to the caller.
const maxApprovalRetries = 3

// inRetryingTransaction runs fn in a database transaction and retries it
// when it fails with a retryable conflict. Everything fn did is rolled
// back before the retry, so a partial ledger write can never survive.
func inRetryingTransaction(fn func(tx *gorm.DB) error) error {
	var err error

	for range maxApprovalRetries {
		err = DB.Transaction(fn)
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
	}

	return err
}
