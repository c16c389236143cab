package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceKind selects the document number namespace.
//
// swagger:enum SequenceKind
type SequenceKind string

const (
	SequencePurchaseOrder SequenceKind = "PO"
	SequenceChangeOrder   SequenceKind = "CO"
	SequenceTransaction   SequenceKind = "TXN"
)

// width is the zero-padding of the sequence part of the number.
func (k SequenceKind) width() int {
	if k == SequenceTransaction {
		return 4
	}

	return 3
}

// NumberSequence is the persisted counter behind document numbers. One row
// exists per document kind and fiscal year.
type NumberSequence struct {
	Prefix  string `gorm:"primaryKey"`
	Year    int    `gorm:"primaryKey"`
	Counter uint64
}

// AllocateNumber returns the next document number for the kind and fiscal
// year, e.g. "PO-2025-001" or "TXN-2025-0001".
//
// The counter row is incremented with an upsert so that concurrent
// allocations never read the same value: the row lock taken by the upsert
// serializes writers until the enclosing transaction commits. The number
// is only allocated if that transaction commits, so it must run inside the
// transaction that persists the numbered resource.
func AllocateNumber(tx *gorm.DB, kind SequenceKind, year int) (string, error) {
	seq := NumberSequence{Prefix: string(kind), Year: year, Counter: 1}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefix"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"counter": gorm.Expr("counter + 1")}),
	}).Create(&seq).Error
	if err != nil {
		return "", err
	}

	// Re-read inside the same transaction to get the incremented value,
	// the upsert does not report it back.
	err = tx.First(&seq, "prefix = ? AND year = ?", string(kind), year).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%0*d", seq.Prefix, seq.Year, kind.width(), seq.Counter), nil
}
