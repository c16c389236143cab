package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrVendorNameNotUnique = errors.New("the vendor name is already in use")

// Vendor is a supplier that purchase orders commit money to.
type Vendor struct {
	DefaultModel
	Name          string `json:"name" gorm:"uniqueIndex" example:"Hochtief Supplies GmbH"`
	ContactPerson string `json:"contactPerson" example:"M. Oduya"`
	Email         string `json:"email" example:"orders@hochtief-supplies.example"`
	Phone         string `json:"phone" example:"+49 201 824-0"`
	Archived      bool   `json:"archived" example:"false" default:"false"` // Archived vendors cannot receive new purchase orders
}

func (v *Vendor) BeforeSave(_ *gorm.DB) error {
	v.Name = strings.TrimSpace(v.Name)
	v.ContactPerson = strings.TrimSpace(v.ContactPerson)
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	v.Phone = strings.TrimSpace(v.Phone)
	return nil
}
