package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project is the top level grouping for tasks. Project hierarchy management
// is owned by the project service.
type Project struct {
	DefaultModel
	Name string `json:"name" example:"Riverside Towers"`
	Note string `json:"note" example:"Phase 2, buildings C and D"`
}

func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Note = strings.TrimSpace(p.Note)
	return nil
}

// Task holds the budget allocation that approved orders draw from. Task
// scheduling and assignment are owned by the project service; the finance
// core only reads and writes the budget figure.
type Task struct {
	DefaultModel
	Name      string          `json:"name" example:"Foundation works"`
	ProjectID uuid.UUID       `json:"projectId" example:"9e380d42-63e7-4f99-bc5b-a689eaa178a9"`
	Project   Project         `json:"-"`
	Budget    decimal.Decimal `json:"budget" gorm:"type:DECIMAL(20,8)" example:"10000.00"`
}

func (t *Task) BeforeSave(_ *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)
	return nil
}
