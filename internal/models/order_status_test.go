package models_test

import (
	"github.com/buildledger/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestOrderStatusValid() {
	for _, status := range models.OrderStatuses {
		assert.True(suite.T(), status.Valid(), "status %s should be valid", status)
	}

	assert.False(suite.T(), models.OrderStatus("Cancelled").Valid())
	assert.False(suite.T(), models.OrderStatus("").Valid())
}

func (suite *TestSuiteStandard) TestOrderStatusTransitions() {
	tests := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.StatusDraft, models.StatusPendingApproval, true},
		{models.StatusPendingApproval, models.StatusApproved, true},
		{models.StatusPendingApproval, models.StatusRejected, true},
		{models.StatusApproved, models.StatusDelivered, true},
		{models.StatusApproved, models.StatusImplemented, true},
		{models.StatusDelivered, models.StatusPaid, true},

		// Approval decisions need a submitted order
		{models.StatusDraft, models.StatusApproved, false},
		{models.StatusDraft, models.StatusRejected, false},

		// Statuses only move forward
		{models.StatusPendingApproval, models.StatusDraft, false},
		{models.StatusApproved, models.StatusPendingApproval, false},
		{models.StatusApproved, models.StatusRejected, false},

		// Terminal statuses
		{models.StatusRejected, models.StatusPendingApproval, false},
		{models.StatusRejected, models.StatusApproved, false},
		{models.StatusPaid, models.StatusDelivered, false},
		{models.StatusImplemented, models.StatusApproved, false},
	}

	for _, tt := range tests {
		assert.Equal(suite.T(), tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s should be %v", tt.from, tt.to, tt.allowed)
	}
}

func (suite *TestSuiteStandard) TestOrderStatusEditable() {
	assert.True(suite.T(), models.StatusDraft.Editable())
	assert.True(suite.T(), models.StatusPendingApproval.Editable())

	assert.False(suite.T(), models.StatusApproved.Editable())
	assert.False(suite.T(), models.StatusRejected.Editable())
	assert.False(suite.T(), models.StatusDelivered.Editable())
	assert.False(suite.T(), models.StatusPaid.Editable())
	assert.False(suite.T(), models.StatusImplemented.Editable())
}

func (suite *TestSuiteStandard) TestRoleCanApproveOrders() {
	tests := []struct {
		role    models.Role
		allowed bool
	}{
		{models.RoleSuperadmin, true},
		{models.RoleBusinessAdmin, true},
		{models.RoleAccountant, true},
		{models.RoleClerk, false},
		{models.RoleProjectManager, false},
		{models.RoleClient, false},
	}

	for _, tt := range tests {
		assert.Equal(suite.T(), tt.allowed, tt.role.CanApproveOrders(), "role %s", tt.role)
	}
}
