package models

import (
	"errors"
	"strings"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Role is the closed set of roles a user can hold.
//
// swagger:enum Role
type Role string

const (
	RoleSuperadmin     Role = "superadmin"
	RoleBusinessAdmin  Role = "business_admin"
	RoleClerk          Role = "clerk"
	RoleProjectManager Role = "project_manager"
	RoleAccountant     Role = "accountant"
	RoleClient         Role = "client"
)

// Roles lists all valid roles.
var Roles = []Role{RoleSuperadmin, RoleBusinessAdmin, RoleClerk, RoleProjectManager, RoleAccountant, RoleClient}

// approverRoles are the roles that may decide on purchase and change orders.
var approverRoles = []Role{RoleSuperadmin, RoleBusinessAdmin, RoleAccountant}

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// CanApproveOrders reports whether a user with this role may approve or
// reject purchase and change orders. All approval authorization checks go
// through this predicate.
func (r Role) CanApproveOrders() bool {
	return slices.Contains(approverRoles, r)
}

var (
	ErrRoleInvalid  = errors.New("the specified role does not exist")
	ErrApproverRole = errors.New("only accountants and administrators can approve or reject orders")
)

// User is a principal known to the system. User lifecycle management
// (invitation, sessions) is owned by the identity service; the finance core
// only needs the identity and the role.
type User struct {
	DefaultModel
	Name  string `json:"name" example:"Jana Willems"`
	Email string `json:"email" gorm:"uniqueIndex" example:"jana@example.com"`
	Role  Role   `json:"role" example:"accountant"`
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	if !u.Role.Valid() {
		return ErrRoleInvalid
	}

	return nil
}
