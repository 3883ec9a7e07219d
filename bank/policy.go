package bank

import "go-backoffice/models"

// Operation names a facade capability for authorization checks.
type Operation string

const (
	OpManageCustomers Operation = "manage_customers"
	OpManageAccounts  Operation = "manage_accounts"
	OpTransact        Operation = "transact"
	OpViewReports     Operation = "view_reports"
	OpManageUsers     Operation = "manage_users"
	OpViewOwn         Operation = "view_own"
	OpChangePassword  Operation = "change_password"
)

// Policy decides whether a role may perform an operation. It is injected
// into the Service so authorization rules stay testable on their own.
type Policy interface {
	CanPerform(role models.Role, op Operation) bool
}

// RolePolicy is a plain role → operation capability table.
type RolePolicy map[models.Role]map[Operation]bool

// CanPerform implements Policy.
func (p RolePolicy) CanPerform(role models.Role, op Operation) bool {
	return p[role][op]
}

// DefaultPolicy encodes the stock back-office visibility rules: admins do
// everything, employees everything but user management, customers only
// see their own data and manage their own password.
func DefaultPolicy() Policy {
	staff := map[Operation]bool{
		OpManageCustomers: true,
		OpManageAccounts:  true,
		OpTransact:        true,
		OpViewReports:     true,
		OpViewOwn:         true,
		OpChangePassword:  true,
	}
	admin := make(map[Operation]bool, len(staff)+1)
	for op := range staff {
		admin[op] = true
	}
	admin[OpManageUsers] = true
	return RolePolicy{
		models.RoleAdmin:    admin,
		models.RoleEmployee: staff,
		models.RoleCustomer: {
			OpViewOwn:        true,
			OpChangePassword: true,
		},
	}
}
