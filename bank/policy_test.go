package bank

import (
	"testing"

	"go-backoffice/models"
)

func TestDefaultPolicyTable(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		role models.Role
		op   Operation
		want bool
	}{
		{models.RoleAdmin, OpManageUsers, true},
		{models.RoleAdmin, OpTransact, true},
		{models.RoleEmployee, OpManageCustomers, true},
		{models.RoleEmployee, OpManageUsers, false},
		{models.RoleCustomer, OpViewOwn, true},
		{models.RoleCustomer, OpChangePassword, true},
		{models.RoleCustomer, OpTransact, false},
		{models.RoleCustomer, OpManageCustomers, false},
		{"", OpViewOwn, false},
	}
	for _, tc := range cases {
		if got := p.CanPerform(tc.role, tc.op); got != tc.want {
			t.Errorf("CanPerform(%q, %q)=%v want=%v", tc.role, tc.op, got, tc.want)
		}
	}
}

// A custom policy injected into the service is honored over the default.
func TestCustomPolicyInjection(t *testing.T) {
	denyAll := RolePolicy{}
	svc := &Service{policy: denyAll}
	if err := svc.authorize(Session{Role: models.RoleAdmin}, OpManageUsers); err == nil {
		t.Fatal("deny-all policy should reject admin")
	}
}
