package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a bank account.
type AccountType string

const (
	Savings  AccountType = "savings"
	Checking AccountType = "checking"
	Business AccountType = "business"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case Savings, Checking, Business:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusFrozen   AccountStatus = "frozen"
)

// ValidAccountStatus reports whether s is one of the known statuses.
func ValidAccountStatus(s AccountStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusFrozen:
		return true
	}
	return false
}

// TransactionType classifies an entry in an account's transaction log.
type TransactionType string

const (
	Deposit     TransactionType = "deposit"
	Withdraw    TransactionType = "withdraw"
	TransferIn  TransactionType = "transfer_in"
	TransferOut TransactionType = "transfer_out"
)

// Role determines which operations a user may invoke.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// Customer represents a bank customer
type Customer struct {
	ID        string    `json:"customer_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_date"`
}

// Account represents a bank account (savings, checking or business).
// Transactions is the append-only audit log; Balance always equals the
// BalanceAfter of the last appended transaction.
type Account struct {
	ID           string          `json:"account_id"`
	CustomerID   string          `json:"customer_id"`
	Type         AccountType     `json:"account_type"`
	Balance      decimal.Decimal `json:"balance"`
	Status       AccountStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_date"`
	Transactions []Transaction   `json:"transactions"`
}

// Transaction represents a single immutable entry in an account's log.
// ReferenceAccount is set only for transfer_in/transfer_out and names
// the counterpart account.
type Transaction struct {
	ID               string          `json:"transaction_id"`
	AccountID        string          `json:"account_id"`
	Type             TransactionType `json:"transaction_type"`
	Amount           decimal.Decimal `json:"amount"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	Description      string          `json:"description"`
	CreatedAt        time.Time       `json:"timestamp"`
	ReferenceAccount string          `json:"reference_account,omitempty"`
}

// User is a login identity. CustomerID is set only for role=customer and
// points at the Customer aggregate the user may see.
type User struct {
	ID           string     `json:"user_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         Role       `json:"role"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_date"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CustomerID   string     `json:"customer_id,omitempty"`
}

// Summary holds bank-wide headline figures.
type Summary struct {
	TotalCustomers int             `json:"totalCustomers"`
	TotalAccounts  int             `json:"totalAccounts"`
	ActiveAccounts int             `json:"activeAccounts"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
}

// TypeReport aggregates transactions of one type across all accounts.
type TypeReport struct {
	Type   TransactionType `json:"type"`
	Count  int             `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}
