package storage

import "go-backoffice/models"

// LedgerDocument is the persisted form of the ledger store: every customer
// and every account, each account embedding its full transaction log.
// NextAccountSeq carries the sequential account-id counter across restarts.
type LedgerDocument struct {
	NextAccountSeq int64             `json:"next_account_seq"`
	Customers      []models.Customer `json:"customers"`
	Accounts       []models.Account  `json:"accounts"`
}

// IdentityDocument is the persisted form of the identity store.
type IdentityDocument struct {
	Users []models.User `json:"users"`
}
