// Package ledger owns customers, accounts and the per-account transaction
// log. All mutations happen inside one critical section so a balance and
// its log entry can never be observed out of step.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-backoffice/models"
	"go-backoffice/storage"
)

// accountIDFormat yields ids like ACC000007.
const accountIDFormat = "ACC%06d"

// Store holds in-memory ledger data for customers and accounts.
type Store struct {
	mu        sync.RWMutex
	customers map[string]models.Customer
	accounts  map[string]*models.Account
	nextSeq   int64
}

// NewStore returns an empty ledger store.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]models.Customer),
		accounts:  make(map[string]*models.Account),
	}
}

// CreateCustomer registers a new customer with a fresh id.
func (s *Store) CreateCustomer(name, email, phone, address string) (models.Customer, error) {
	if name == "" || email == "" || phone == "" || address == "" {
		return models.Customer{}, models.E(models.ErrValidation, "all customer fields are required")
	}
	customer := models.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Address:   address,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customer.ID] = customer
	return customer, nil
}

// UpdateCustomerContact patches a customer's email and/or phone. Empty
// arguments leave the current value in place.
func (s *Store) UpdateCustomerContact(customerID, email, phone string) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return models.Customer{}, models.E(models.ErrNotFound, "customer %s not found", customerID)
	}
	if email != "" {
		customer.Email = email
	}
	if phone != "" {
		customer.Phone = phone
	}
	s.customers[customerID] = customer
	return customer, nil
}

// CreateAccount opens an account for an existing customer. The account id
// is the next value of a monotonic sequence. A positive initial deposit is
// booked through the normal deposit path so the transaction log and the
// balance agree from the first moment.
func (s *Store) CreateAccount(customerID string, accountType models.AccountType, initialDeposit decimal.Decimal) (models.Account, error) {
	if !models.ValidAccountType(accountType) {
		return models.Account{}, models.E(models.ErrValidation, "invalid account type %q", accountType)
	}
	if initialDeposit.IsNegative() {
		return models.Account{}, models.E(models.ErrValidation, "initial deposit cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customerID]; !ok {
		return models.Account{}, models.E(models.ErrNotFound, "customer %s not found", customerID)
	}
	s.nextSeq++
	account := &models.Account{
		ID:         fmt.Sprintf(accountIDFormat, s.nextSeq),
		CustomerID: customerID,
		Type:       accountType,
		Balance:    decimal.Zero,
		Status:     models.StatusActive,
		CreatedAt:  time.Now(),
	}
	if initialDeposit.IsPositive() {
		s.applyDeposit(account, initialDeposit, "Initial deposit")
	}
	s.accounts[account.ID] = account
	return copyAccount(account), nil
}

// applyDeposit mutates balance and log together. Caller holds s.mu.
func (s *Store) applyDeposit(a *models.Account, amount decimal.Decimal, description string) models.Transaction {
	a.Balance = a.Balance.Add(amount)
	tx := models.Transaction{
		ID:           uuid.New().String(),
		AccountID:    a.ID,
		Type:         models.Deposit,
		Amount:       amount,
		BalanceAfter: a.Balance,
		Description:  description,
		CreatedAt:    time.Now(),
	}
	a.Transactions = append(a.Transactions, tx)
	return tx
}

// Deposit credits an account and appends a deposit transaction.
func (s *Store) Deposit(accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, models.E(models.ErrValidation, "deposit amount must be positive")
	}
	if description == "" {
		description = "Deposit"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return models.Transaction{}, models.E(models.ErrNotFound, "account %s not found", accountID)
	}
	return s.applyDeposit(account, amount, description), nil
}

// Withdraw debits an account and appends a withdraw transaction. The
// balance can never go negative.
func (s *Store) Withdraw(accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, models.E(models.ErrValidation, "withdrawal amount must be positive")
	}
	if description == "" {
		description = "Withdrawal"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return models.Transaction{}, models.E(models.ErrNotFound, "account %s not found", accountID)
	}
	if account.Balance.LessThan(amount) {
		return models.Transaction{}, models.E(models.ErrInsufficientFunds, "insufficient funds")
	}
	account.Balance = account.Balance.Sub(amount)
	tx := models.Transaction{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		Type:         models.Withdraw,
		Amount:       amount,
		BalanceAfter: account.Balance,
		Description:  description,
		CreatedAt:    time.Now(),
	}
	account.Transactions = append(account.Transactions, tx)
	return tx, nil
}

// Transfer moves amount between two accounts as one atomic step: both
// balances move and both log entries land inside the same critical
// section, or nothing changes at all.
func (s *Store) Transfer(fromID, toID string, amount decimal.Decimal, description string) (models.Transaction, models.Transaction, error) {
	var none models.Transaction
	if !amount.IsPositive() {
		return none, none, models.E(models.ErrValidation, "transfer amount must be positive")
	}
	if fromID == toID {
		return none, none, models.E(models.ErrValidation, "cannot transfer to the same account")
	}
	if description == "" {
		description = "Transfer"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok1 := s.accounts[fromID]
	to, ok2 := s.accounts[toID]
	if !ok1 || !ok2 {
		return none, none, models.E(models.ErrNotFound, "one or both accounts not found")
	}
	if from.Balance.LessThan(amount) {
		return none, none, models.E(models.ErrInsufficientFunds, "insufficient funds")
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)

	now := time.Now()
	out := models.Transaction{
		ID:               uuid.New().String(),
		AccountID:        fromID,
		Type:             models.TransferOut,
		Amount:           amount,
		BalanceAfter:     from.Balance,
		Description:      fmt.Sprintf("Transfer to %s: %s", toID, description),
		CreatedAt:        now,
		ReferenceAccount: toID,
	}
	in := models.Transaction{
		ID:               uuid.New().String(),
		AccountID:        toID,
		Type:             models.TransferIn,
		Amount:           amount,
		BalanceAfter:     to.Balance,
		Description:      fmt.Sprintf("Transfer from %s: %s", fromID, description),
		CreatedAt:        now,
		ReferenceAccount: fromID,
	}
	from.Transactions = append(from.Transactions, out)
	to.Transactions = append(to.Transactions, in)
	return out, in, nil
}

// TransactionHistory returns an account's transactions most recent first.
// limit <= 0 means no limit. The result is recomputed per call.
func (s *Store) TransactionHistory(accountID string, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, models.E(models.ErrNotFound, "account %s not found", accountID)
	}
	history := make([]models.Transaction, len(account.Transactions))
	// Reverse the append order first so entries sharing a timestamp keep
	// newest-append-first after the stable sort.
	for i, tx := range account.Transactions {
		history[len(history)-1-i] = tx
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	return history, nil
}

// SetAccountStatus flips an account between active, inactive and frozen.
func (s *Store) SetAccountStatus(accountID string, status models.AccountStatus) (models.Account, error) {
	if !models.ValidAccountStatus(status) {
		return models.Account{}, models.E(models.ErrValidation, "invalid account status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return models.Account{}, models.E(models.ErrNotFound, "account %s not found", accountID)
	}
	account.Status = status
	return copyAccount(account), nil
}

// GetCustomer retrieves a customer by id.
func (s *Store) GetCustomer(customerID string) (models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return models.Customer{}, models.E(models.ErrNotFound, "customer %s not found", customerID)
	}
	return customer, nil
}

// GetAccount retrieves an account snapshot by id.
func (s *Store) GetAccount(accountID string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return models.Account{}, models.E(models.ErrNotFound, "account %s not found", accountID)
	}
	return copyAccount(account), nil
}

// CustomerAccounts retrieves all accounts owned by a customer.
func (s *Store) CustomerAccounts(customerID string) []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []models.Account
	for _, account := range s.accounts {
		if account.CustomerID == customerID {
			accounts = append(accounts, copyAccount(account))
		}
	}
	sortAccounts(accounts)
	return accounts
}

// AllCustomers retrieves every customer, oldest first.
func (s *Store) AllCustomers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]models.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool {
		if !customers[i].CreatedAt.Equal(customers[j].CreatedAt) {
			return customers[i].CreatedAt.Before(customers[j].CreatedAt)
		}
		return customers[i].ID < customers[j].ID
	})
	return customers
}

// AllAccounts retrieves every account ordered by id.
func (s *Store) AllAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, copyAccount(account))
	}
	sortAccounts(accounts)
	return accounts
}

// Summary aggregates bank-wide headline figures. Only active accounts
// count toward ActiveAccounts; every balance counts toward the total.
func (s *Store) Summary() models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := models.Summary{
		TotalCustomers: len(s.customers),
		TotalAccounts:  len(s.accounts),
		TotalBalance:   decimal.Zero,
	}
	for _, account := range s.accounts {
		if account.Status == models.StatusActive {
			summary.ActiveAccounts++
		}
		summary.TotalBalance = summary.TotalBalance.Add(account.Balance)
	}
	return summary
}

// Report aggregates count and volume per transaction type across all
// accounts, in a fixed type order.
func (s *Store) Report() []models.TypeReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[models.TransactionType]*models.TypeReport)
	order := []models.TransactionType{models.Deposit, models.Withdraw, models.TransferIn, models.TransferOut}
	for _, t := range order {
		byType[t] = &models.TypeReport{Type: t, Volume: decimal.Zero}
	}
	for _, account := range s.accounts {
		for _, tx := range account.Transactions {
			r, ok := byType[tx.Type]
			if !ok {
				continue
			}
			r.Count++
			r.Volume = r.Volume.Add(tx.Amount)
		}
	}
	report := make([]models.TypeReport, 0, len(order))
	for _, t := range order {
		report = append(report, *byType[t])
	}
	return report
}

// Snapshot exports the full ledger state for persistence. Output order is
// deterministic so successive saves of the same state are byte-identical.
func (s *Store) Snapshot() storage.LedgerDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := storage.LedgerDocument{
		NextAccountSeq: s.nextSeq,
		Customers:      make([]models.Customer, 0, len(s.customers)),
		Accounts:       make([]models.Account, 0, len(s.accounts)),
	}
	for _, customer := range s.customers {
		doc.Customers = append(doc.Customers, customer)
	}
	sort.Slice(doc.Customers, func(i, j int) bool { return doc.Customers[i].ID < doc.Customers[j].ID })
	for _, account := range s.accounts {
		doc.Accounts = append(doc.Accounts, copyAccount(account))
	}
	sortAccounts(doc.Accounts)
	return doc
}

// Restore replaces the ledger state with a loaded document.
func (s *Store) Restore(doc storage.LedgerDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq = doc.NextAccountSeq
	s.customers = make(map[string]models.Customer, len(doc.Customers))
	for _, customer := range doc.Customers {
		s.customers[customer.ID] = customer
	}
	s.accounts = make(map[string]*models.Account, len(doc.Accounts))
	for _, account := range doc.Accounts {
		a := account
		a.Transactions = append([]models.Transaction(nil), account.Transactions...)
		s.accounts[a.ID] = &a
	}
}

func copyAccount(a *models.Account) models.Account {
	cp := *a
	cp.Transactions = append([]models.Transaction(nil), a.Transactions...)
	return cp
}

func sortAccounts(accounts []models.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
}
