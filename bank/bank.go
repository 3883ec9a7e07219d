// Package bank is the single entry point the delivery layer calls. It
// composes the ledger store, the identity store and the persistence
// gateway, and guarantees that every successful mutation is on disk
// before control returns to the caller.
package bank

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"go-backoffice/identity"
	"go-backoffice/ledger"
	"go-backoffice/models"
	"go-backoffice/storage"
)

// Session carries the authenticated caller's identity into every facade
// call so results can be filtered per role.
type Session struct {
	UserID     string
	Username   string
	Role       models.Role
	CustomerID string
}

// Service wires ledger + identity + persistence behind one mutation lock.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Store
	users  *identity.Store
	policy Policy
	log    *slog.Logger

	ledgerPath   string
	identityPath string
}

// Open loads both documents (or starts empty), ensures the default admin
// exists and writes initial documents for any file that was absent.
// A corrupt document is logged loudly and replaced by an empty store; the
// bad file stays on disk until the next successful mutation overwrites it.
func Open(ledgerPath, identityPath, adminPassword string, policy Policy, log *slog.Logger) (*Service, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		ledger:       ledger.NewStore(),
		users:        identity.NewStore(),
		policy:       policy,
		log:          log,
		ledgerPath:   ledgerPath,
		identityPath: identityPath,
	}

	ledgerDoc, err := storage.LoadLedger(ledgerPath)
	switch {
	case err == nil:
		s.ledger.Restore(ledgerDoc)
	case errors.Is(err, fs.ErrNotExist):
		if err := s.saveLedger(); err != nil {
			return nil, err
		}
	case errors.Is(err, models.ErrCorruptData):
		log.Error("ledger document is corrupt, starting with an empty ledger", "path", ledgerPath, "err", err)
	default:
		return nil, err
	}

	identityDoc, err := storage.LoadIdentity(identityPath)
	identityMissing := false
	switch {
	case err == nil:
		s.users.Restore(identityDoc)
	case errors.Is(err, fs.ErrNotExist):
		// Written below once the default admin is in place.
		identityMissing = true
	case errors.Is(err, models.ErrCorruptData):
		log.Error("identity document is corrupt, starting with an empty user set", "path", identityPath, "err", err)
	default:
		return nil, err
	}

	created, err := s.users.EnsureDefaultAdmin(adminPassword)
	if err != nil {
		return nil, err
	}
	if created || identityMissing {
		if err := s.saveIdentity(); err != nil {
			return nil, err
		}
	}
	if created {
		log.Warn("default admin user created with the built-in password, rotate it", "username", identity.AdminUsername)
	}
	return s, nil
}

func (s *Service) saveLedger() error {
	return storage.SaveLedger(s.ledgerPath, s.ledger.Snapshot())
}

func (s *Service) saveIdentity() error {
	return storage.SaveIdentity(s.identityPath, s.users.Snapshot())
}

func (s *Service) authorize(sess Session, op Operation) error {
	if !s.policy.CanPerform(sess.Role, op) {
		return models.E(models.ErrUnauthorized, "role %s may not %s", sess.Role, op)
	}
	return nil
}

// ownsAccount reports whether the session's linked customer owns the
// account. Staff roles own everything.
func (s *Service) ownsAccount(sess Session, accountID string) error {
	if sess.Role != models.RoleCustomer {
		return nil
	}
	account, err := s.ledger.GetAccount(accountID)
	if err != nil {
		return err
	}
	if sess.CustomerID == "" || account.CustomerID != sess.CustomerID {
		return models.E(models.ErrUnauthorized, "account %s is not yours", accountID)
	}
	return nil
}

// CreateCustomer registers a customer and persists the ledger.
func (s *Service) CreateCustomer(sess Session, name, email, phone, address string) (models.Customer, error) {
	if err := s.authorize(sess, OpManageCustomers); err != nil {
		return models.Customer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, err := s.ledger.CreateCustomer(name, email, phone, address)
	if err != nil {
		return models.Customer{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

// UpdateCustomerContact patches a customer's contact details.
func (s *Service) UpdateCustomerContact(sess Session, customerID, email, phone string) (models.Customer, error) {
	if err := s.authorize(sess, OpManageCustomers); err != nil {
		return models.Customer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, err := s.ledger.UpdateCustomerContact(customerID, email, phone)
	if err != nil {
		return models.Customer{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

// CreateAccount opens an account for a customer.
func (s *Service) CreateAccount(sess Session, customerID string, accountType models.AccountType, initialDeposit decimal.Decimal) (models.Account, error) {
	if err := s.authorize(sess, OpManageAccounts); err != nil {
		return models.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.ledger.CreateAccount(customerID, accountType, initialDeposit)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// SetAccountStatus flips an account's status.
func (s *Service) SetAccountStatus(sess Session, accountID string, status models.AccountStatus) (models.Account, error) {
	if err := s.authorize(sess, OpManageAccounts); err != nil {
		return models.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.ledger.SetAccountStatus(accountID, status)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Deposit credits an account and persists the ledger.
func (s *Service) Deposit(sess Session, accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := s.authorize(sess, OpTransact); err != nil {
		return models.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.ledger.Deposit(accountID, amount, description)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// Withdraw debits an account and persists the ledger.
func (s *Service) Withdraw(sess Session, accountID string, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := s.authorize(sess, OpTransact); err != nil {
		return models.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.ledger.Withdraw(accountID, amount, description)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := s.saveLedger(); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// Transfer moves funds between two accounts and persists the ledger once
// both legs are applied.
func (s *Service) Transfer(sess Session, fromID, toID string, amount decimal.Decimal, description string) (models.Transaction, models.Transaction, error) {
	var none models.Transaction
	if err := s.authorize(sess, OpTransact); err != nil {
		return none, none, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, in, err := s.ledger.Transfer(fromID, toID, amount, description)
	if err != nil {
		return none, none, err
	}
	if err := s.saveLedger(); err != nil {
		return none, none, err
	}
	return out, in, nil
}

// TransactionHistory lists an account's transactions, newest first.
// Customers may only read accounts linked to their own customer record.
func (s *Service) TransactionHistory(sess Session, accountID string, limit int) ([]models.Transaction, error) {
	if err := s.authorize(sess, OpViewOwn); err != nil {
		return nil, err
	}
	if err := s.ownsAccount(sess, accountID); err != nil {
		return nil, err
	}
	return s.ledger.TransactionHistory(accountID, limit)
}

// Customer fetches one customer. A customer-role session may only fetch
// its own linked record.
func (s *Service) Customer(sess Session, customerID string) (models.Customer, error) {
	if sess.Role == models.RoleCustomer {
		if err := s.authorize(sess, OpViewOwn); err != nil {
			return models.Customer{}, err
		}
		if sess.CustomerID != customerID {
			return models.Customer{}, models.E(models.ErrUnauthorized, "customer %s is not yours", customerID)
		}
	} else if err := s.authorize(sess, OpManageCustomers); err != nil {
		return models.Customer{}, err
	}
	return s.ledger.GetCustomer(customerID)
}

// Customers lists every customer (staff only).
func (s *Service) Customers(sess Session) ([]models.Customer, error) {
	if err := s.authorize(sess, OpManageCustomers); err != nil {
		return nil, err
	}
	return s.ledger.AllCustomers(), nil
}

// Account fetches one account, with the customer-role ownership check.
func (s *Service) Account(sess Session, accountID string) (models.Account, error) {
	if err := s.authorize(sess, OpViewOwn); err != nil {
		return models.Account{}, err
	}
	if err := s.ownsAccount(sess, accountID); err != nil {
		return models.Account{}, err
	}
	return s.ledger.GetAccount(accountID)
}

// Accounts lists accounts: all of them for staff, only the session's own
// for a customer role.
func (s *Service) Accounts(sess Session) ([]models.Account, error) {
	if sess.Role == models.RoleCustomer {
		if err := s.authorize(sess, OpViewOwn); err != nil {
			return nil, err
		}
		if sess.CustomerID == "" {
			return nil, nil
		}
		return s.ledger.CustomerAccounts(sess.CustomerID), nil
	}
	if err := s.authorize(sess, OpManageAccounts); err != nil {
		return nil, err
	}
	return s.ledger.AllAccounts(), nil
}

// CustomerAccounts lists a customer's accounts, with the same ownership
// rule as Customer.
func (s *Service) CustomerAccounts(sess Session, customerID string) ([]models.Account, error) {
	if sess.Role == models.RoleCustomer {
		if err := s.authorize(sess, OpViewOwn); err != nil {
			return nil, err
		}
		if sess.CustomerID != customerID {
			return nil, models.E(models.ErrUnauthorized, "customer %s is not yours", customerID)
		}
	} else if err := s.authorize(sess, OpManageAccounts); err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetCustomer(customerID); err != nil {
		return nil, err
	}
	return s.ledger.CustomerAccounts(customerID), nil
}

// Summary returns bank-wide headline figures (staff only).
func (s *Service) Summary(sess Session) (models.Summary, error) {
	if err := s.authorize(sess, OpViewReports); err != nil {
		return models.Summary{}, err
	}
	return s.ledger.Summary(), nil
}

// Report returns per-type transaction aggregates (staff only).
func (s *Service) Report(sess Session) ([]models.TypeReport, error) {
	if err := s.authorize(sess, OpViewReports); err != nil {
		return nil, err
	}
	return s.ledger.Report(), nil
}

// Login authenticates a user and persists the LastLogin stamp.
func (s *Service) Login(username, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.users.Login(username, password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.saveIdentity(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// RegisterSelf is the public registration path: it always produces a
// customer-role user, regardless of what the caller asked for.
func (s *Service) RegisterSelf(username, email, password, fullName, phone string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.users.Register(username, email, password, models.RoleCustomer, fullName, phone, "")
	if err != nil {
		return models.User{}, err
	}
	if err := s.saveIdentity(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// RegisterUser creates a user with any role (admin only).
func (s *Service) RegisterUser(sess Session, username, email, password string, role models.Role, fullName, phone, customerID string) (models.User, error) {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.users.Register(username, email, password, role, fullName, phone, customerID)
	if err != nil {
		return models.User{}, err
	}
	if err := s.saveIdentity(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetUserActive flips a user's active flag (admin only). Returns false
// when the user is unknown or is the protected admin being deactivated.
func (s *Service) SetUserActive(sess Session, username string, isActive bool) (bool, error) {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users.SetActive(username, isActive) {
		return false, nil
	}
	if err := s.saveIdentity(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteUser removes a user (admin only, admin user protected).
func (s *Service) DeleteUser(sess Session, username string) (bool, error) {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users.Delete(username) {
		return false, nil
	}
	if err := s.saveIdentity(); err != nil {
		return false, err
	}
	return true, nil
}

// LinkCustomer attaches a customer record to a user login (admin only).
// The customer must exist in the ledger.
func (s *Service) LinkCustomer(sess Session, username, customerID string) error {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ledger.GetCustomer(customerID); err != nil {
		return err
	}
	if err := s.users.LinkCustomer(username, customerID); err != nil {
		return err
	}
	return s.saveIdentity()
}

// ChangePassword lets the session's own user rotate their password.
func (s *Service) ChangePassword(sess Session, current, next string) error {
	if err := s.authorize(sess, OpChangePassword); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.users.ChangePassword(sess.Username, current, next); err != nil {
		return err
	}
	return s.saveIdentity()
}

// Users lists every user (admin only).
func (s *Service) Users(sess Session) ([]models.User, error) {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return nil, err
	}
	return s.users.All(), nil
}

// UsersByRole lists users with one role (admin only).
func (s *Service) UsersByRole(sess Session, role models.Role) ([]models.User, error) {
	if err := s.authorize(sess, OpManageUsers); err != nil {
		return nil, err
	}
	return s.users.ByRole(role), nil
}

// UserByUsername resolves a login name to a user record. Used by the
// delivery layer to rebuild a session from a token.
func (s *Service) UserByUsername(username string) (models.User, error) {
	return s.users.ByUsername(username)
}
