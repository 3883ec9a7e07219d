package bank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"go-backoffice/identity"
	"go-backoffice/models"
	"go-backoffice/storage"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	svc          *Service
	ledgerPath   string
	identityPath string
	admin        Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		ledgerPath:   filepath.Join(dir, "bank_data.json"),
		identityPath: filepath.Join(dir, "users.json"),
	}
	svc, err := Open(f.ledgerPath, f.identityPath, "", nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.svc = svc
	admin, err := svc.UserByUsername(identity.AdminUsername)
	if err != nil {
		t.Fatalf("admin missing after Open: %v", err)
	}
	f.admin = Session{UserID: admin.ID, Username: admin.Username, Role: admin.Role}
	return f
}

func (f *fixture) reopen(t *testing.T) *Service {
	t.Helper()
	svc, err := Open(f.ledgerPath, f.identityPath, "", nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return svc
}

func TestOpenBootstrapsDocumentsAndAdmin(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{f.ledgerPath, f.identityPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("initial document not written: %v", err)
		}
	}
	if _, err := f.svc.Login(identity.AdminUsername, identity.DefaultAdminPassword); err != nil {
		t.Fatalf("default admin login failed: %v", err)
	}

	// A second Open against the same files must not mint a second admin.
	svc2 := f.reopen(t)
	users, err := svc2.Users(f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("users=%d want=1", len(users))
	}
}

func TestMutationsArePersistedBeforeReturn(t *testing.T) {
	f := newFixture(t)

	customer, err := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	if err != nil {
		t.Fatal(err)
	}
	account, err := f.svc.CreateAccount(f.admin, customer.ID, models.Savings, dec(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Deposit(f.admin, account.ID, dec(100), ""); err != nil {
		t.Fatal(err)
	}

	// The on-disk document reflects the deposit without any reopen step.
	doc, err := storage.LoadLedger(f.ledgerPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Accounts) != 1 || !doc.Accounts[0].Balance.Equal(dec(100)) {
		t.Fatalf("on-disk document stale: %+v", doc.Accounts)
	}
}

func TestEndToEndDepositWithdrawHistory(t *testing.T) {
	f := newFixture(t)

	customer, _ := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	account, _ := f.svc.CreateAccount(f.admin, customer.ID, models.Savings, dec(0))

	if _, err := f.svc.Deposit(f.admin, account.ID, dec(100), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Withdraw(f.admin, account.ID, dec(30), ""); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Account(f.admin, account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(dec(70)) {
		t.Fatalf("balance=%s want=70", got.Balance)
	}
	if len(got.Transactions) != 2 || got.Transactions[0].Type != models.Deposit || got.Transactions[1].Type != models.Withdraw {
		t.Fatalf("transaction log unexpected: %+v", got.Transactions)
	}

	history, err := f.svc.TransactionHistory(f.admin, account.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Type != models.Withdraw {
		t.Fatalf("limit=1 should return only the withdraw: %+v", history)
	}
}

func TestEndToEndTransfer(t *testing.T) {
	f := newFixture(t)

	customer, _ := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	a, _ := f.svc.CreateAccount(f.admin, customer.ID, models.Savings, dec(50))
	b, _ := f.svc.CreateAccount(f.admin, customer.ID, models.Checking, dec(0))

	out, in, err := f.svc.Transfer(f.admin, a.ID, b.ID, dec(50), "")
	if err != nil {
		t.Fatal(err)
	}
	if out.ReferenceAccount != b.ID || in.ReferenceAccount != a.ID {
		t.Fatalf("reference accounts wrong: out=%+v in=%+v", out, in)
	}

	ga, _ := f.svc.Account(f.admin, a.ID)
	gb, _ := f.svc.Account(f.admin, b.ID)
	if !ga.Balance.IsZero() || !gb.Balance.Equal(dec(50)) {
		t.Fatalf("balances a=%s b=%s want 0/50", ga.Balance, gb.Balance)
	}

	// Insufficient funds must change nothing on either side.
	if _, _, err := f.svc.Transfer(f.admin, a.ID, b.ID, dec(100), ""); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	ga2, _ := f.svc.Account(f.admin, a.ID)
	gb2, _ := f.svc.Account(f.admin, b.ID)
	if len(ga2.Transactions) != len(ga.Transactions) || len(gb2.Transactions) != len(gb.Transactions) {
		t.Fatal("failed transfer touched a transaction log")
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	f := newFixture(t)

	customer, _ := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	account, _ := f.svc.CreateAccount(f.admin, customer.ID, models.Business, dec(500))

	svc2 := f.reopen(t)
	got, err := svc2.Account(f.admin, account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(dec(500)) || got.Type != models.Business {
		t.Fatalf("reloaded account unexpected: %+v", got)
	}
	summary, err := svc2.Summary(f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalCustomers != 1 || summary.TotalAccounts != 1 || !summary.TotalBalance.Equal(dec(500)) {
		t.Fatalf("reloaded summary unexpected: %+v", summary)
	}
}

func TestCorruptLedgerFallsBackToEmpty(t *testing.T) {
	f := newFixture(t)
	customer, _ := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	if _, err := f.svc.CreateAccount(f.admin, customer.ID, models.Savings, dec(10)); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(f.ledgerPath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc2 := f.reopen(t)
	accounts, err := svc2.Accounts(f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected empty ledger after corrupt load, got %d accounts", len(accounts))
	}
}

func TestCustomerRoleIsScopedToOwnData(t *testing.T) {
	f := newFixture(t)

	alice, _ := f.svc.CreateCustomer(f.admin, "Alice Smith", "alice@example.com", "555-0100", "1 Main St")
	mallory, _ := f.svc.CreateCustomer(f.admin, "Mallory Jones", "mallory@example.com", "555-0101", "2 Main St")
	aliceAcc, _ := f.svc.CreateAccount(f.admin, alice.ID, models.Savings, dec(100))
	malloryAcc, _ := f.svc.CreateAccount(f.admin, mallory.ID, models.Savings, dec(100))

	user, err := f.svc.RegisterSelf("alice", "alice.login@example.com", "secret123", "Alice Smith", "555-0100")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleCustomer {
		t.Fatalf("self-registration must yield customer role, got %s", user.Role)
	}
	if err := f.svc.LinkCustomer(f.admin, "alice", alice.ID); err != nil {
		t.Fatal(err)
	}
	linked, _ := f.svc.UserByUsername("alice")
	sess := Session{UserID: linked.ID, Username: linked.Username, Role: linked.Role, CustomerID: linked.CustomerID}

	// Own data is visible.
	accounts, err := f.svc.Accounts(sess)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].ID != aliceAcc.ID {
		t.Fatalf("customer should see exactly their own accounts: %+v", accounts)
	}
	if _, err := f.svc.TransactionHistory(sess, aliceAcc.ID, 0); err != nil {
		t.Fatal(err)
	}

	// Foreign data and staff operations are not.
	if _, err := f.svc.Account(sess, malloryAcc.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("foreign account: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Customer(sess, mallory.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("foreign customer: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Deposit(sess, aliceAcc.ID, dec(1), ""); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("customer deposit: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Summary(sess); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("customer summary: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.Users(sess); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("customer user list: want ErrUnauthorized, got %v", err)
	}
}

func TestEmployeeCannotManageUsers(t *testing.T) {
	f := newFixture(t)

	emp, err := f.svc.RegisterUser(f.admin, "emma", "emma@example.com", "secret123", models.RoleEmployee, "Emma", "555-0102", "")
	if err != nil {
		t.Fatal(err)
	}
	sess := Session{UserID: emp.ID, Username: emp.Username, Role: emp.Role}

	if _, err := f.svc.Customers(sess); err != nil {
		t.Fatalf("employee should list customers: %v", err)
	}
	if _, err := f.svc.Summary(sess); err != nil {
		t.Fatalf("employee should view the summary: %v", err)
	}
	if _, err := f.svc.Users(sess); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("employee user list: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.RegisterUser(sess, "x", "x@example.com", "secret123", models.RoleEmployee, "X", "555", ""); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("employee register: want ErrUnauthorized, got %v", err)
	}
}

func TestAdminUserIsProtectedThroughFacade(t *testing.T) {
	f := newFixture(t)

	deleted, err := f.svc.DeleteUser(f.admin, identity.AdminUsername)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Fatal("admin user must not be deletable")
	}
	changed, err := f.svc.SetUserActive(f.admin, identity.AdminUsername, false)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("admin user must not be deactivatable")
	}
}

func TestLoginPersistsLastLogin(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Login(identity.AdminUsername, identity.DefaultAdminPassword); err != nil {
		t.Fatal(err)
	}
	doc, err := storage.LoadIdentity(f.identityPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Users) != 1 || doc.Users[0].LastLogin == nil {
		t.Fatalf("LastLogin not saved to disk: %+v", doc.Users)
	}
}

func TestChangePasswordThroughFacade(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.RegisterSelf("nina", "nina@example.com", "secret123", "Nina", "555-0103")
	if err != nil {
		t.Fatal(err)
	}
	sess := Session{UserID: user.ID, Username: user.Username, Role: user.Role}
	if err := f.svc.ChangePassword(sess, "secret123", "rotated9"); err != nil {
		t.Fatal(err)
	}

	svc2 := f.reopen(t)
	if _, err := svc2.Login("nina", "rotated9"); err != nil {
		t.Fatalf("rotated password rejected after reopen: %v", err)
	}
}
