package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-backoffice/bank"
	"go-backoffice/models"
)

type server struct {
	bank      *bank.Service
	jwtSecret []byte
	tokenTTL  time.Duration
}

func (s *server) routes(r *gin.Engine) {
	r.POST("/api/auth/login", s.login)
	r.POST("/api/auth/register", s.registerSelf)

	api := r.Group("/api")
	api.Use(s.authMiddleware())

	api.GET("/me", s.me)
	api.POST("/auth/password", s.changePassword)

	api.POST("/customers", s.createCustomer)
	api.GET("/customers", s.listCustomers)
	api.GET("/customers/:customerId", s.getCustomer)
	api.PATCH("/customers/:customerId/contact", s.updateCustomerContact)
	api.GET("/customers/:customerId/accounts", s.getCustomerAccounts)

	api.POST("/accounts", s.createAccount)
	api.GET("/accounts", s.listAccounts)
	api.GET("/accounts/:accountId", s.getAccount)
	api.PATCH("/accounts/:accountId/status", s.setAccountStatus)
	api.GET("/accounts/:accountId/transactions", s.getTransactionHistory)
	api.POST("/accounts/:accountId/deposits", s.deposit)
	api.POST("/accounts/:accountId/withdrawals", s.withdraw)
	api.POST("/transfers", s.transferMoney)

	api.GET("/summary", s.getSummary)
	api.GET("/reports/transactions", s.getTransactionReport)

	api.GET("/users", s.listUsers)
	api.POST("/users", s.createUser)
	api.PATCH("/users/:username/status", s.setUserStatus)
	api.DELETE("/users/:username", s.deleteUser)
	api.POST("/users/:username/customer", s.linkCustomer)
}

// fail maps error kinds to HTTP statuses and emits an {"error": ...} body.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AccountRequest struct {
	CustomerID     string          `json:"customerId"`
	Type           string          `json:"type"`
	InitialDeposit decimal.Decimal `json:"initialDeposit"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type MovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

func (s *server) createCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	var errs []string
	if req.Name == "" {
		errs = append(errs, "Name cannot be empty")
	}
	if req.Email == "" {
		errs = append(errs, "Email cannot be empty")
	}
	if req.Phone == "" {
		errs = append(errs, "Phone cannot be empty")
	}
	if req.Address == "" {
		errs = append(errs, "Address cannot be empty")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	customer, err := s.bank.CreateCustomer(session(c), req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (s *server) listCustomers(c *gin.Context) {
	customers, err := s.bank.Customers(session(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (s *server) getCustomer(c *gin.Context) {
	customer, err := s.bank.Customer(session(c), c.Param("customerId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *server) updateCustomerContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	customer, err := s.bank.UpdateCustomerContact(session(c), c.Param("customerId"), req.Email, req.Phone)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *server) getCustomerAccounts(c *gin.Context) {
	customerID := c.Param("customerId")
	accounts, err := s.bank.CustomerAccounts(session(c), customerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customerId": customerID, "accounts": accounts})
}

func (s *server) createAccount(c *gin.Context) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	account, err := s.bank.CreateAccount(session(c), req.CustomerID, models.AccountType(req.Type), req.InitialDeposit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (s *server) listAccounts(c *gin.Context) {
	accounts, err := s.bank.Accounts(session(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (s *server) getAccount(c *gin.Context) {
	account, err := s.bank.Account(session(c), c.Param("accountId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *server) setAccountStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	account, err := s.bank.SetAccountStatus(session(c), c.Param("accountId"), models.AccountStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *server) getTransactionHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	transactions, err := s.bank.TransactionHistory(session(c), c.Param("accountId"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": c.Param("accountId"), "transactions": transactions})
}

func (s *server) deposit(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	tx, err := s.bank.Deposit(session(c), c.Param("accountId"), req.Amount, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *server) withdraw(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	tx, err := s.bank.Withdraw(session(c), c.Param("accountId"), req.Amount, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *server) transferMoney(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	var errs []string
	if req.FromAccountID == "" {
		errs = append(errs, "From account ID cannot be empty")
	}
	if req.ToAccountID == "" {
		errs = append(errs, "To account ID cannot be empty")
	}
	if !req.Amount.IsPositive() {
		errs = append(errs, "Amount must be positive")
	}
	if req.FromAccountID == req.ToAccountID && req.FromAccountID != "" {
		errs = append(errs, "Cannot transfer to the same account")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	out, in, err := s.bank.Transfer(session(c), req.FromAccountID, req.ToAccountID, req.Amount, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"outgoing": out, "incoming": in, "status": "success"})
}

func (s *server) getSummary(c *gin.Context) {
	summary, err := s.bank.Summary(session(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *server) getTransactionReport(c *gin.Context) {
	report, err := s.bank.Report(session(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"byType": report})
}
