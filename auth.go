package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go-backoffice/bank"
	"go-backoffice/models"
)

const sessionKey = "session"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	CustomerID string `json:"customerId"`
}

type UserStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

type LinkCustomerRequest struct {
	CustomerID string `json:"customerId"`
}

// userView is a User without the password hash; credentials never leave
// the identity store through the API.
type userView struct {
	ID         string      `json:"userId"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	FullName   string      `json:"fullName"`
	Phone      string      `json:"phone"`
	IsActive   bool        `json:"isActive"`
	CreatedAt  time.Time   `json:"createdAt"`
	LastLogin  *time.Time  `json:"lastLogin,omitempty"`
	CustomerID string      `json:"customerId,omitempty"`
}

func viewOf(u models.User) userView {
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		FullName:   u.FullName,
		Phone:      u.Phone,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
		CustomerID: u.CustomerID,
	}
}

// authMiddleware parses the Bearer token and rebuilds the caller's
// session. The user is re-resolved on every request so a deleted or
// deactivated user loses access even with a live token.
func (s *server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		user, err := s.bank.UserByUsername(username)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		c.Set(sessionKey, bank.Session{
			UserID:     user.ID,
			Username:   user.Username,
			Role:       user.Role,
			CustomerID: user.CustomerID,
		})
		c.Next()
	}
}

func session(c *gin.Context) bank.Session {
	sess, _ := c.Get(sessionKey)
	v, _ := sess.(bank.Session)
	return v
}

func (s *server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	user, err := s.bank.Login(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed, "user": viewOf(user)})
}

func (s *server) registerSelf(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	user, err := s.bank.RegisterSelf(req.Username, req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(user))
}

func (s *server) me(c *gin.Context) {
	user, err := s.bank.UserByUsername(session(c).Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(user))
}

func (s *server) changePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	if err := s.bank.ChangePassword(session(c), req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

func (s *server) listUsers(c *gin.Context) {
	var users []models.User
	var err error
	if role := c.Query("role"); role != "" {
		users, err = s.bank.UsersByRole(session(c), models.Role(role))
	} else {
		users, err = s.bank.Users(session(c))
	}
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = viewOf(u)
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (s *server) createUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	user, err := s.bank.RegisterUser(session(c), req.Username, req.Email, req.Password,
		models.Role(req.Role), req.FullName, req.Phone, req.CustomerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(user))
}

func (s *server) setUserStatus(c *gin.Context) {
	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	changed, err := s.bank.SetUserActive(session(c), c.Param("username"), *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found or protected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *server) deleteUser(c *gin.Context) {
	deleted, err := s.bank.DeleteUser(session(c), c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found or protected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *server) linkCustomer(c *gin.Context) {
	var req LinkCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	if err := s.bank.LinkCustomer(session(c), c.Param("username"), req.CustomerID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "linked"})
}
