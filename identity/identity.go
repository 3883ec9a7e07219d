// Package identity owns login users: registration, authentication and
// status management. Passwords are stored only as bcrypt hashes.
package identity

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-backoffice/models"
	"go-backoffice/storage"
)

// AdminUsername is the bootstrap user. It always exists and can never be
// deleted or deactivated.
const AdminUsername = "admin"

// DefaultAdminPassword is the fixed first-run credential. Rotate it
// immediately on any real deployment.
const DefaultAdminPassword = "admin123"

const minPasswordLen = 6

// Store holds login users keyed by username.
type Store struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewStore returns an empty identity store.
func NewStore() *Store {
	return &Store{users: make(map[string]models.User)}
}

// EnsureDefaultAdmin creates the built-in admin user when no admin-role
// user exists yet. Idempotent across restarts. Returns true when a user
// was created, in which case the caller persists.
func (s *Store) EnsureDefaultAdmin(password string) (bool, error) {
	if password == "" {
		password = DefaultAdminPassword
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Role == models.RoleAdmin {
			return false, nil
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	s.users[AdminUsername] = models.User{
		ID:           uuid.New().String(),
		Username:     AdminUsername,
		Email:        "admin@bank.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		FullName:     "System Administrator",
		Phone:        "1234567890",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	return true, nil
}

// Register creates a new user. Username and email must be unused across
// all existing users.
func (s *Store) Register(username, email, password string, role models.Role, fullName, phone, customerID string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || email == "" || password == "" || fullName == "" || phone == "" {
		return models.User{}, models.E(models.ErrValidation, "all fields are required")
	}
	if len(password) < minPasswordLen {
		return models.User{}, models.E(models.ErrValidation, "password must be at least %d characters long", minPasswordLen)
	}
	if !models.ValidRole(role) {
		return models.User{}, models.E(models.ErrValidation, "invalid role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return models.User{}, models.E(models.ErrConflict, "username already exists")
		}
		if user.Email == email {
			return models.User{}, models.E(models.ErrConflict, "email already exists")
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     fullName,
		Phone:        phone,
		IsActive:     true,
		CreatedAt:    time.Now(),
		CustomerID:   customerID,
	}
	s.users[username] = user
	return user, nil
}

// Login authenticates a user and stamps LastLogin. Unknown username,
// inactive account and password mismatch all return the same generic
// message so a caller cannot probe which one failed.
func (s *Store) Login(username, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return models.User{}, models.E(models.ErrUnauthorized, "invalid username or password")
	}
	if !user.IsActive {
		return models.User{}, models.E(models.ErrUnauthorized, "invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, models.E(models.ErrUnauthorized, "invalid username or password")
	}
	now := time.Now()
	user.LastLogin = &now
	s.users[username] = user
	return user, nil
}

// ChangePassword verifies the current password and replaces the hash.
func (s *Store) ChangePassword(username, current, next string) error {
	if len(next) < minPasswordLen {
		return models.E(models.ErrValidation, "new password must be at least %d characters long", minPasswordLen)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return models.E(models.ErrNotFound, "user %s not found", username)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.E(models.ErrUnauthorized, "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	s.users[username] = user
	return nil
}

// SetActive flips a user's active flag. The admin user cannot be
// deactivated. Returns false when nothing changed.
func (s *Store) SetActive(username string, isActive bool) bool {
	if username == AdminUsername && !isActive {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return false
	}
	user.IsActive = isActive
	s.users[username] = user
	return true
}

// Delete removes a user. The admin user is protected. Returns false when
// nothing changed.
func (s *Store) Delete(username string) bool {
	if username == AdminUsername {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return false
	}
	delete(s.users, username)
	return true
}

// LinkCustomer attaches a customer id to an existing user, giving a
// customer-role login its view of the ledger.
func (s *Store) LinkCustomer(username, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return models.E(models.ErrNotFound, "user %s not found", username)
	}
	user.CustomerID = customerID
	s.users[username] = user
	return nil
}

// ByUsername retrieves a user by login name.
func (s *Store) ByUsername(username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return models.User{}, models.E(models.ErrNotFound, "user %s not found", username)
	}
	return user, nil
}

// All retrieves every user ordered by username.
func (s *Store) All() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sortUsers(users)
	return users
}

// ByRole retrieves every user with the given role, ordered by username.
func (s *Store) ByRole(role models.Role) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []models.User
	for _, user := range s.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	sortUsers(users)
	return users
}

// Snapshot exports all users for persistence, ordered by username.
func (s *Store) Snapshot() storage.IdentityDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := storage.IdentityDocument{Users: make([]models.User, 0, len(s.users))}
	for _, user := range s.users {
		doc.Users = append(doc.Users, user)
	}
	sortUsers(doc.Users)
	return doc
}

// Restore replaces the user set with a loaded document.
func (s *Store) Restore(doc storage.IdentityDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]models.User, len(doc.Users))
	for _, user := range doc.Users {
		s.users[user.Username] = user
	}
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}
