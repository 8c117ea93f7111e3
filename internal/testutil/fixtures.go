package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finanzas/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, a unique email and
// an active profile with the user role.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user and profile with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, models.RoleUser)
}

// CreateTestAdmin creates a user whose profile has the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, fmt.Sprintf("admin%d@test.com", nextID()), models.RoleAdmin)
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	profile := &models.Profile{
		ID:        user.ID,
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", nextID()),
		Phone:     "3001234567",
		Role:      role,
		Active:    true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return user
}

// CreateTestCategory creates a category for the user.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Test Category %d", nextID()))
}

// CreateTestCategoryNamed creates a category with the given name.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Emoji:  "🧾",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// TxOption customises CreateTestTransaction.
type TxOption func(*models.Transaction)

// WithCategory sets the transaction category.
func WithCategory(categoryID string) TxOption {
	return func(tx *models.Transaction) { tx.CategoryID = &categoryID }
}

// WithName sets the transaction name.
func WithName(name string) TxOption {
	return func(tx *models.Transaction) { tx.Name = name }
}

// At sets the transaction date.
func At(when time.Time) TxOption {
	return func(tx *models.Transaction) { tx.CreatedAt = when.UTC() }
}

// CreateTestTransaction creates a transaction of the given kind and amount.
// Without At the transaction is dated now.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, kind models.TransactionKind, amount string, opts ...TxOption) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID: userID,
		Name:   fmt.Sprintf("Test Transaction %d", nextID()),
		Amount: decimal.RequireFromString(amount),
		Kind:   kind,
	}
	for _, opt := range opts {
		opt(tx)
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
