package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/stats"
)

// RegisterInput carries the fields of a self-service registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserServicer defines the contract for identity and credential logic.
type UserServicer interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID string) (string, error)
	ChangePassword(ctx context.Context, userID, password string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (string, error)
}

// ProfileServicer defines the contract for a user's own profile.
type ProfileServicer interface {
	GetProfile(ctx context.Context, userID string) (*models.UserWithProfile, error)
	UpdateProfile(ctx context.Context, userID, firstName, lastName, phone string) (*models.UserWithProfile, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// UserStats summarises the user roster.
type UserStats struct {
	Total    int64 `json:"total"`
	Inactive int64 `json:"inactive"`
}

// AdminUserInput carries the fields an admin sets when creating a user.
type AdminUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      models.Role
	Active    bool
}

// AdminUserUpdate carries the profile fields an admin may change. Nil
// fields are left untouched.
type AdminUserUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Role      *models.Role
	Active    *bool
}

// AdminServicer defines the contract for roster management.
type AdminServicer interface {
	GetUserStats(ctx context.Context) (*UserStats, error)
	ListUsers(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResponse[models.UserWithProfile], error)
	CreateUser(ctx context.Context, in AdminUserInput) (*models.UserWithProfile, error)
	UpdateUser(ctx context.Context, userID string, in AdminUserUpdate) (*models.UserWithProfile, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name, emoji string) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetAllCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, name, emoji *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// Category filter sentinels for TransactionFilter.Category.
const (
	CategoryFilterAll  = "all"
	CategoryFilterNone = "none"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Period *period.Period
	// Search is a case-insensitive substring of the name.
	Search string
	// Category is "", "all", "none" or a category id.
	Category string
}

// TransactionInput carries the fields of a new transaction. A nil Date
// means now.
type TransactionInput struct {
	Name       string
	Amount     decimal.Decimal
	Kind       models.TransactionKind
	CategoryID *string
	Date       *time.Time
}

// TransactionUpdate carries a partial update. ClearCategory detaches the
// transaction from its category.
type TransactionUpdate struct {
	Name          *string
	Amount        *decimal.Decimal
	Kind          *models.TransactionKind
	CategoryID    *string
	ClearCategory bool
	Date          *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	CopyTransactions(ctx context.Context, userID string, ids []string, target period.Period) (int, error)
}

// StatsInvalidator drops cached dashboards after a write.
type StatsInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string)
}

// StatsServicer defines the contract for dashboard statistics.
type StatsServicer interface {
	StatsInvalidator
	// GetDashboardStats computes the statistics of p. A zero p means the
	// current month in the configured location.
	GetDashboardStats(ctx context.Context, ownerID string, p period.Period) (*stats.DashboardStats, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
