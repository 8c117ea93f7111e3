package services

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/uuid"
)

// AdminPageSize is the fixed roster page size.
const AdminPageSize = 10

// adminService handles roster management for admins.
type adminService struct {
	db    *gorm.DB
	stats StatsInvalidator
	cost  int
}

// NewAdminService creates a new AdminServicer.
func NewAdminService(db *gorm.DB, stats StatsInvalidator) AdminServicer {
	return &adminService{db: db, stats: stats, cost: bcrypt.DefaultCost}
}

const rosterColumns = "profiles.*, users.email"

func (s *adminService) roster(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("profiles").
		Joins("JOIN users ON users.id = profiles.id")
}

func (s *adminService) getUser(ctx context.Context, userID string) (*models.UserWithProfile, error) {
	var row models.UserWithProfile
	if err := s.roster(ctx).Select(rosterColumns).Where("profiles.id = ?", userID).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storeError("get roster user", err)
	}
	return &row, nil
}

// GetUserStats counts all profiles and the inactive ones.
func (s *adminService) GetUserStats(ctx context.Context) (*UserStats, error) {
	var out UserStats
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Count(&out.Total).Error; err != nil {
		return nil, storeError("count users", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("active = ?", false).
		Count(&out.Inactive).Error; err != nil {
		return nil, storeError("count inactive users", err)
	}
	return &out, nil
}

// ListUsers returns the roster newest first, AdminPageSize per page. search
// matches first name, last name or email.
func (s *adminService) ListUsers(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResponse[models.UserWithProfile], error) {
	page.Defaults()
	page.PageSize = AdminPageSize

	base := s.roster(ctx)
	if search != "" {
		pattern := containsPattern(search)
		base = base.Where(
			`LOWER(profiles.first_name) LIKE ? ESCAPE '\' OR LOWER(profiles.last_name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError("count roster", err)
	}

	var rows []models.UserWithProfile
	if err := base.Select(rosterColumns).
		Order("profiles.created_at DESC, profiles.id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&rows).Error; err != nil {
		return nil, storeError("list roster", err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateUser creates a user and its profile atomically.
func (s *adminService) CreateUser(ctx context.Context, in AdminUserInput) (*models.UserWithProfile, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, invalidField("email", "is required")
	}
	first, ok := validName(in.FirstName)
	if !ok {
		return nil, invalidField("first_name", "must be at least 2 characters")
	}
	last, ok := validName(in.LastName)
	if !ok {
		return nil, invalidField("last_name", "must be at least 2 characters")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, invalidField("role", "must be one of: user, admin")
	}
	hashed, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Password: hashed}
	profile := &models.Profile{
		FirstName: first,
		LastName:  last,
		Phone:     in.Phone,
		Role:      role,
		Active:    in.Active,
	}
	if err := createUserWithProfile(ctx, s.db, user, profile); err != nil {
		return nil, err
	}
	return s.getUser(ctx, user.ID)
}

// UpdateUser changes the profile fields present in in.
func (s *adminService) UpdateUser(ctx context.Context, userID string, in AdminUserUpdate) (*models.UserWithProfile, error) {
	if !uuid.IsValid(userID) {
		return nil, apperrors.ErrUserNotFound
	}
	existing, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.FirstName != nil {
		first, ok := validName(*in.FirstName)
		if !ok {
			return nil, invalidField("first_name", "must be at least 2 characters")
		}
		updates["first_name"] = first
	}
	if in.LastName != nil {
		last, ok := validName(*in.LastName)
		if !ok {
			return nil, invalidField("last_name", "must be at least 2 characters")
		}
		updates["last_name"] = last
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, invalidField("role", "must be one of: user, admin")
		}
		updates["role"] = *in.Role
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return nil, storeError("update roster user", err)
	}
	return s.getUser(ctx, userID)
}

// DeleteUser removes a user with all their transactions, categories and
// profile in one database transaction. Admins cannot delete themselves.
func (s *adminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperrors.ErrCannotDeleteSelf
	}
	if !uuid.IsValid(userID) {
		return apperrors.ErrUserNotFound
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrUserNotFound
		}
		return storeError("delete user", err)
	}

	s.stats.InvalidateOwner(ctx, userID)
	return nil
}
