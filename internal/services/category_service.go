package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/validator"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db    *gorm.DB
	stats StatsInvalidator
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, stats StatsInvalidator) CategoryServicer {
	return &categoryService{db: db, stats: stats}
}

func validateCategory(name, emoji string) (string, error) {
	name, ok := validName(name)
	if !ok {
		return "", apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{"name": "must be at least 2 characters"})
	}
	if !validator.IsEmoji(emoji) {
		return "", apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{"emoji": "must be a single emoji"})
	}
	return name, nil
}

// CreateCategory creates a new category. Names need not be unique.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name, emoji string) (*models.Category, error) {
	name, err := validateCategory(name, emoji)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Emoji:  emoji,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, storeError("create category", err)
	}

	s.stats.InvalidateOwner(ctx, userID)
	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user, newest first.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError("count categories", err)
	}

	var categories []models.Category
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, storeError("list categories", err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAllCategories returns every category of the user ordered by name, for pickers.
func (s *categoryService) GetAllCategories(ctx context.Context, userID string) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC, id ASC").
		Find(&categories).Error; err != nil {
		return nil, storeError("list all categories", err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, storeError("get category", err)
	}
	return &category, nil
}

// UpdateCategory changes the name and/or emoji of a category.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID string, name, emoji *string) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	newName, newEmoji := category.Name, category.Emoji
	if name != nil {
		newName = *name
	}
	if emoji != nil {
		newEmoji = *emoji
	}
	newName, err = validateCategory(newName, newEmoji)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(category).Updates(map[string]interface{}{
		"name":  newName,
		"emoji": newEmoji,
	}).Error; err != nil {
		return nil, storeError("update category", err)
	}
	category.Name, category.Emoji = newName, newEmoji

	s.stats.InvalidateOwner(ctx, userID)
	return category, nil
}

// DeleteCategory detaches the category from the owner's transactions and
// deletes it in one database transaction.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&category).Error
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrCategoryNotFound
		}
		return storeError("delete category", err)
	}

	s.stats.InvalidateOwner(ctx, userID)
	return nil
}
