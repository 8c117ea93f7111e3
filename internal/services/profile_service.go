package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
)

// profileService handles the signed-in user's own profile.
type profileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB) ProfileServicer {
	return &profileService{db: db}
}

// GetProfile returns the user's profile joined with their email. A user
// without a profile row gets an active default one.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.UserWithProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}

	profile := models.Profile{ID: user.ID}
	if err := s.db.WithContext(ctx).
		Where(models.Profile{ID: user.ID}).
		Attrs(models.Profile{Role: models.RoleUser, Active: true}).
		FirstOrCreate(&profile).Error; err != nil {
		return nil, storeError("load profile", err)
	}

	return &models.UserWithProfile{Profile: profile, Email: user.Email}, nil
}

// UpdateProfile replaces the editable personal fields.
func (s *profileService) UpdateProfile(ctx context.Context, userID, firstName, lastName, phone string) (*models.UserWithProfile, error) {
	first, ok := validName(firstName)
	if !ok {
		return nil, invalidField("first_name", "must be at least 2 characters")
	}
	last, ok := validName(lastName)
	if !ok {
		return nil, invalidField("last_name", "must be at least 2 characters")
	}

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"first_name": first,
			"last_name":  last,
			"phone":      phone,
		}).Error; err != nil {
		return nil, storeError("update profile", err)
	}

	return s.GetProfile(ctx, userID)
}

// IsAdmin reads the role from the store on every call.
func (s *profileService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Select("role").Where("id = ?", userID).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, storeError("check role", err)
	}
	return profile.IsAdmin(), nil
}
