package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/models"
	"finanzas/internal/notify"
)

const (
	// MaxFailedLogins is the number of consecutive failures that locks an account.
	MaxFailedLogins = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute

	minPasswordLength = 6
)

// ResetTokens issues and validates password reset tokens.
type ResetTokens interface {
	GenerateResetToken(user *models.User) (string, error)
	ValidateResetToken(token string) (*middleware.JWTClaims, error)
}

// UserServiceOptions wires the collaborators of the user service.
type UserServiceOptions struct {
	Tokens           ResetTokens
	Publisher        notify.Publisher
	ResetPasswordURL string
	BcryptCost       int
}

// userService handles user-related business logic.
type userService struct {
	db        *gorm.DB
	tokens    ResetTokens
	publisher notify.Publisher
	resetURL  string
	cost      int
	now       func() time.Time
	log       *zap.SugaredLogger
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, opts UserServiceOptions) UserServicer {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		db:        db,
		tokens:    opts.Tokens,
		publisher: opts.Publisher,
		resetURL:  opts.ResetPasswordURL,
		cost:      cost,
		now:       time.Now,
		log:       logger.Named("users"),
	}
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalidField("password", "must be at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hashed), nil
}

// createUserWithProfile inserts a user and its profile in one transaction.
func createUserWithProfile(ctx context.Context, db *gorm.DB, user *models.User, profile *models.Profile) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.ID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return apperrors.ErrDuplicateEmail
		}
		return storeError("create user", err)
	}
	return nil
}

// Register creates a user with an active profile and queues a welcome email.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, invalidField("email", "is required")
	}
	hashed, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Password: hashed}
	profile := &models.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      models.RoleUser,
		Active:    true,
	}
	if err := createUserWithProfile(ctx, s.db, user, profile); err != nil {
		return nil, err
	}

	if job, err := notify.WelcomeEmail(user.Email, profile.FirstName); err != nil {
		s.log.Errorw("failed to render welcome email", "error", err, "user_id", user.ID)
	} else if err := s.publisher.PublishEmail(ctx, job); err != nil {
		s.log.Errorw("failed to queue welcome email", "error", err, "user_id", user.ID)
	}

	return user, nil
}

// AttemptLogin checks credentials with lockout: MaxFailedLogins consecutive
// failures lock the account for LockoutDuration. Inactive profiles are
// rejected after the password check.
func (s *userService) AttemptLogin(ctx context.Context, email, password string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, storeError("find user", err)
	}

	now := s.now().UTC()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		locked, err := recordFailedLogin(db, user.ID, now)
		if err != nil {
			return nil, storeError("record failed login", err)
		}
		if locked {
			s.log.Warnw("account locked after failed logins", "user_id", user.ID)
			return nil, apperrors.ErrAccountLocked
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	var profile models.Profile
	err := db.Where("id = ?", user.ID).First(&profile).Error
	switch {
	case err == nil:
		if !profile.Active {
			return nil, apperrors.ErrAccountInactive
		}
	case !isNotFound(err):
		return nil, storeError("load profile", err)
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, storeError("record login", err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return &user, nil
}

// recordFailedLogin increments the failure counter in the database, so
// parallel attempts are all counted, and locks the account once the counter
// reaches MaxFailedLogins.
func recordFailedLogin(db *gorm.DB, userID string, now time.Time) (bool, error) {
	locked := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error; err != nil {
			return err
		}
		var current models.User
		if err := tx.Select("id", "failed_login_attempts").Where("id = ?", userID).Take(&current).Error; err != nil {
			return err
		}
		if current.FailedLoginAttempts < MaxFailedLogins {
			return nil
		}
		locked = true
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          now.Add(LockoutDuration),
		}).Error
	})
	return locked, err
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	return &user, nil
}

// StoreRefreshTokenHash replaces the user's refresh token hash. An empty
// hash logs the user out everywhere.
func (s *userService) StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return storeError("store refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(ctx context.Context, userID string) (string, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// ChangePassword sets a new password and revokes the refresh token.
func (s *userService) ChangePassword(ctx context.Context, userID, password string) error {
	hashed, err := hashPassword(password, s.cost)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":              hashed,
			"refresh_token_hash":    "",
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	if res.Error != nil {
		return storeError("change password", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// RequestPasswordReset queues a reset email when the address belongs to a
// user. Unknown addresses succeed silently.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil
		}
		return storeError("find user", err)
	}

	var profile models.Profile
	name := ""
	if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&profile).Error; err == nil {
		name = profile.FirstName
	}

	token, err := s.tokens.GenerateResetToken(&user)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	job, err := notify.ResetPasswordEmail(user.Email, name, s.resetURL, token)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.publisher.PublishEmail(ctx, job); err != nil {
		s.log.Errorw("failed to queue reset email", "error", err, "user_id", user.ID)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ResetPassword sets a new password from a reset token and returns the
// user's ID. A token stops working once the password it was issued against
// changes.
func (s *userService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	claims, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	user, err := s.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if err == apperrors.ErrUserNotFound {
			return "", apperrors.ErrInvalidToken
		}
		return "", err
	}
	if middleware.PasswordFingerprint(user.Password) != claims.Fingerprint {
		return "", apperrors.ErrInvalidToken
	}

	if err := s.ChangePassword(ctx, user.ID, password); err != nil {
		return "", err
	}
	return user.ID, nil
}
