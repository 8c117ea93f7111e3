package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/uuid"
)

const (
	// MaxCopyIDs bounds a single copy-to-month request.
	MaxCopyIDs = 500

	copyBatchSize = 100
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db    *gorm.DB
	stats StatsInvalidator
	loc   *time.Location
	now   func() time.Time
}

// NewTransactionService creates a new TransactionServicer. loc is the
// calendar used for period filters and copy-to-month.
func NewTransactionService(db *gorm.DB, stats StatsInvalidator, loc *time.Location) TransactionServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &transactionService{db: db, stats: stats, loc: loc, now: time.Now}
}

func invalidField(field, message string) error {
	return apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{field: message})
}

// ownedCategory checks that categoryID belongs to the user.
func (s *transactionService) ownedCategory(ctx context.Context, userID, categoryID string) error {
	if !uuid.IsValid(categoryID) {
		return invalidField("category_id", "must be a valid UUID")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error; err != nil {
		return storeError("check category", err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// CreateTransaction records a transaction. A nil Date stamps it now.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	name, ok := validName(in.Name)
	if !ok {
		return nil, invalidField("name", "must be at least 2 characters")
	}
	if !in.Amount.IsPositive() {
		return nil, invalidField("amount", "must be greater than 0")
	}
	if !in.Kind.Valid() {
		return nil, apperrors.ErrInvalidKind
	}
	if in.CategoryID != nil {
		if err := s.ownedCategory(ctx, userID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: in.CategoryID,
		Name:       name,
		Amount:     in.Amount.Round(2),
		Kind:       in.Kind,
	}
	tx.CreatedAt = s.now().UTC()
	if in.Date != nil {
		tx.CreatedAt = in.Date.UTC()
	}

	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, storeError("create transaction", err)
	}

	s.stats.InvalidateOwner(ctx, userID)
	return s.GetTransactionByID(ctx, userID, tx.ID)
}

// ListTransactions returns the owner's transactions matching filter, newest
// first. An empty owner yields an empty page.
func (s *transactionService) ListTransactions(
	ctx context.Context,
	userID string,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	if userID == "" {
		result := pagination.NewPageResponse[models.Transaction](nil, page.Page, page.PageSize, 0)
		return &result, nil
	}

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)

	if filter.Period != nil {
		start, end := filter.Period.Bounds(s.loc)
		base = base.Where("created_at BETWEEN ? AND ?", start.UTC(), end.UTC())
	}
	if filter.Search != "" {
		base = base.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}
	switch filter.Category {
	case "", CategoryFilterAll:
	case CategoryFilterNone:
		base = base.Where("category_id IS NULL")
	default:
		if !uuid.IsValid(filter.Category) {
			return nil, invalidField("category", "must be all, none or a category id")
		}
		base = base.Where("category_id = ?", filter.Category)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError("count transactions", err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, storeError("list transactions", err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&tx).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, storeError("get transaction", err)
	}
	return &tx, nil
}

// UpdateTransaction applies a partial update.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionUpdate) (*models.Transaction, error) {
	existing, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		name, ok := validName(*in.Name)
		if !ok {
			return nil, invalidField("name", "must be at least 2 characters")
		}
		updates["name"] = name
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, invalidField("amount", "must be greater than 0")
		}
		updates["amount"] = in.Amount.Round(2)
	}
	if in.Kind != nil {
		if !in.Kind.Valid() {
			return nil, apperrors.ErrInvalidKind
		}
		updates["kind"] = *in.Kind
	}
	switch {
	case in.ClearCategory:
		updates["category_id"] = nil
	case in.CategoryID != nil:
		if err := s.ownedCategory(ctx, userID, *in.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Date != nil {
		updates["created_at"] = in.Date.UTC()
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", transactionID, userID).
		Updates(updates).Error; err != nil {
		return nil, storeError("update transaction", err)
	}

	s.stats.InvalidateOwner(ctx, userID)
	return s.GetTransactionByID(ctx, userID, transactionID)
}

// DeleteTransaction removes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).
		Delete(&models.Transaction{})
	if res.Error != nil {
		return storeError("delete transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	s.stats.InvalidateOwner(ctx, userID)
	return nil
}

// CopyTransactions duplicates the owner's transactions among ids into the
// target month. Ids owned by someone else are skipped. Copies keep name,
// amount, kind and category; their date is PlaceDay of the source. The read
// and the batch insert share one database transaction.
func (s *transactionService) CopyTransactions(ctx context.Context, userID string, ids []string, target period.Period) (int, error) {
	if userID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	if len(ids) == 0 || len(ids) > MaxCopyIDs {
		return 0, invalidField("ids", "must contain between 1 and 500 ids")
	}
	ids, err := uuid.ParseAll(ids)
	if err != nil {
		return 0, invalidField("ids", "must contain valid UUIDs")
	}
	if _, err := period.New(target.Year, target.Month); err != nil {
		return 0, err
	}

	var copies []models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sources []models.Transaction
		if err := tx.Where("id IN ? AND user_id = ?", ids, userID).
			Order("created_at ASC, id ASC").
			Find(&sources).Error; err != nil {
			return err
		}
		if len(sources) == 0 {
			return nil
		}

		copies = make([]models.Transaction, 0, len(sources))
		for _, src := range sources {
			c := models.Transaction{
				UserID:     userID,
				CategoryID: src.CategoryID,
				Name:       src.Name,
				Amount:     src.Amount,
				Kind:       src.Kind,
			}
			c.CreatedAt = period.PlaceDay(src.CreatedAt, target, s.loc).UTC()
			copies = append(copies, c)
		}
		return tx.CreateInBatches(&copies, copyBatchSize).Error
	})
	if err != nil {
		return 0, storeError("copy transactions", err)
	}

	if len(copies) > 0 {
		s.stats.InvalidateOwner(ctx, userID)
	}
	return len(copies), nil
}
