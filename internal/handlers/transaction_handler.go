package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	loc                *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. loc resolves
// bare YYYY-MM-DD dates.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, loc: loc}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Name       string                 `json:"name" binding:"required,min=2,max=255"`
	Amount     decimal.Decimal        `json:"amount" swaggertype:"string" binding:"positive_amount"`
	Kind       models.TransactionKind `json:"kind" binding:"required,transaction_kind"`
	CategoryID *string                `json:"category_id" binding:"omitempty,uuid"`
	Date       *string                `json:"date"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// clear_category detaches the transaction from its category.
type UpdateTransactionRequest struct {
	Name          *string                 `json:"name" binding:"omitempty,min=2,max=255"`
	Amount        *decimal.Decimal        `json:"amount" swaggertype:"string" binding:"omitempty,positive_amount"`
	Kind          *models.TransactionKind `json:"kind" binding:"omitempty,transaction_kind"`
	CategoryID    *string                 `json:"category_id" binding:"omitempty,uuid"`
	ClearCategory bool                    `json:"clear_category"`
	Date          *string                 `json:"date"`
}

// ListTransactionsQuery holds the non-pagination list filters.
type ListTransactionsQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Category string `form:"category" binding:"omitempty,category_filter"`
}

// CopyTransactionsRequest copies transactions into another month.
type CopyTransactionsRequest struct {
	IDs   []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
	Year  int      `json:"year" binding:"required,min=1970,max=9999"`
	Month int      `json:"month" binding:"required,min=1,max=12"`
}

// CopyTransactionsResponse reports how many copies were created.
type CopyTransactionsResponse struct {
	Copied int `json:"copied"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income (ingreso), expense (gasto) or savings (ahorro) movement
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.TransactionInput{
		Name:       req.Name,
		Amount:     req.Amount,
		Kind:       req.Kind,
		CategoryID: req.CategoryID,
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDate(*req.Date, h.loc)
		if err != nil {
			respondWithError(c, err)
			return
		}
		in.Date = &date
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"kind": transaction.Kind, "amount": transaction.Amount.String(), "category_id": transaction.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions lists the user's transactions
// @Summary     List transactions
// @Description Paginated list of transactions, newest first, with optional month, name search and category filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 10, max 100)"
// @Param       year      query int    false "Year of the month filter (requires month)"
// @Param       month     query int    false "Month 1-12 (requires year)"
// @Param       search    query string false "Case-insensitive substring of the name"
// @Param       category  query string false "all, none or a category id"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	p, err := parsePeriodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), userID, page, services.TransactionFilter{
		Period:   p,
		Search:   query.Search,
		Category: query.Category,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Partial update. Omitted fields are left unchanged.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.TransactionUpdate{
		Name:          req.Name,
		Amount:        req.Amount,
		Kind:          req.Kind,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDate(*req.Date, h.loc)
		if err != nil {
			respondWithError(c, err)
			return
		}
		in.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, transactionID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateTransaction, "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"kind": transaction.Kind, "amount": transaction.Amount.String(), "category_id": transaction.CategoryID})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// CopyTransactions copies transactions into another month
// @Summary     Copy transactions to a month
// @Description Duplicate the given transactions into the target month, keeping the day of month (clamped to the month's length) at 12:00. Ids the user does not own are skipped.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CopyTransactionsRequest true "Ids and target month"
// @Success     200 {object} CopyTransactionsResponse "Number of copies created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions/copy [post]
func (h *TransactionHandler) CopyTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CopyTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	target, err := period.New(req.Year, time.Month(req.Month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	n, err := h.transactionService.CopyTransactions(c.Request.Context(), userID, req.IDs, target)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCopyTransactions, "transaction", "", c.ClientIP(),
		map[string]interface{}{"ids": req.IDs, "target": target.String(), "copied": n})

	c.JSON(http.StatusOK, CopyTransactionsResponse{Copied: n})
}
