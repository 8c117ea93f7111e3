package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Emoji string `json:"emoji" binding:"required,emoji"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
	Emoji *string `json:"emoji" binding:"omitempty,emoji"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new transaction category. Names need not be unique.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, req.Name, req.Emoji)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateCategory, "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "emoji": category.Emoji})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetUserCategories lists the user's categories
// @Summary     List categories
// @Description Paginated list of categories, newest first. With all=true every category is returned sorted by name.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       all       query bool false "Return every category without pagination"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 10, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) GetUserCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if c.Query("all") == "true" {
		categories, err := h.categoryService.GetAllCategories(c.Request.Context(), userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.categoryService.GetUserCategories(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryByID returns one category
// @Summary     Get category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory changes a category's name or emoji
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, req.Name, req.Emoji)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateCategory, "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "emoji": category.Emoji})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category. Its transactions become uncategorised.
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteCategory, "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
