package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/services"
	"finanzas/internal/stats"
	"finanzas/internal/validator"
)

const testUserID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"

// --- mock services ---

type mockUserService struct {
	registerFn              func(ctx context.Context, in services.RegisterInput) (*models.User, error)
	attemptLoginFn          func(ctx context.Context, email, password string) (*models.User, error)
	getUserByIDFn           func(ctx context.Context, id string) (*models.User, error)
	storeRefreshTokenHashFn func(ctx context.Context, userID, tokenHash string) error
	getRefreshTokenHashFn   func(ctx context.Context, userID string) (string, error)
	changePasswordFn        func(ctx context.Context, userID, password string) error
	requestPasswordResetFn  func(ctx context.Context, email string) error
	resetPasswordFn         func(ctx context.Context, token, password string) (string, error)
}

func (m *mockUserService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Email: in.Email}, nil
}

func (m *mockUserService) AttemptLogin(ctx context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(ctx, email, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
}

func (m *mockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(ctx, userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(ctx context.Context, userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(ctx, userID)
	}
	return "", nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID, password string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, userID, password)
	}
	return nil
}

func (m *mockUserService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.requestPasswordResetFn != nil {
		return m.requestPasswordResetFn(ctx, email)
	}
	return nil
}

func (m *mockUserService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, token, password)
	}
	return testUserID, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type mockProfileService struct {
	getProfileFn    func(ctx context.Context, userID string) (*models.UserWithProfile, error)
	updateProfileFn func(ctx context.Context, userID, firstName, lastName, phone string) (*models.UserWithProfile, error)
	isAdminFn       func(ctx context.Context, userID string) (bool, error)
}

func (m *mockProfileService) GetProfile(ctx context.Context, userID string) (*models.UserWithProfile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return &models.UserWithProfile{Profile: models.Profile{ID: userID}}, nil
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID, firstName, lastName, phone string) (*models.UserWithProfile, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, firstName, lastName, phone)
	}
	return &models.UserWithProfile{Profile: models.Profile{ID: userID, FirstName: firstName, LastName: lastName, Phone: phone}}, nil
}

func (m *mockProfileService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if m.isAdminFn != nil {
		return m.isAdminFn(ctx, userID)
	}
	return false, nil
}

var _ services.ProfileServicer = (*mockProfileService)(nil)

type mockCategoryService struct {
	createCategoryFn    func(ctx context.Context, userID, name, emoji string) (*models.Category, error)
	getUserCategoriesFn func(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getAllCategoriesFn  func(ctx context.Context, userID string) ([]models.Category, error)
	getCategoryByIDFn   func(ctx context.Context, userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(ctx context.Context, userID, categoryID string, name, emoji *string) (*models.Category, error)
	deleteCategoryFn    func(ctx context.Context, userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, userID, name, emoji string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, userID, name, emoji)
	}
	return &models.Category{UserID: userID, Name: name, Emoji: emoji}, nil
}

func (m *mockCategoryService) GetUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(ctx, userID, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 10, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetAllCategories(ctx context.Context, userID string) ([]models.Category, error) {
	if m.getAllCategoriesFn != nil {
		return m.getAllCategoriesFn(ctx, userID)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(ctx, userID, categoryID)
	}
	return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID}, nil
}

func (m *mockCategoryService) UpdateCategory(ctx context.Context, userID, categoryID string, name, emoji *string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, userID, categoryID, name, emoji)
	}
	return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID}, nil
}

func (m *mockCategoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, userID, categoryID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockTransactionService struct {
	createTransactionFn  func(ctx context.Context, userID string, in services.TransactionInput) (*models.Transaction, error)
	listTransactionsFn   func(ctx context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn func(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn  func(ctx context.Context, userID, transactionID string, in services.TransactionUpdate) (*models.Transaction, error)
	deleteTransactionFn  func(ctx context.Context, userID, transactionID string) error
	copyTransactionsFn   func(ctx context.Context, userID string, ids []string, target period.Period) (int, error)
}

func (m *mockTransactionService) CreateTransaction(ctx context.Context, userID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(ctx, userID, in)
	}
	return &models.Transaction{UserID: userID, Name: in.Name, Amount: in.Amount, Kind: in.Kind}, nil
}

func (m *mockTransactionService) ListTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 10, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(ctx, userID, transactionID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, UserID: userID}, nil
}

func (m *mockTransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(ctx, userID, transactionID, in)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, UserID: userID}, nil
}

func (m *mockTransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(ctx, userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) CopyTransactions(ctx context.Context, userID string, ids []string, target period.Period) (int, error) {
	if m.copyTransactionsFn != nil {
		return m.copyTransactionsFn(ctx, userID, ids, target)
	}
	return len(ids), nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockStatsService struct {
	getDashboardStatsFn func(ctx context.Context, ownerID string, p period.Period) (*stats.DashboardStats, error)
}

func (m *mockStatsService) GetDashboardStats(ctx context.Context, ownerID string, p period.Period) (*stats.DashboardStats, error) {
	if m.getDashboardStatsFn != nil {
		return m.getDashboardStatsFn(ctx, ownerID, p)
	}
	empty := stats.Empty(p)
	return &empty, nil
}

func (m *mockStatsService) InvalidateOwner(_ context.Context, _ string) {}

var _ services.StatsServicer = (*mockStatsService)(nil)

type mockAdminService struct {
	getUserStatsFn func(ctx context.Context) (*services.UserStats, error)
	listUsersFn    func(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResponse[models.UserWithProfile], error)
	createUserFn   func(ctx context.Context, in services.AdminUserInput) (*models.UserWithProfile, error)
	updateUserFn   func(ctx context.Context, userID string, in services.AdminUserUpdate) (*models.UserWithProfile, error)
	deleteUserFn   func(ctx context.Context, actorID, userID string) error
}

func (m *mockAdminService) GetUserStats(ctx context.Context) (*services.UserStats, error) {
	if m.getUserStatsFn != nil {
		return m.getUserStatsFn(ctx)
	}
	return &services.UserStats{}, nil
}

func (m *mockAdminService) ListUsers(ctx context.Context, page pagination.PageRequest, search string) (*pagination.PageResponse[models.UserWithProfile], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, page, search)
	}
	resp := pagination.NewPageResponse([]models.UserWithProfile{}, 1, 10, 0)
	return &resp, nil
}

func (m *mockAdminService) CreateUser(ctx context.Context, in services.AdminUserInput) (*models.UserWithProfile, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, in)
	}
	return &models.UserWithProfile{Profile: models.Profile{ID: testUserID, Role: in.Role, Active: in.Active}, Email: in.Email}, nil
}

func (m *mockAdminService) UpdateUser(ctx context.Context, userID string, in services.AdminUserUpdate) (*models.UserWithProfile, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, userID, in)
	}
	return &models.UserWithProfile{Profile: models.Profile{ID: userID}}, nil
}

func (m *mockAdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, actorID, userID)
	}
	return nil
}

var _ services.AdminServicer = (*mockAdminService)(nil)

type auditEntry struct {
	userID, action, resourceType, resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "")
	validator.Register()
}

func newTestTokens() *middleware.TokenManager {
	return middleware.NewTokenManager("test-secret", 15*time.Minute, time.Hour, time.Hour)
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func errorDetails(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	details, _ := errObj["details"].(map[string]interface{})
	return details
}
