package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"finanzas/internal/cache"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/notify"
	"finanzas/internal/services"
	"finanzas/internal/testutil"
	"finanzas/internal/validator"
)

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Cache  *cache.MemoryStore
}

var bogota = func() *time.Location {
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		panic(err)
	}
	return loc
}()

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	tokens := middleware.NewTokenManager("integration-secret", 15*time.Minute, time.Hour, time.Hour)
	store := cache.NewMemoryStore()

	statsService := services.NewStatsService(db, services.StatsOptions{
		Cache:    store,
		CacheTTL: time.Minute,
		Location: bogota,
		Locale:   "es",
	})

	router := NewRouter(Deps{
		Users: services.NewUserService(db, services.UserServiceOptions{
			Tokens:           tokens,
			Publisher:        notify.NewLogPublisher(logger.Named("mail")),
			ResetPasswordURL: "http://localhost:3000/auth/reset",
			BcryptCost:       bcrypt.MinCost,
		}),
		Profiles:     services.NewProfileService(db),
		Categories:   services.NewCategoryService(db, statsService),
		Transactions: services.NewTransactionService(db, statsService, bogota),
		Stats:        statsService,
		Admin:        services.NewAdminService(db, statsService),
		Audit:        services.NewAuditService(db),
		Tokens:       tokens,
		Location:     bogota,
	})

	return &testApp{DB: db, Router: router, Cache: store}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User","phone":"3001234567"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createTransaction posts a transaction and returns its id.
func (app *testApp) createTransaction(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
	return tx["id"].(string)
}
