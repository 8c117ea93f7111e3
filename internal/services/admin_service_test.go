package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/testutil"
)

func newTestAdminService(db *gorm.DB) (*adminService, StatsServicer) {
	stats, _ := newTestStats(db)
	svc := NewAdminService(db, stats).(*adminService)
	svc.cost = bcrypt.MinCost
	return svc, stats
}

func TestGetUserStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestAdminService(db)
	testutil.CreateTestUser(t, db)
	testutil.CreateTestAdmin(t, db)
	inactive := testutil.CreateTestUser(t, db)
	db.Model(&models.Profile{}).Where("id = ?", inactive.ID).Update("active", false)

	got, err := svc.GetUserStats(context.Background())
	testutil.AssertNoError(t, err)
	if got.Total != 3 || got.Inactive != 1 {
		t.Errorf("expected 3 total and 1 inactive, got %+v", got)
	}
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed_page_size", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestAdminService(db)
		for i := 0; i < 12; i++ {
			testutil.CreateTestUser(t, db)
		}

		page, err := svc.ListUsers(ctx, pagination.PageRequest{Page: 2, PageSize: 50}, "")
		testutil.AssertNoError(t, err)
		if page.PageSize != AdminPageSize || len(page.Data) != 2 || page.TotalItems != 12 {
			t.Errorf("expected 2 rows of 12 on page 2, got %d of %d", len(page.Data), page.TotalItems)
		}
		if page.Data[0].Email == "" {
			t.Error("expected email joined")
		}
	})

	t.Run("search", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestAdminService(db)
		byEmail := testutil.CreateTestUserWithEmail(t, db, "maria.lopez@example.com")
		byName := testutil.CreateTestUser(t, db)
		db.Model(&models.Profile{}).Where("id = ?", byName.ID).Update("first_name", "Marisol")
		testutil.CreateTestUser(t, db)

		page, err := svc.ListUsers(ctx, pagination.PageRequest{}, "MARI")
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Fatalf("expected 2 matches, got %d", page.TotalItems)
		}
		ids := map[string]bool{page.Data[0].ID: true, page.Data[1].ID: true}
		if !ids[byEmail.ID] || !ids[byName.ID] {
			t.Errorf("unexpected matches %v", ids)
		}
	})
}

func TestAdminCreateUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestAdminService(db)

	got, err := svc.CreateUser(ctx, AdminUserInput{
		Email:     "Nuevo@Example.com",
		Password:  "password123",
		FirstName: "Nuevo",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
		Active:    false,
	})
	testutil.AssertNoError(t, err)
	if got.Email != "nuevo@example.com" || got.Role != models.RoleAdmin || got.Active {
		t.Errorf("unexpected user %+v", got)
	}

	_, err = svc.CreateUser(ctx, AdminUserInput{
		Email: "nuevo@example.com", Password: "password123", FirstName: "Otro", LastName: "Usuario",
	})
	testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")

	_, err = svc.CreateUser(ctx, AdminUserInput{
		Email: "x@example.com", Password: "password123", FirstName: "Otro", LastName: "Usuario", Role: "root",
	})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestAdminUpdateUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestAdminService(db)
	user := testutil.CreateTestUser(t, db)

	inactive := false
	role := models.RoleAdmin
	got, err := svc.UpdateUser(ctx, user.ID, AdminUserUpdate{Active: &inactive, Role: &role})
	testutil.AssertNoError(t, err)
	if got.Active || got.Role != models.RoleAdmin {
		t.Errorf("expected inactive admin, got %+v", got.Profile)
	}
	if got.FirstName != "Test" {
		t.Errorf("expected name untouched, got %s", got.FirstName)
	}

	_, err = svc.UpdateUser(ctx, "00000000-0000-7000-8000-000000000000", AdminUserUpdate{Active: &inactive})
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestAdminDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestAdminService(db)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "10", testutil.WithCategory(cat.ID))
		keep := testutil.CreateTestTransaction(t, db, admin.ID, models.TransactionKindExpense, "10")

		testutil.AssertNoError(t, svc.DeleteUser(ctx, admin.ID, user.ID))

		for table, query := range map[string]*gorm.DB{
			"users":        db.Model(&models.User{}).Where("id = ?", user.ID),
			"profiles":     db.Model(&models.Profile{}).Where("id = ?", user.ID),
			"categories":   db.Model(&models.Category{}).Where("user_id = ?", user.ID),
			"transactions": db.Model(&models.Transaction{}).Where("user_id = ?", user.ID),
		} {
			var count int64
			query.Count(&count)
			if count != 0 {
				t.Errorf("expected %s rows deleted, got %d", table, count)
			}
		}

		var count int64
		db.Model(&models.Transaction{}).Where("id = ?", keep.ID).Count(&count)
		if count != 1 {
			t.Error("other users' rows must survive")
		}
	})

	t.Run("self", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestAdminService(db)
		admin := testutil.CreateTestAdmin(t, db)

		err := svc.DeleteUser(ctx, admin.ID, admin.ID)
		testutil.AssertAppError(t, err, "CANNOT_DELETE_SELF")
	})

	t.Run("unknown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestAdminService(db)
		admin := testutil.CreateTestAdmin(t, db)

		err := svc.DeleteUser(ctx, admin.ID, "00000000-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("invalidates_dashboard", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, store := newTestStats(db)
		svc := NewAdminService(db, stats)
		admin := testutil.CreateTestAdmin(t, db)
		user := testutil.CreateTestUser(t, db)
		warmCache(t, stats, user.ID, period.Period{Year: 2024, Month: time.March})

		testutil.AssertNoError(t, svc.DeleteUser(ctx, admin.ID, user.ID))
		if store.Len() != 0 {
			t.Errorf("expected cache invalidated, got %d entries", store.Len())
		}
	})
}
