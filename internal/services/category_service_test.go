package services

import (
	"context"
	"testing"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/period"
	"finanzas/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(ctx, user.ID, "  Mercado ", "🛒")
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID")
		}
		if cat.Name != "Mercado" {
			t.Errorf("expected trimmed name Mercado, got %q", cat.Name)
		}
		if cat.UserID != user.ID {
			t.Errorf("expected owner %s, got %s", user.ID, cat.UserID)
		}
	})

	t.Run("duplicate_names_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "Comida", "🍔")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(ctx, user.ID, "Comida", "🍕")
		testutil.AssertNoError(t, err)
	})

	t.Run("short_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(ctx, user.ID, "A", "🛒")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("bad_emoji", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)

		for _, emoji := range []string{"", "ab", "🛒 x"} {
			_, err := svc.CreateCategory(ctx, user.ID, "Mercado", emoji)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})
}

func TestGetUserCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("newest_first_paginated", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)

		var last *models.Category
		for i := 0; i < 12; i++ {
			last = testutil.CreateTestCategory(t, db, user.ID)
		}

		result, err := svc.GetUserCategories(ctx, user.ID, pagination.PageRequest{Page: 1, PageSize: 10})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 12 {
			t.Errorf("expected 12 items, got %d", result.TotalItems)
		}
		if len(result.Data) != 10 {
			t.Errorf("expected 10 rows, got %d", len(result.Data))
		}
		if result.Data[0].ID != last.ID {
			t.Errorf("expected newest category first")
		}
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestCategory(t, db, other.ID)

		result, err := svc.GetUserCategories(ctx, user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected no categories, got %d", result.TotalItems)
		}
	})

	t.Run("all_sorted_by_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestCategoryNamed(t, db, user.ID, "Transporte")
		testutil.CreateTestCategoryNamed(t, db, user.ID, "Arriendo")

		all, err := svc.GetAllCategories(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if len(all) != 2 || all[0].Name != "Arriendo" {
			t.Errorf("expected Arriendo first, got %+v", all)
		}
	})
}

func TestGetCategoryByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	stats, _ := newTestStats(db)
	svc := NewCategoryService(db, stats)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID)

	t.Run("found", func(t *testing.T) {
		got, err := svc.GetCategoryByID(context.Background(), user.ID, cat.ID)
		testutil.AssertNoError(t, err)
		if got.Name != cat.Name {
			t.Errorf("expected %s, got %s", cat.Name, got.Name)
		}
	})

	t.Run("foreign", func(t *testing.T) {
		_, err := svc.GetCategoryByID(context.Background(), other.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		emoji := "🚌"
		updated, err := svc.UpdateCategory(ctx, user.ID, cat.ID, nil, &emoji)
		testutil.AssertNoError(t, err)

		if updated.Emoji != "🚌" {
			t.Errorf("expected new emoji, got %s", updated.Emoji)
		}
		if updated.Name != cat.Name {
			t.Errorf("expected name unchanged, got %s", updated.Name)
		}
	})

	t.Run("invalid_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		name := " x "
		_, err := svc.UpdateCategory(ctx, user.ID, cat.ID, &name, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalidates_dashboard", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, store := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		warmCache(t, stats, user.ID, period.Period{Year: 2024, Month: 3})
		if store.Len() != 1 {
			t.Fatalf("expected one cached dashboard, got %d", store.Len())
		}

		name := "Renamed"
		_, err := svc.UpdateCategory(ctx, user.ID, cat.ID, &name, nil)
		testutil.AssertNoError(t, err)
		if store.Len() != 0 {
			t.Errorf("expected cache invalidated, got %d entries", store.Len())
		}
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("orphans_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "50000", testutil.WithCategory(cat.ID))

		testutil.AssertNoError(t, svc.DeleteCategory(ctx, user.ID, cat.ID))

		var reloaded models.Transaction
		if err := db.First(&reloaded, "id = ?", tx.ID).Error; err != nil {
			t.Fatalf("transaction should survive category deletion: %v", err)
		}
		if reloaded.CategoryID != nil {
			t.Errorf("expected nil category, got %v", *reloaded.CategoryID)
		}

		var count int64
		db.Model(&models.Category{}).Where("id = ?", cat.ID).Count(&count)
		if count != 0 {
			t.Error("expected category to be deleted")
		}
	})

	t.Run("foreign", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		stats, _ := newTestStats(db)
		svc := NewCategoryService(db, stats)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		err := svc.DeleteCategory(ctx, other.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}
