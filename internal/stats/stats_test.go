package stats

import (
	"testing"
	"time"

	"finanzas/internal/models"
	"finanzas/internal/period"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = period.Period{Year: 2024, Month: time.March}

func strPtr(s string) *string { return &s }

func tx(kind models.TransactionKind, amount string, day int, cat *models.Category) models.Transaction {
	t := models.Transaction{
		Name:   "tx",
		Amount: decimal.RequireFromString(amount),
		Kind:   kind,
	}
	t.CreatedAt = time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
	if cat != nil {
		t.CategoryID = strPtr(cat.ID)
		t.Category = cat
	}
	return t
}

func category(id, name, emoji string) *models.Category {
	c := &models.Category{Name: name, Emoji: emoji}
	c.ID = id
	return c
}

func TestAggregateMarchScenario(t *testing.T) {
	salario := category("cat-salario", "Salario", "💼")
	comida := category("cat-comida", "Comida", "🍔")

	txs := []models.Transaction{
		tx(models.TransactionKindExpense, "50000", 3, nil),
		tx(models.TransactionKindIncome, "1000000", 5, salario),
		tx(models.TransactionKindExpense, "200000", 10, comida),
	}

	got := Aggregate(march, txs, 42, Options{Location: time.UTC, Locale: "es"})

	assert.True(t, got.Income.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, got.Expense.Equal(decimal.NewFromInt(250000)))
	assert.True(t, got.Savings.IsZero())
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(750000)))
	assert.Equal(t, int64(42), got.TotalTransactionsAllTime)

	require.Len(t, got.CategoryBreakdown, 3)
	assert.Equal(t, "Salario", got.CategoryBreakdown[0].CategoryName)
	assert.Equal(t, models.TransactionKindIncome, got.CategoryBreakdown[0].Kind)
	assert.True(t, got.CategoryBreakdown[0].Total.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, "Comida", got.CategoryBreakdown[1].CategoryName)
	assert.True(t, got.CategoryBreakdown[1].Total.Equal(decimal.NewFromInt(200000)))
	assert.Equal(t, UncategorizedName, got.CategoryBreakdown[2].CategoryName)
	assert.Equal(t, UncategorizedEmoji, got.CategoryBreakdown[2].Emoji)
	assert.Nil(t, got.CategoryBreakdown[2].CategoryID)
	assert.True(t, got.CategoryBreakdown[2].Total.Equal(decimal.NewFromInt(50000)))

	require.Len(t, got.ChartSeries, 1)
	assert.Equal(t, "Marzo", got.ChartSeries[0].Label)
	assert.True(t, got.ChartSeries[0].Income.Equal(got.Income))
	assert.True(t, got.ChartSeries[0].Expense.Equal(got.Expense))
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(march, nil, 0, Options{})

	assert.True(t, got.Income.IsZero())
	assert.True(t, got.Expense.IsZero())
	assert.True(t, got.Savings.IsZero())
	assert.True(t, got.Balance.IsZero())
	assert.NotNil(t, got.ChartSeries)
	assert.NotNil(t, got.CategoryBreakdown)
	assert.Empty(t, got.ChartSeries)
	assert.Empty(t, got.CategoryBreakdown)
	assert.Equal(t, march, got.Period)
}

func TestAggregateGroupsByIDNotName(t *testing.T) {
	a := category("cat-a", "Casa", "🏠")
	b := category("cat-b", "Casa", "🏡")

	got := Aggregate(march, []models.Transaction{
		tx(models.TransactionKindExpense, "10", 1, a),
		tx(models.TransactionKindExpense, "20", 2, b),
		tx(models.TransactionKindExpense, "5", 3, a),
	}, 3, Options{Locale: "es"})

	require.Len(t, got.CategoryBreakdown, 2)
	assert.Equal(t, "cat-b", *got.CategoryBreakdown[0].CategoryID)
	assert.Equal(t, 1, got.CategoryBreakdown[0].Count)
	assert.Equal(t, "cat-a", *got.CategoryBreakdown[1].CategoryID)
	assert.Equal(t, 2, got.CategoryBreakdown[1].Count)
	assert.True(t, got.CategoryBreakdown[1].Total.Equal(decimal.NewFromInt(15)))
}

func TestAggregateSameCategoryDifferentKinds(t *testing.T) {
	c := category("cat-x", "Banco", "🏦")

	got := Aggregate(march, []models.Transaction{
		tx(models.TransactionKindSavings, "300", 1, c),
		tx(models.TransactionKindExpense, "100", 2, c),
		tx(models.TransactionKindIncome, "50", 3, c),
	}, 3, Options{})

	require.Len(t, got.CategoryBreakdown, 3)
	assert.Equal(t, models.TransactionKindIncome, got.CategoryBreakdown[0].Kind)
	assert.Equal(t, models.TransactionKindExpense, got.CategoryBreakdown[1].Kind)
	assert.Equal(t, models.TransactionKindSavings, got.CategoryBreakdown[2].Kind)
}

func TestAggregateTiesKeepFirstSeenOrder(t *testing.T) {
	a := category("cat-a", "A", "🅰️")
	b := category("cat-b", "B", "🅱️")

	got := Aggregate(march, []models.Transaction{
		tx(models.TransactionKindExpense, "10", 1, b),
		tx(models.TransactionKindExpense, "10", 2, a),
	}, 2, Options{})

	require.Len(t, got.CategoryBreakdown, 2)
	assert.Equal(t, "B", got.CategoryBreakdown[0].CategoryName)
	assert.Equal(t, "A", got.CategoryBreakdown[1].CategoryName)
}

func TestAggregateInvariants(t *testing.T) {
	food := category("cat-food", "Comida", "🍔")
	rent := category("cat-rent", "Arriendo", "🏠")
	txs := []models.Transaction{
		tx(models.TransactionKindIncome, "1500000.50", 1, nil),
		tx(models.TransactionKindExpense, "120000.25", 2, food),
		tx(models.TransactionKindExpense, "800000", 3, rent),
		tx(models.TransactionKindExpense, "0.10", 4, nil),
		tx(models.TransactionKindSavings, "100000", 5, nil),
		tx(models.TransactionKindExpense, "0.20", 6, food),
	}

	got := Aggregate(march, txs, int64(len(txs)), Options{})

	assert.True(t, got.Balance.Equal(got.Income.Sub(got.Expense).Sub(got.Savings)))

	sums := map[models.TransactionKind]decimal.Decimal{}
	counts := 0
	for _, g := range got.CategoryBreakdown {
		sums[g.Kind] = sums[g.Kind].Add(g.Total)
		counts += g.Count
	}
	assert.True(t, sums[models.TransactionKindIncome].Equal(got.Income))
	assert.True(t, sums[models.TransactionKindExpense].Equal(got.Expense))
	assert.True(t, sums[models.TransactionKindSavings].Equal(got.Savings))
	assert.Equal(t, len(txs), counts)
	assert.Equal(t, "920000.55", got.Expense.StringFixed(2))
}

func TestAggregateChartSeriesFirstSeenOrder(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	feb := models.Transaction{Amount: decimal.NewFromInt(10), Kind: models.TransactionKindIncome}
	// 02:00 UTC on March 1st is still February in Bogota.
	feb.CreatedAt = time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC)
	mar := models.Transaction{Amount: decimal.NewFromInt(7), Kind: models.TransactionKindSavings}
	mar.CreatedAt = time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)

	got := Aggregate(march, []models.Transaction{feb, mar}, 2, Options{Location: bogota, Locale: "en"})

	require.Len(t, got.ChartSeries, 2)
	assert.Equal(t, "February", got.ChartSeries[0].Label)
	assert.Equal(t, "March", got.ChartSeries[1].Label)
	assert.True(t, got.ChartSeries[1].Savings.Equal(decimal.NewFromInt(7)))
}

func TestAggregateSkipsUnknownKind(t *testing.T) {
	got := Aggregate(march, []models.Transaction{
		tx("pago", "999", 1, nil),
		tx(models.TransactionKindIncome, "1", 2, nil),
	}, 2, Options{})

	assert.True(t, got.Income.Equal(decimal.NewFromInt(1)))
	assert.Len(t, got.CategoryBreakdown, 1)
}
