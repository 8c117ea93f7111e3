// Package stats computes dashboard statistics from a month of transactions.
// It performs no I/O; callers load the rows and the all-time count.
package stats

import (
	"sort"
	"time"

	"finanzas/internal/models"
	"finanzas/internal/period"

	"github.com/shopspring/decimal"
)

const (
	// UncategorizedName and UncategorizedEmoji label transactions without a category.
	UncategorizedName  = "Sin categoría"
	UncategorizedEmoji = "💸"

	noCategoryKey = "none"
)

// CategoryBreakdown is the subtotal of one (kind, category) pair.
type CategoryBreakdown struct {
	CategoryID   *string                `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	Emoji        string                 `json:"emoji"`
	Kind         models.TransactionKind `json:"kind"`
	Total        decimal.Decimal        `json:"total"`
	Count        int                    `json:"count"`
}

// ChartPoint is one entry of the chart series, keyed by month label.
type ChartPoint struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}

// DashboardStats is the aggregated view of a period.
type DashboardStats struct {
	Period                   period.Period       `json:"period"`
	Income                   decimal.Decimal     `json:"income"`
	Expense                  decimal.Decimal     `json:"expense"`
	Savings                  decimal.Decimal     `json:"savings"`
	Balance                  decimal.Decimal     `json:"balance"`
	ChartSeries              []ChartPoint        `json:"chart_series"`
	CategoryBreakdown        []CategoryBreakdown `json:"category_breakdown"`
	TotalTransactionsAllTime int64               `json:"total_transactions_all_time"`
}

// Options controls how labels are rendered.
type Options struct {
	Location *time.Location
	Locale   string
}

// Empty returns all-zero statistics for p with non-nil collections.
func Empty(p period.Period) DashboardStats {
	return DashboardStats{
		Period:            p,
		Income:            decimal.Zero,
		Expense:           decimal.Zero,
		Savings:           decimal.Zero,
		Balance:           decimal.Zero,
		ChartSeries:       []ChartPoint{},
		CategoryBreakdown: []CategoryBreakdown{},
	}
}

// Aggregate folds txs into DashboardStats. Rows with an unknown kind are
// ignored. Breakdown groups are keyed by kind and category id, never by
// category name.
func Aggregate(p period.Period, txs []models.Transaction, allTime int64, opts Options) DashboardStats {
	out := Empty(p)
	out.TotalTransactionsAllTime = allTime

	groups := make(map[string]int)
	points := make(map[string]int)

	for i := range txs {
		tx := &txs[i]
		if !tx.Kind.Valid() {
			continue
		}

		label := period.Of(tx.CreatedAt, opts.Location).Label(opts.Locale)
		pi, ok := points[label]
		if !ok {
			pi = len(out.ChartSeries)
			points[label] = pi
			out.ChartSeries = append(out.ChartSeries, ChartPoint{
				Label:   label,
				Income:  decimal.Zero,
				Expense: decimal.Zero,
				Savings: decimal.Zero,
			})
		}
		point := &out.ChartSeries[pi]

		switch tx.Kind {
		case models.TransactionKindIncome:
			out.Income = out.Income.Add(tx.Amount)
			point.Income = point.Income.Add(tx.Amount)
		case models.TransactionKindExpense:
			out.Expense = out.Expense.Add(tx.Amount)
			point.Expense = point.Expense.Add(tx.Amount)
		case models.TransactionKindSavings:
			out.Savings = out.Savings.Add(tx.Amount)
			point.Savings = point.Savings.Add(tx.Amount)
		}

		key := groupKey(tx)
		gi, ok := groups[key]
		if !ok {
			gi = len(out.CategoryBreakdown)
			groups[key] = gi
			out.CategoryBreakdown = append(out.CategoryBreakdown, newGroup(tx))
		}
		group := &out.CategoryBreakdown[gi]
		group.Total = group.Total.Add(tx.Amount)
		group.Count++
	}

	out.Balance = out.Income.Sub(out.Expense).Sub(out.Savings)

	sort.SliceStable(out.CategoryBreakdown, func(i, j int) bool {
		a, b := out.CategoryBreakdown[i], out.CategoryBreakdown[j]
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		return a.Total.GreaterThan(b.Total)
	})

	return out
}

func groupKey(tx *models.Transaction) string {
	if tx.CategoryID == nil || *tx.CategoryID == "" {
		return string(tx.Kind) + ":" + noCategoryKey
	}
	return string(tx.Kind) + ":" + *tx.CategoryID
}

func newGroup(tx *models.Transaction) CategoryBreakdown {
	g := CategoryBreakdown{
		CategoryName: UncategorizedName,
		Emoji:        UncategorizedEmoji,
		Kind:         tx.Kind,
		Total:        decimal.Zero,
	}
	if tx.CategoryID == nil || *tx.CategoryID == "" {
		return g
	}
	id := *tx.CategoryID
	g.CategoryID = &id
	if tx.Category != nil {
		g.CategoryName = tx.Category.Name
		g.Emoji = tx.Category.Emoji
	}
	return g
}

func kindRank(k models.TransactionKind) int {
	for i, kind := range models.TransactionKinds {
		if kind == k {
			return i
		}
	}
	return len(models.TransactionKinds)
}
