package models

import "github.com/shopspring/decimal"

// TransactionKind classifies a transaction's effect on the balance.
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "ingreso"
	TransactionKindExpense TransactionKind = "gasto"
	TransactionKindSavings TransactionKind = "ahorro"
)

// TransactionKinds lists the kinds in dashboard display order.
var TransactionKinds = []TransactionKind{
	TransactionKindIncome,
	TransactionKindExpense,
	TransactionKindSavings,
}

// Valid reports whether k is one of the supported kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindIncome, TransactionKindExpense, TransactionKindSavings:
		return true
	}
	return false
}

// Transaction is a single income, expense or savings movement. CreatedAt
// doubles as the transaction date for period filtering.
type Transaction struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID *string         `gorm:"type:uuid;index" json:"category_id"`
	Name       string          `gorm:"not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Kind       TransactionKind `gorm:"not null" json:"kind"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
