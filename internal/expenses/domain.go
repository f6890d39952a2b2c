package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categories suggested for expenses. Other labels are accepted as free text.
var Categories = []string{"Rent", "Utilities", "Transport", "Salary", "Maintenance", "Miscellaneous"}

// Expense is money spent outside the sales ledger.
type Expense struct {
	ID          int64           `db:"id" json:"id"`
	Category    string          `db:"category" json:"category"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description *string         `db:"description" json:"description"`
	ExpenseDate time.Time       `db:"expense_date" json:"expense_date"`
}

// Input carries expense fields for create and update.
type Input struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description" validate:"max=1000"`
	ExpenseDate time.Time       `json:"expense_date"`
}
