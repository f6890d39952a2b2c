// Package seed loads the demo catalogue, customers, expenses and sales
// through the regular ledger services so every invariant holds from the start.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/sales"
)

// ProductCreator books products with their opening stock.
type ProductCreator interface {
	CreateProduct(ctx context.Context, input inventory.CreateProductInput) (inventory.Product, error)
}

// CustomerStore creates and lists customers.
type CustomerStore interface {
	Create(ctx context.Context, in customers.Input) (customers.Customer, error)
	Search(ctx context.Context, query string) ([]customers.Customer, error)
}

// ExpenseCreator records expenses.
type ExpenseCreator interface {
	Create(ctx context.Context, in expenses.Input) (expenses.Expense, error)
}

// SaleCreator books sales.
type SaleCreator interface {
	CreateSale(ctx context.Context, input sales.CreateSaleInput) (sales.Sale, error)
}

// Loader seeds an empty store. Each section is skipped when its table already has rows.
type Loader struct {
	conn      *sqlx.DB
	products  ProductCreator
	customers CustomerStore
	expenses  ExpenseCreator
	sales     SaleCreator
	logger    *slog.Logger
	now       func() time.Time
}

// Result counts what Load created.
type Result struct {
	Products  int `json:"products"`
	Customers int `json:"customers"`
	Expenses  int `json:"expenses"`
	Sales     int `json:"sales"`
}

// NewLoader wires a Loader. conn is only read to check for existing rows.
func NewLoader(conn *sqlx.DB, products ProductCreator, custs CustomerStore, exps ExpenseCreator, sls SaleCreator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		conn:      conn,
		products:  products,
		customers: custs,
		expenses:  exps,
		sales:     sls,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock used for relative expense and sale dates.
func (l *Loader) WithNow(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

var demoProducts = []inventory.CreateProductInput{
	product("Premium Oak Door", "doors", "Solid oak door with matte finish and sound insulation.", 38000, 34000, 8, 2),
	product("Stainless Steel Handle Set", "hardware", "Pair of heavy-duty stainless steel handles with screws.", 5200, 4600, 25, 5),
	product("Sliding Wardrobe Kit", "wardrobe", "Complete kit with rails, rollers and soft-close accessories.", 18500, 16500, 12, 3),
	product("Kitchen Cabinet Hinge", "kitchen", "Soft-close concealed hinge for modular kitchen cabinets.", 650, 520, 60, 10),
}

var demoCustomers = []customers.Input{
	{Name: "Al-Noor Builders", Phone: "+92-321-5556677", Address: "Plot 17, Industrial Area", City: "Karachi"},
	{Name: "Sara Home Interiors", Phone: "+92-333-7788990", Address: "26-B, Commercial Market", City: "Lahore"},
	{Name: "Bright Future Developers", Phone: "+92-345-1122334", Address: "Suite 5, Business Avenue", City: "Islamabad"},
}

type demoExpense struct {
	category    string
	amount      int64
	description string
	daysAgo     int
}

var demoExpenses = []demoExpense{
	{"Logistics", 7500, "Freight charges for incoming stock", 4},
	{"Utilities", 4200, "Monthly electricity bill for showroom", 2},
	{"Staff", 15000, "Carpenter contract services", 6},
}

func product(name, category, description string, retail, wholesale, stock, minStock int64) inventory.CreateProductInput {
	return inventory.CreateProductInput{
		ProductInput: inventory.ProductInput{
			Name:           name,
			Category:       category,
			Description:    description,
			RetailPrice:    decimal.NewFromInt(retail),
			WholesalePrice: decimal.NewNullDecimal(decimal.NewFromInt(wholesale)),
			MinStockLevel:  &minStock,
		},
		InitialStock: stock,
	}
}

// Load creates whatever demo data is missing.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	var res Result
	now := l.now()

	seeded := make([]inventory.Product, 0, len(demoProducts))
	n, err := l.count(ctx, "products")
	if err != nil {
		return res, err
	}
	if n == 0 {
		for _, in := range demoProducts {
			p, err := l.products.CreateProduct(ctx, in)
			if err != nil {
				return res, fmt.Errorf("seed product %q: %w", in.Name, err)
			}
			seeded = append(seeded, p)
		}
		res.Products = len(seeded)
	}

	var buyers []customers.Customer
	if n, err = l.count(ctx, "customers"); err != nil {
		return res, err
	}
	if n == 0 {
		for _, in := range demoCustomers {
			c, err := l.customers.Create(ctx, in)
			if err != nil {
				return res, fmt.Errorf("seed customer %q: %w", in.Name, err)
			}
			buyers = append(buyers, c)
		}
		res.Customers = len(buyers)
	} else {
		existing, err := l.customers.Search(ctx, "")
		if err != nil {
			return res, err
		}
		buyers = existing
	}

	if n, err = l.count(ctx, "expenses"); err != nil {
		return res, err
	}
	if n == 0 {
		for _, e := range demoExpenses {
			_, err := l.expenses.Create(ctx, expenses.Input{
				Category:    e.category,
				Amount:      decimal.NewFromInt(e.amount),
				Description: e.description,
				ExpenseDate: now.AddDate(0, 0, -e.daysAgo),
			})
			if err != nil {
				return res, fmt.Errorf("seed expense %q: %w", e.description, err)
			}
			res.Expenses++
		}
	}

	if n, err = l.count(ctx, "sales"); err != nil {
		return res, err
	}
	if n == 0 && len(seeded) >= 3 && len(buyers) >= 2 {
		created, err := l.loadSales(ctx, now, seeded, buyers[0].ID, buyers[1].ID)
		res.Sales = created
		if err != nil {
			return res, err
		}
	}

	l.logger.Info("demo data loaded",
		slog.Int("products", res.Products),
		slog.Int("customers", res.Customers),
		slog.Int("expenses", res.Expenses),
		slog.Int("sales", res.Sales))
	return res, nil
}

func (l *Loader) loadSales(ctx context.Context, now time.Time, p []inventory.Product, first, second int64) (int, error) {
	cashTotal := p[0].RetailPrice.Add(p[1].RetailPrice.Mul(decimal.NewFromInt(2)))
	batch := []sales.CreateSaleInput{
		{
			InvoiceNumber: "INV-1001",
			CustomerID:    &first,
			PaymentMethod: "cash",
			SaleDate:      now,
			Notes:         "Walk-in customer purchased door set and handles.",
			Items: []sales.ItemInput{
				{ProductID: p[0].ID, Quantity: 1, UnitPrice: p[0].RetailPrice},
				{ProductID: p[1].ID, Quantity: 2, UnitPrice: p[1].RetailPrice},
			},
			Payments: []sales.InitialPayment{{Amount: cashTotal, PaymentMethod: "cash", Notes: "Paid in full at counter"}},
		},
		{
			InvoiceNumber: "INV-1002",
			CustomerID:    &second,
			PaymentMethod: sales.MethodCredit,
			SaleDate:      now.AddDate(0, 0, -1),
			Notes:         "Project supply with partial advance.",
			Items: []sales.ItemInput{
				{ProductID: p[2].ID, Quantity: 1, UnitPrice: p[2].RetailPrice},
				{ProductID: p[3].ID, Quantity: 10, UnitPrice: p[3].RetailPrice},
			},
			Payments: []sales.InitialPayment{{
				Amount:        p[2].RetailPrice.Mul(decimal.RequireFromString("0.4")),
				PaymentMethod: "upi",
				Notes:         "Advance transfer received",
			}},
		},
	}
	for i, in := range batch {
		if _, err := l.sales.CreateSale(ctx, in); err != nil {
			return i, fmt.Errorf("seed sale %s: %w", in.InvoiceNumber, err)
		}
	}
	return len(batch), nil
}

func (l *Loader) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := l.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("seed: count %s: %w", table, err)
	}
	return n, nil
}
