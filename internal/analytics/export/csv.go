// Package export renders report payloads as downloadable files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/shopledger/internal/analytics"
)

// WriteSummaryCSV serialises a sales summary as Metric,Value rows followed
// by the payment and category breakdowns.
func WriteSummaryCSV(w io.Writer, summary analytics.SalesSummary) error {
	writer := csv.NewWriter(w)
	records := [][]string{
		{"Metric", "Value"},
		{"From", summary.From},
		{"To", summary.To},
		{"Revenue", summary.Revenue.StringFixed(2)},
		{"Credit Sales", summary.CreditSales.StringFixed(2)},
		{"Invoices", strconv.FormatInt(summary.InvoiceCount, 10)},
		{"Payments Received", summary.NetRevenue.StringFixed(2)},
		{"Expenses", summary.TotalExpenses.StringFixed(2)},
		{"Net Profit", summary.NetProfit.StringFixed(2)},
		{},
		{"Payment Method", "Count", "Total"},
	}
	for _, m := range summary.PaymentBreakdown {
		records = append(records, []string{m.Method, strconv.FormatInt(m.Count, 10), m.Total.StringFixed(2)})
	}
	records = append(records, []string{}, []string{"Category", "Quantity", "Total"})
	for _, c := range summary.CategorySales {
		records = append(records, []string{c.Category, strconv.FormatInt(c.Quantity, 10), c.Total.StringFixed(2)})
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// WriteTopProductsCSV emits the product ranking as CSV.
func WriteTopProductsCSV(w io.Writer, rows []analytics.ProductSales) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Rank", "Product", "Category", "Quantity", "Total"}); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			row.Name,
			row.Category,
			strconv.FormatInt(row.Quantity, 10),
			row.Total.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
