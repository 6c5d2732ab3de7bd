package common

import (
	"fmt"
	"strings"

	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintHeader prints a title between two rules of the given width
func PrintHeader(title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func PrintFooter(message string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Printf("\n%s\n%s\n%s\n\n", rule, message, rule)
}

// TreePrefix returns the branch glyph for a list item and the indent for its detail lines
func TreePrefix(isLast bool) (item, detail string) {
	if isLast {
		return "└  ", "   "
	}
	return "├  ", "│  "
}

// SignedAmount renders entry as seen from accountId: credits positive, debits negative
func SignedAmount(entry models.TransactionEntry, accountId int64) string {
	if entry.FromAccountId != nil && *entry.FromAccountId == accountId {
		return "-" + models.FormatAmount(entry.Amount)
	}
	return "+" + models.FormatAmount(entry.Amount)
}

// RenderRate formats an annual percentage rate, e.g. "2.50%"
func RenderRate(rate decimal.Decimal) string {
	return rate.StringFixed(2) + "%"
}
