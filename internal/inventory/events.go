package inventory

import "context"

// ChangeNotifier is told after a stock-affecting transaction commits.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// Ledger change sources emitted by this package.
const (
	SourceProduct  = "inventory.product"
	SourceAdjust   = "inventory.adjust"
	SourceSnapshot = "inventory.snapshot"
)
