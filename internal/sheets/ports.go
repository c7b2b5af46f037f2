package sheets

import (
	"context"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
)

// TransactionAppender is the outbound port for the export worker. The
// category name travels alongside the transaction because the sheet has no
// notion of category IDs.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction, categoryName string) (rowRef string, err error)
}
