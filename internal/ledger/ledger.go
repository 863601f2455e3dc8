// Package ledger hands finalized orders to the external order ledger
// service. Submission is fire-once: the caller decides whether and when to
// retry, the ledger only classifies the outcome.
package ledger

import (
	"context"
	"errors"

	"brewtab/internal/domain"
)

var (
	// ErrStockConflict means the ledger rejected the order because stock
	// moved under us. The caller must refresh its snapshot before retrying.
	ErrStockConflict = errors.New("order rejected: stock conflict")
	// ErrRejected is a permanent rejection: resubmitting the same payload
	// will not succeed.
	ErrRejected = errors.New("order rejected")
	// ErrUnavailable is a transport failure: the order may be retried as-is
	// once the service is reachable.
	ErrUnavailable = errors.New("order service unavailable")
)

// Receipt is the ledger's acknowledgement of a committed order.
type Receipt struct {
	OrderID     string `json:"order_id"`
	LedgerRef   string `json:"ledger_ref"`
	CommittedAt string `json:"committed_at"`
}

type Submitter interface {
	Submit(ctx context.Context, order *domain.FinalizedOrder) (*Receipt, error)
}
