package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brewtab/internal/domain"
)

// MemorySubmitter records submitted orders in memory. It backs local
// development and tests, with an injectable failure for exercising the
// rejection paths.
type MemorySubmitter struct {
	mu      sync.Mutex
	orders  map[string]*domain.FinalizedOrder
	nextErr error
	seq     int
}

func NewMemorySubmitter() *MemorySubmitter {
	return &MemorySubmitter{orders: make(map[string]*domain.FinalizedOrder)}
}

// FailNext makes the next Submit return err instead of committing.
func (s *MemorySubmitter) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr = err
}

func (s *MemorySubmitter) Submit(ctx context.Context, order *domain.FinalizedOrder) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextErr != nil {
		err := s.nextErr
		s.nextErr = nil
		return nil, err
	}

	if _, ok := s.orders[order.ID]; ok {
		return &Receipt{
			OrderID:     order.ID,
			LedgerRef:   fmt.Sprintf("mem-%s", order.ID),
			CommittedAt: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	copied := *order
	copied.Lines = append([]domain.FinalizedLine(nil), order.Lines...)
	s.orders[order.ID] = &copied
	s.seq++

	return &Receipt{
		OrderID:     order.ID,
		LedgerRef:   fmt.Sprintf("mem-%d", s.seq),
		CommittedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Order returns a submitted order by id.
func (s *MemorySubmitter) Order(id string) (*domain.FinalizedOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	return order, ok
}

// Count returns how many distinct orders were committed.
func (s *MemorySubmitter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
