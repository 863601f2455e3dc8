package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"brewtab/internal/cache"
	"brewtab/internal/catalog"
	"brewtab/internal/domain"
	"brewtab/internal/engine"
	"brewtab/internal/ledger"
	"brewtab/internal/xid"
)

var (
	ErrNoSnapshot      = errors.New("catalog snapshot unavailable")
	ErrSubmitInFlight  = errors.New("order submission already in progress")
	ErrRefreshRequired = errors.New("catalog refresh required before retry")
	ErrOrderNotFound   = errors.New("order not found")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Session states for one terminal's order lifecycle.
const (
	StateEmpty      = "empty"
	StateComposing  = "composing"
	StateSubmitting = "submitting"
	StateCommitted  = "committed"
	StateFailed     = "failed"
)

const snapshotCacheKey = "catalog:snapshot"

type session struct {
	mu          sync.Mutex
	cart        *engine.Cart
	state       string
	inFlight    bool
	stale       bool
	lastOrderID string
}

type Service struct {
	source      catalog.Source
	cache       cache.SnapshotCache
	submitter   ledger.Submitter
	storeName   string
	snapshotTTL time.Duration

	snapMu   sync.RWMutex
	snapshot *catalog.Snapshot

	sessionMu sync.Mutex
	sessions  map[string]*session

	orderMu sync.RWMutex
	orders  map[string]*domain.FinalizedOrder
}

func New(source catalog.Source, snapCache cache.SnapshotCache, submitter ledger.Submitter, storeName string, snapshotTTL time.Duration) *Service {
	if storeName == "" {
		storeName = "main-store"
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}

	return &Service{
		source:      source,
		cache:       snapCache,
		submitter:   submitter,
		storeName:   storeName,
		snapshotTTL: snapshotTTL,
		sessions:    make(map[string]*session),
		orders:      make(map[string]*domain.FinalizedOrder),
	}
}

// Bootstrap loads the initial snapshot, falling back to the shared cache
// when the source is unreachable.
func (s *Service) Bootstrap(ctx context.Context) error {
	err := s.Refresh(ctx)
	if err == nil {
		return nil
	}
	log.Printf("[service] WARN: catalog source fetch failed, trying cache: %v", err)

	snap, ok, cacheErr := s.cache.Get(ctx, snapshotCacheKey)
	if cacheErr != nil {
		return cacheErr
	}
	if !ok {
		return err
	}

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()
	log.Printf("[service] catalog snapshot restored from cache version=%s", snap.Version)
	return nil
}

// Refresh fetches a fresh snapshot, publishes it to the shared cache, swaps
// it in, and reprices every open cart against it.
func (s *Service) Refresh(ctx context.Context) error {
	snap, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	if err := s.cache.Set(ctx, snapshotCacheKey, snap, s.snapshotTTL); err != nil {
		log.Printf("[service] WARN: snapshot cache write failed: %v", err)
	}

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.sessionMu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionMu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		sess.cart.Reprice(snap)
		sess.stale = false
		sess.mu.Unlock()
	}

	return nil
}

// StartRefresher re-fetches the snapshot on an interval until ctx ends.
func (s *Service) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					log.Printf("[service] WARN: periodic catalog refresh failed: %v", err)
				}
			}
		}
	}()
}

func (s *Service) currentSnapshot() (*catalog.Snapshot, error) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return s.snapshot, nil
}

func (s *Service) session(terminalID string) *session {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	sess, ok := s.sessions[terminalID]
	if !ok {
		sess = &session{cart: engine.NewCart(), state: StateEmpty}
		s.sessions[terminalID] = sess
	}
	return sess
}

// Catalog returns the product listings with snapshot-derived availability.
func (s *Service) Catalog(ctx context.Context) (domain.CatalogResponse, error) {
	snap, err := s.currentSnapshot()
	if err != nil {
		return domain.CatalogResponse{}, err
	}

	products := make([]domain.ProductListing, 0, len(snap.Products))
	for _, p := range snap.Products {
		if p.Category == domain.CategoryAddon {
			continue
		}
		listing := domain.ProductListing{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Styles:   append([]string(nil), p.Styles...),
		}
		for _, variant := range p.Sizes {
			listing.Sizes = append(listing.Sizes, domain.SizeListing{
				Size:        variant.Size,
				PriceCents:  variant.PriceCents,
				MaxSellable: engine.MaxSellable(snap, p.ID, variant.Size),
			})
		}
		products = append(products, listing)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category == products[j].Category {
			return products[i].Name < products[j].Name
		}
		return products[i].Category < products[j].Category
	})

	addons := make([]domain.AddonListing, 0, 8)
	for _, id := range snap.AddonIDs() {
		addon, ok := snap.Product(id)
		if !ok {
			continue
		}
		price, err := engine.AddonPrice(snap, id)
		if err != nil {
			continue
		}
		addons = append(addons, domain.AddonListing{
			ID:          id,
			Name:        addon.Name,
			PriceCents:  price,
			MaxSellable: engine.AddonAvailable(snap, id),
		})
	}
	sort.Slice(addons, func(i, j int) bool { return addons[i].Name < addons[j].Name })

	lowStock := snap.LowStock()
	sort.Slice(lowStock, func(i, j int) bool { return lowStock[i].Name < lowStock[j].Name })

	return domain.CatalogResponse{
		Version:   snap.Version,
		FetchedAt: snap.FetchedAt.Format(time.RFC3339),
		Products:  products,
		Addons:    addons,
		LowStock:  lowStock,
	}, nil
}

// RefreshCatalog is the manual refresh entry point for the POS screen.
func (s *Service) RefreshCatalog(ctx context.Context) (domain.CatalogResponse, error) {
	if err := s.Refresh(ctx); err != nil {
		return domain.CatalogResponse{}, err
	}
	actor, _ := ActorFromContext(ctx)
	log.Printf("[service] catalog refreshed by=%s", actor.Username)
	return s.Catalog(ctx)
}

func (s *Service) Cart(terminalID string) (domain.CartView, error) {
	snap, err := s.currentSnapshot()
	if err != nil {
		return domain.CartView{}, err
	}
	sess := s.session(terminalID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.cartView(terminalID, sess, snap), nil
}

func (s *Service) AddLine(ctx context.Context, req domain.AddLineRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.Add(snap, req.ProductID, req.Size)
		return err
	})
}

func (s *Service) ChangeQuantity(ctx context.Context, req domain.ChangeQuantityRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.ChangeQty(req.LineID, req.Delta)
		return err
	})
}

func (s *Service) RemoveLine(ctx context.Context, req domain.RemoveLineRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		return sess.cart.Remove(req.LineID)
	})
}

func (s *Service) SetAddons(ctx context.Context, req domain.SetAddonsRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.SetAddons(snap, req.LineID, req.Addons)
		return err
	})
}

func (s *Service) IncrementAddon(ctx context.Context, req domain.AddonDeltaRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.IncrementAddon(snap, req.LineID, req.AddonID)
		return err
	})
}

func (s *Service) DecrementAddon(ctx context.Context, req domain.AddonDeltaRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.DecrementAddon(snap, req.LineID, req.AddonID)
		return err
	})
}

func (s *Service) ChangeSize(ctx context.Context, req domain.ChangeSizeRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.ChangeSize(snap, req.LineID, req.Size)
		return err
	})
}

func (s *Service) ChangeStyle(ctx context.Context, req domain.ChangeStyleRequest) (domain.CartView, error) {
	return s.withCart(req.TerminalID, func(snap *catalog.Snapshot, sess *session) error {
		_, err := sess.cart.ChangeStyle(snap, req.LineID, req.Subcategory)
		return err
	})
}

func (s *Service) ClearCart(terminalID string) (domain.CartView, error) {
	return s.withCart(terminalID, func(snap *catalog.Snapshot, sess *session) error {
		sess.cart.Clear()
		return nil
	})
}

func (s *Service) withCart(terminalID string, fn func(*catalog.Snapshot, *session) error) (domain.CartView, error) {
	snap, err := s.currentSnapshot()
	if err != nil {
		return domain.CartView{}, err
	}

	sess := s.session(terminalID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.inFlight {
		return domain.CartView{}, ErrSubmitInFlight
	}
	if err := fn(snap, sess); err != nil {
		return domain.CartView{}, err
	}
	if sess.cart.Empty() {
		sess.state = StateEmpty
	} else {
		sess.state = StateComposing
	}
	return s.cartView(terminalID, sess, snap), nil
}

func (s *Service) cartView(terminalID string, sess *session, snap *catalog.Snapshot) domain.CartView {
	lines := sess.cart.Lines()
	return domain.CartView{
		TerminalID: terminalID,
		Lines:      lines,
		TotalCents: engine.Total(lines),
		Flagged:    sess.cart.Flagged(),
		Version:    snap.Version,
	}
}

// Checkout validates the cart and tender, finalizes the order, and submits
// it to the external ledger. A stock-conflict rejection marks the session
// stale: the terminal must refresh its snapshot before trying again, and no
// retry happens on its own.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	snap, err := s.currentSnapshot()
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	actor, _ := ActorFromContext(ctx)

	sess := s.session(req.TerminalID)
	sess.mu.Lock()
	if sess.inFlight {
		sess.mu.Unlock()
		return domain.CheckoutResponse{}, ErrSubmitInFlight
	}
	if sess.stale {
		sess.mu.Unlock()
		return domain.CheckoutResponse{}, ErrRefreshRequired
	}

	payment := engine.Payment{
		Mode:              req.PaymentMode,
		CashReceivedCents: req.CashReceivedCents,
		ReferenceNumber:   req.ReferenceNumber,
	}
	order, err := engine.Finalize(snap, sess.cart, payment, xid.New("order"), s.storeName, actor.Username, time.Now().UTC())
	if err != nil {
		sess.mu.Unlock()
		return domain.CheckoutResponse{}, err
	}

	itemCount := 0
	for _, line := range order.Lines {
		itemCount += line.Qty
	}

	sess.inFlight = true
	sess.state = StateSubmitting
	sess.mu.Unlock()

	receipt, submitErr := s.submitter.Submit(ctx, order)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false

	if submitErr != nil {
		sess.state = StateFailed
		if errors.Is(submitErr, ledger.ErrStockConflict) {
			sess.stale = true
			log.Printf("[service] WARN: order %s rejected on stock conflict terminal=%s", order.ID, req.TerminalID)
			return domain.CheckoutResponse{}, fmt.Errorf("%w: %v", ErrRefreshRequired, submitErr)
		}
		log.Printf("[service] WARN: order %s submission failed terminal=%s: %v", order.ID, req.TerminalID, submitErr)
		return domain.CheckoutResponse{}, submitErr
	}

	s.orderMu.Lock()
	s.orders[order.ID] = order
	s.orderMu.Unlock()

	sess.cart.Clear()
	sess.state = StateCommitted
	sess.lastOrderID = order.ID

	s.logAudit(actor, "checkout", "order", order.ID, fmt.Sprintf("total=%d,payment=%s,ledger_ref=%s", order.TotalCents, order.PaymentMode, receipt.LedgerRef))

	return domain.CheckoutResponse{
		OrderID:           order.ID,
		TotalCents:        order.TotalCents,
		CashReceivedCents: order.CashReceivedCents,
		ChangeCents:       order.ChangeCents,
		PaymentMode:       order.PaymentMode,
		ItemCount:         itemCount,
		CreatedAt:         order.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Order returns a committed order by id.
func (s *Service) Order(orderID string) (*domain.FinalizedOrder, error) {
	s.orderMu.RLock()
	defer s.orderMu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// SessionState reports a terminal's lifecycle state and last committed order.
func (s *Service) SessionState(terminalID string) (string, string) {
	sess := s.session(terminalID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, sess.lastOrderID
}

func (s *Service) logAudit(actor domain.Actor, action string, entityType string, entityID string, detail string) {
	if actor.Username == "" {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	log.Printf("[audit] actor=%s role=%s action=%s entity=%s/%s detail=%s", actor.Username, actor.Role, action, entityType, entityID, detail)
}
