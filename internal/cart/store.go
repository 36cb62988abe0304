package cart

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the single owner of the shopper's line items.
//
// Mutations are serialized: each one applies its change, saves and notifies
// listeners before the next is admitted. Reads load the last committed
// Snapshot and never wait on a mutation in progress.
type Store struct {
	mu     sync.Mutex // serializes mutations
	state  atomic.Pointer[Snapshot]
	repo   Repository
	logger *zap.Logger

	lmu       sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int
}

// NewStore restores the cart from repo. A load failure is logged and the
// store starts empty. A nil repo keeps the cart in memory only.
func NewStore(ctx context.Context, repo Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		repo:      repo,
		logger:    logger,
		listeners: make(map[int]func(Snapshot)),
	}
	s.state.Store(&Snapshot{items: s.load(ctx)})
	return s
}

func (s *Store) load(ctx context.Context) []domain.LineItem {
	if s.repo == nil {
		return nil
	}
	items, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load cart, starting empty", zap.Error(err))
		return nil
	}
	clean, dropped := sanitize(items)
	if dropped > 0 {
		s.logger.Warn("discarded invalid saved line items", zap.Int("dropped", dropped))
	}
	s.logger.Info("cart restored", zap.Int("items", len(clean)))
	return clean
}

// sanitize enforces the cart invariants on data read back from storage:
// lines without a product or with a non-positive quantity are dropped and
// duplicate products are merged into the first occurrence. A duplicate whose
// quantity would overflow the merged line is dropped.
func sanitize(items []domain.LineItem) ([]domain.LineItem, int) {
	clean := make([]domain.LineItem, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			dropped++
			continue
		}
		if i := indexOf(clean, item.ProductID); i >= 0 {
			if item.Quantity <= math.MaxInt-clean[i].Quantity {
				clean[i].Quantity += item.Quantity
			}
			dropped++
			continue
		}
		clean = append(clean, item)
	}
	return clean, dropped
}

// AddItem adds quantity units of p. An existing line keeps its name, price
// and image and only has its quantity increased. A quantity below one, an
// empty product ID, a negative price or an increase that would overflow the
// line's quantity is ignored.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	if quantity < 1 || p.ProductID == "" || p.UnitPrice.IsNegative() {
		s.logger.Warn("rejected add to cart",
			zap.String("product_id", p.ProductID),
			zap.Int("quantity", quantity),
			zap.String("unit_price", p.UnitPrice.String()))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Load().Items()
	if i := indexOf(next, p.ProductID); i >= 0 {
		if quantity > math.MaxInt-next[i].Quantity {
			s.logger.Warn("rejected add to cart, quantity overflow",
				zap.String("product_id", p.ProductID),
				zap.Int("current", next[i].Quantity),
				zap.Int("quantity", quantity))
			return nil
		}
		next[i].Quantity += quantity
	} else {
		next = append(next, domain.NewLineItem(p, quantity))
	}
	return s.commit(ctx, "add_item", next)
}

// RemoveItem deletes the line for productID. Removing an absent product does nothing.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, productID)
}

func (s *Store) removeLocked(ctx context.Context, productID string) error {
	cur := s.state.Load()
	i := indexOf(cur.items, productID)
	if i < 0 {
		return nil
	}
	next := slices.Delete(cur.Items(), i, i+1)
	return s.commit(ctx, "remove_item", next)
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// or less removes the line. Unknown products are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, productID)
	}

	cur := s.state.Load()
	i := indexOf(cur.items, productID)
	if i < 0 || cur.items[i].Quantity == quantity {
		return nil
	}
	next := cur.Items()
	next[i].Quantity = quantity
	return s.commit(ctx, "set_quantity", next)
}

// Clear empties the cart unconditionally. It always saves and notifies,
// so clearing an already empty cart leaves it empty.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, "clear", nil)
}

// commit publishes next as the current state, then saves and notifies.
// The in-memory change stands even if the save fails. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, op string, next []domain.LineItem) error {
	snap := &Snapshot{items: next, version: s.state.Load().version + 1}
	s.state.Store(snap)

	var err error
	if s.repo != nil {
		if errSave := s.repo.Save(ctx, snap.Items()); errSave != nil {
			s.logger.Warn("failed to save cart",
				zap.String("op", op),
				zap.Uint64("version", snap.version),
				zap.Error(errSave))
			err = fmt.Errorf("%w: %w", ErrSaveFailed, errSave)
		}
	}

	s.notify(*snap)
	return err
}

func (s *Store) Snapshot() Snapshot {
	return *s.state.Load()
}

func (s *Store) Items() []domain.LineItem {
	return s.state.Load().Items()
}

func (s *Store) ItemCount() int {
	return s.state.Load().ItemCount()
}

func (s *Store) Total() decimal.Decimal {
	return s.state.Load().Total()
}

// Subscribe registers fn to receive every committed snapshot. fn runs while
// the mutation that produced the snapshot still holds the store, so it must
// not call AddItem, RemoveItem, SetQuantity or Clear.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

func (s *Store) notify(snap Snapshot) {
	s.lmu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
