package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultOrderTimeout bounds a single order placement call.
	DefaultOrderTimeout = 30 * time.Second
	// DefaultPublishTimeout bounds announcing a confirmed order.
	DefaultPublishTimeout = 5 * time.Second
)

// AuthState answers whether a shopper is signed in.
type AuthState interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (domain.User, bool)
}

// OrderPlacer creates an order on the backend.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)
}

// EventPublisher announces confirmed orders.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, c Confirmation) error
}

// Cart is the part of *cart.Store checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) error
}

// Confirmation describes a placed order. Its amounts come from the cart
// as it was submitted, not the (now empty) cart.
type Confirmation struct {
	OrderID       string                 `json:"order_id"`
	PlacedAt      time.Time              `json:"placed_at"`
	UserID        string                 `json:"user_id"`
	Items         []domain.LineItem      `json:"items"`
	ItemCount     int                    `json:"item_count"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	Shipping      decimal.Decimal        `json:"shipping"`
	GrandTotal    decimal.Decimal        `json:"grand_total"`
	Address       domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod domain.PaymentMethod   `json:"payment_method"`
}

// Outcome is delivered by SubmitAsync.
type Outcome struct {
	Confirmation *Confirmation
	Err          error
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEvents publishes every confirmed order through p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithOrderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithKeyGenerator replaces the idempotency key source (uuid by default).
func WithKeyGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newKey = fn
	}
}

// Service gates the move from cart to order. It runs one checkout attempt
// at a time.
type Service struct {
	cart           Cart
	auth           AuthState
	orders         OrderPlacer
	events         EventPublisher
	logger         *zap.Logger
	timeout        time.Duration
	publishTimeout time.Duration
	newKey         func() string

	mu     sync.Mutex
	status Status
}

func NewService(c Cart, auth AuthState, orders OrderPlacer, opts ...Option) *Service {
	s := &Service{
		cart:           c,
		auth:           auth,
		orders:         orders,
		logger:         zap.NewNop(),
		timeout:        DefaultOrderTimeout,
		publishTimeout: DefaultPublishTimeout,
		newKey:         uuid.NewString,
		status:         StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reset returns a finished attempt to IDLE, as when the shopper leaves the
// confirmation screen. It does nothing while an attempt is in flight.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		s.status = StatusIdle
	}
}

// Begin is the "proceed to checkout" gate on the cart screen. It returns
// ErrAuthRequired when nobody is signed in and ErrEmptyCart when there is
// nothing to buy. The cart is never touched.
func (s *Service) Begin(ctx context.Context) error {
	if !s.auth.IsAuthenticated(ctx) {
		s.logger.Info("checkout refused, login required")
		return ErrAuthRequired
	}
	if s.cart.Snapshot().IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

// Prefill returns the initial checkout form: the signed-in shopper's name
// and cash payment.
func (s *Service) Prefill(ctx context.Context) Form {
	form := Form{PaymentMethod: domain.PaymentCash}
	if user, ok := s.auth.CurrentUser(ctx); ok {
		form.Address.FullName = user.Name
	}
	return form
}

// Submit validates the form, places an order for the cart as it is right
// now and clears the cart once the order is confirmed.
//
// The cart is snapshotted when submission starts and the order is built
// from that snapshot. Items added while the order is in flight are not
// part of it, yet the successful Clear still removes them.
//
// The order call ignores cancellation of ctx and is bounded by the order
// timeout instead, so a caller that gives up still gets the cart cleared
// on a late success.
func (s *Service) Submit(ctx context.Context, form Form) (*Confirmation, error) {
	if !s.auth.IsAuthenticated(ctx) {
		s.logger.Info("checkout refused, login required")
		return nil, ErrAuthRequired
	}
	user, _ := s.auth.CurrentUser(ctx)

	if err := s.start(); err != nil {
		return nil, err
	}

	form = form.Normalized()
	if err := form.Validate(); err != nil {
		s.moveTo(StatusIdle)
		return nil, err
	}

	snap := s.cart.Snapshot()
	if snap.IsEmpty() {
		s.moveTo(StatusIdle)
		return nil, ErrEmptyCart
	}

	s.moveTo(StatusSubmitting)

	req := buildOrderRequest(snap, form, s.newKey())
	logger := s.logger.With(
		zap.String("user_id", user.ID),
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Int("items", snap.ItemCount()),
		zap.String("subtotal", req.Total.StringFixed(2)))
	logger.Info("submitting order")

	detached := context.WithoutCancel(ctx)
	orderCtx, cancel := context.WithTimeout(detached, s.timeout)
	defer cancel()

	placed, err := s.orders.CreateOrder(orderCtx, req)
	if err != nil {
		s.moveTo(StatusFailed)
		s.moveTo(StatusIdle)
		logger.Warn("order placement failed, cart kept", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}

	s.moveTo(StatusConfirmed)

	if err := s.cart.Clear(detached); err != nil {
		logger.Warn("cart cleared but not saved after order", zap.Error(err))
	}

	confirmation := newConfirmation(placed, snap, form, user)
	logger.Info("order confirmed", zap.String("order_id", confirmation.OrderID))

	if s.events != nil {
		publishCtx, cancelPublish := context.WithTimeout(detached, s.publishTimeout)
		defer cancelPublish()
		if err := s.events.OrderPlaced(publishCtx, *confirmation); err != nil {
			logger.Warn("failed to publish order placed event", zap.Error(err))
		}
	}

	return confirmation, nil
}

// SubmitAsync runs Submit in the background. The channel is buffered, so
// a caller that stops listening never blocks the submission.
func (s *Service) SubmitAsync(ctx context.Context, form Form) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		c, err := s.Submit(ctx, form)
		out <- Outcome{Confirmation: c, Err: err}
		close(out)
	}()
	return out
}

// start enters VALIDATING_ADDRESS. A finished attempt is reset first.
func (s *Service) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.InFlight() {
		return ErrCheckoutInProgress
	}
	if s.status.IsTerminal() {
		s.status = StatusIdle
	}
	return s.transitionLocked(StatusValidatingAddress)
}

func (s *Service) moveTo(to Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(to); err != nil {
		s.logger.Error("checkout state machine", zap.Error(err))
	}
}

func (s *Service) transitionLocked(to Status) error {
	if !CanTransitionTo(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, to)
	}
	s.logger.Debug("checkout status changed",
		zap.Stringer("from", s.status),
		zap.Stringer("to", to))
	s.status = to
	return nil
}

func buildOrderRequest(snap cart.Snapshot, form Form, key string) domain.OrderRequest {
	items := snap.Items()
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return domain.OrderRequest{
		IdempotencyKey:  key,
		Items:           orderItems,
		ShippingAddress: form.Address,
		PaymentMethod:   form.PaymentMethod,
		Total:           snap.Total(),
	}
}

func newConfirmation(placed domain.OrderConfirmation, snap cart.Snapshot, form Form, user domain.User) *Confirmation {
	placedAt := placed.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	subtotal := snap.Total()
	return &Confirmation{
		OrderID:       placed.OrderID,
		PlacedAt:      placedAt,
		UserID:        user.ID,
		Items:         snap.Items(),
		ItemCount:     snap.ItemCount(),
		Subtotal:      subtotal,
		Shipping:      domain.ShippingFee,
		GrandTotal:    subtotal.Add(domain.ShippingFee),
		Address:       form.Address,
		PaymentMethod: form.PaymentMethod,
	}
}

// IsRetryable reports whether err leaves the cart intact and the shopper
// free to submit again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOrderFailed) || errors.Is(err, ErrCheckoutInProgress)
}
