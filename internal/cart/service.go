package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velora-hq/backend-salon/internal/coupon"
	"github.com/velora-hq/backend-salon/internal/obs"
	"github.com/velora-hq/backend-salon/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// CatalogReader snapshots catalog entries into cart lines.
type CatalogReader interface {
	LineItemFor(ctx context.Context, kind, id string, quantity int) (pricing.LineItem, error)
}

// CouponApplier validates a coupon code against a subtotal. Revalidate
// re-checks an already known rule without another catalog lookup.
type CouponApplier interface {
	Apply(ctx context.Context, code string, subtotal int64) (coupon.Applied, error)
	Revalidate(rule coupon.Rule, subtotal int64) (coupon.Applied, error)
}

// View is the cart as presented to the client: persisted lines plus any
// coupon-granted free item, with the computed price summary.
type View struct {
	Cart    Cart               `json:"cart"`
	Items   []pricing.LineItem `json:"items"`
	Summary pricing.Summary    `json:"summary"`
	Coupon  *coupon.Applied    `json:"coupon,omitempty"`
}

// Service encapsulates cart domain operations.
type Service struct {
	Store   *Store
	Catalog CatalogReader
	Coupons CouponApplier
	Now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*coupon.Session
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) session(cartID string) *coupon.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]*coupon.Session)
	}
	sess, ok := s.sessions[cartID]
	if !ok {
		sess = &coupon.Session{}
		s.sessions[cartID] = sess
	}
	return sess
}

func (s *Service) peekSession(cartID string) (*coupon.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cartID]
	return sess, ok
}

func (s *Service) dropSession(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cartID)
}

// EnsureCart loads the cart with the given id, creating a fresh one when the
// id is empty or expired. A new cart can be seeded from items the client kept
// locally before its first session; those arrive in the loose upstream shape
// and are normalized exactly once here. An existing server cart always wins
// over the imported items.
func (s *Service) EnsureCart(ctx context.Context, id, userID string, imported []pricing.RawItem) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	id = strings.TrimSpace(id)
	if id != "" {
		cart, err := s.Store.Get(ctx, id)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Cart{}, err
		}
	}
	now := s.now().UTC()
	cart := Cart{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(userID),
		Items:     pricing.NormalizeItems(imported),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Put(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// AddItem snapshots the catalog entry and appends it to the cart, merging
// quantity into an existing line with the same id.
func (s *Service) AddItem(ctx context.Context, cartID, kind, itemID string, qty int) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		qty = 1
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return Cart{}, fmt.Errorf("item id required: %w", ErrInvalidInput)
	}
	line, err := s.Catalog.LineItemFor(ctx, kind, itemID, qty)
	if err != nil {
		return Cart{}, err
	}
	cart, err := s.Store.Mutate(ctx, cartID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == line.ID {
				c.Items[i].Quantity = c.Items[i].Qty() + qty
				return nil
			}
		}
		c.Items = append(c.Items, line)
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	countMutation("add")
	return cart, nil
}

// UpdateQty sets the quantity for a cart line.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	cart, err := s.Store.Mutate(ctx, cartID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = qty
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Cart{}, err
	}
	countMutation("update")
	return cart, nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	cart, err := s.Store.Mutate(ctx, cartID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Cart{}, err
	}
	countMutation("remove")
	return cart, nil
}

// ApplyCoupon validates the code against the current subtotal and stores it
// on the cart. A single coupon is active at a time; applying a new code
// replaces the previous one. Concurrent applications on the same cart are
// rejected, and a response that lost the race cannot overwrite fresher state.
func (s *Service) ApplyCoupon(ctx context.Context, cartID, code string) (View, error) {
	if s == nil || s.Store == nil || s.Coupons == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Store.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.dropSession(cartID)
		}
		return View{}, err
	}
	sess := s.session(cartID)
	token, err := sess.Begin()
	if err != nil {
		countCouponApply("in_flight")
		return View{}, err
	}
	subtotal := pricing.ComputeSubtotal(cart.Items)
	applied, err := s.Coupons.Apply(ctx, code, subtotal)
	if err != nil {
		sess.Fail(token)
		countCouponApply(couponResult(err))
		return View{}, err
	}
	if !sess.Complete(token, applied) {
		countCouponApply("stale")
		return View{}, coupon.ErrApplyInFlight
	}
	cart, err = s.Store.Mutate(ctx, cartID, func(c *Cart) error {
		c.AppliedCouponCode = applied.Rule.Code
		return nil
	})
	if err != nil {
		return View{}, err
	}
	countCouponApply("ok")
	return s.buildView(cart, &applied), nil
}

// RemoveCoupon clears the applied coupon from the cart.
func (s *Service) RemoveCoupon(ctx context.Context, cartID string) (View, error) {
	if s == nil || s.Store == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Store.Mutate(ctx, cartID, func(c *Cart) error {
		c.AppliedCouponCode = ""
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.dropSession(cartID)
		}
		return View{}, err
	}
	if sess, ok := s.peekSession(cartID); ok {
		sess.Remove()
	}
	return s.buildView(cart, nil), nil
}

// Summarize computes the effective cart and price summary. When the stored
// coupon no longer validates (expired, threshold lost after an item removal,
// or the catalog is unreachable) the summary degrades to the no-coupon price
// rather than failing the whole request.
func (s *Service) Summarize(ctx context.Context, cartID string) (View, error) {
	if s == nil || s.Store == nil {
		return View{}, errors.New("cart service not configured")
	}
	start := time.Now()
	cart, err := s.Store.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.dropSession(cartID)
		}
		return View{}, err
	}
	view := s.buildView(cart, s.currentCoupon(ctx, cartID, cart))
	if obs.CartSummaryLatency != nil {
		obs.CartSummaryLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	return view, nil
}

// Clear empties the cart after a successful booking.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	s.dropSession(cartID)
	return s.Store.Delete(ctx, cartID)
}

// currentCoupon re-checks the stored coupon against the current subtotal.
// The in-process session holds the rule applied earlier, so the common path
// revalidates without a catalog lookup; after a restart the session is empty
// and the code is re-applied from the store instead. Any failure yields the
// uncouponed view.
func (s *Service) currentCoupon(ctx context.Context, cartID string, cart Cart) *coupon.Applied {
	if cart.AppliedCouponCode == "" || s.Coupons == nil {
		return nil
	}
	subtotal := pricing.ComputeSubtotal(cart.Items)
	if sess, ok := s.peekSession(cartID); ok {
		if held, active := sess.Applied(); active && held.Rule.Code == cart.AppliedCouponCode {
			if result, err := s.Coupons.Revalidate(held.Rule, subtotal); err == nil {
				return &result
			}
			return nil
		}
	}
	if result, err := s.Coupons.Apply(ctx, cart.AppliedCouponCode, subtotal); err == nil {
		return &result
	}
	return nil
}

// EffectiveItems returns the persisted lines plus the coupon-granted free
// item, if any.
func EffectiveItems(cart Cart, applied *coupon.Applied) []pricing.LineItem {
	items := append([]pricing.LineItem(nil), cart.Items...)
	if applied != nil && applied.FreeItem != nil {
		items = append(items, *applied.FreeItem)
	}
	return items
}

func (s *Service) buildView(cart Cart, applied *coupon.Applied) View {
	items := EffectiveItems(cart, applied)
	var discount pricing.Money
	if applied != nil {
		discount = applied.Discount
	}
	return View{
		Cart:    cart,
		Items:   items,
		Summary: pricing.Compute(items, discount),
		Coupon:  applied,
	}
}

func countMutation(kind string) {
	if obs.CartMutationTotal != nil {
		obs.CartMutationTotal.WithLabelValues(kind).Inc()
	}
}

func countCouponApply(result string) {
	if obs.CouponApplyTotal != nil {
		obs.CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

func couponResult(err error) string {
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		return "not_found"
	case errors.Is(err, coupon.ErrExpired):
		return "expired"
	case errors.Is(err, coupon.ErrMinOrderNotMet):
		return "min_order"
	case errors.Is(err, coupon.ErrCatalogUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
