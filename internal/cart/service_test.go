package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/cart"
	"github.com/velora-hq/backend-salon/internal/coupon"
	"github.com/velora-hq/backend-salon/internal/pricing"
)

type fakeCatalog struct {
	lines map[string]pricing.LineItem
}

func (f *fakeCatalog) LineItemFor(_ context.Context, kind, id string, quantity int) (pricing.LineItem, error) {
	line, ok := f.lines[id]
	if !ok {
		return pricing.LineItem{}, cart.ErrNotFound
	}
	line.Quantity = quantity
	return line, nil
}

type fakeCoupons struct {
	rules   map[string]coupon.Rule
	err     error
	lookups int
}

func (f *fakeCoupons) Apply(_ context.Context, code string, subtotal int64) (coupon.Applied, error) {
	f.lookups++
	if f.err != nil {
		return coupon.Applied{}, f.err
	}
	rule, ok := f.rules[code]
	if !ok {
		return coupon.Applied{}, coupon.ErrNotFound
	}
	return f.Revalidate(rule, subtotal)
}

func (f *fakeCoupons) Revalidate(rule coupon.Rule, subtotal int64) (coupon.Applied, error) {
	if err := rule.Validate("2026-08-29", subtotal); err != nil {
		return coupon.Applied{}, err
	}
	applied := coupon.Applied{Rule: rule, Discount: rule.Discount(subtotal)}
	if rule.FreeService != nil {
		item := coupon.FreeLineItem(*rule.FreeService)
		applied.FreeItem = &item
	}
	return applied, nil
}

func offerPrice(v int64) *int64 { return &v }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{lines: map[string]pricing.LineItem{
		"svc-1": {ID: "svc-1", Name: "Hair Spa", Price: 1000, OfferPrice: offerPrice(800), Duration: 45},
		"svc-2": {ID: "svc-2", Name: "Haircut", Price: 400, Duration: 30},
		"pkg-1": {ID: "pkg-1", Name: "Bridal Glow", Price: 900, Services: []pricing.SubItem{{Name: "Facial", Duration: 20}, {Name: "Threading", Duration: 15}}},
	}}
}

func serviceWith(client *redis.Client, coupons cart.CouponApplier) *cart.Service {
	return &cart.Service{
		Store:   &cart.Store{R: client, TTL: time.Hour},
		Catalog: testCatalog(),
		Coupons: coupons,
	}
}

func newTestService(t *testing.T, coupons cart.CouponApplier) *cart.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return serviceWith(client, coupons)
}

func TestEnsureCartCreatesAndReloads(t *testing.T) {
	svc := newTestService(t, &fakeCoupons{})
	ctx := context.Background()

	created, err := svc.EnsureCart(ctx, "", "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	again, err := svc.EnsureCart(ctx, created.ID, "", nil)
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)

	fresh, err := svc.EnsureCart(ctx, "expired-id", "", nil)
	require.NoError(t, err)
	require.NotEqual(t, "expired-id", fresh.ID)
}

func TestEnsureCartImportsLooseItems(t *testing.T) {
	svc := newTestService(t, &fakeCoupons{})
	ctx := context.Background()

	raw := []pricing.RawItem{
		{ID: "svc-9", Name: "Keratin Treatment", Price: 1200, Duration: "90 min"},
		{ID: "pkg-2", Name: "Glow Package", Price: 900, Services: []pricing.RawSubItem{
			{Name: "Facial", Time: 20},
			{Name: "Threading", Duration: "15"},
		}},
	}
	c, err := svc.EnsureCart(ctx, "", "", raw)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	require.Equal(t, 90, c.Items[0].Duration)
	require.Equal(t, 1, c.Items[0].Quantity)

	view, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2100), view.Summary.Subtotal)
	require.Equal(t, 125, view.Summary.TotalDuration)

	// an existing server cart wins over a late import
	same, err := svc.EnsureCart(ctx, c.ID, "", []pricing.RawItem{{ID: "svc-1", Price: 800}})
	require.NoError(t, err)
	require.Equal(t, c.ID, same.ID)
	require.Len(t, same.Items, 2)
}

func TestAddItemMergesQuantity(t *testing.T) {
	svc := newTestService(t, &fakeCoupons{})
	ctx := context.Background()
	c, err := svc.EnsureCart(ctx, "", "", nil)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "service", "svc-2", 1)
	require.NoError(t, err)
	updated, err := svc.AddItem(ctx, c.ID, "service", "svc-2", 2)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, 3, updated.Items[0].Quantity)
}

func TestSummarizeNoCoupon(t *testing.T) {
	svc := newTestService(t, &fakeCoupons{})
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)

	view, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(800), view.Summary.Subtotal)
	require.Equal(t, int64(150), view.Summary.ServiceCharge)
	require.Equal(t, int64(950), view.Summary.Total)
	require.Equal(t, 45, view.Summary.TotalDuration)
}

func TestApplyCouponComputesDiscountAndWaivesCharge(t *testing.T) {
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"SAVE15": {Code: "SAVE15", Name: "Save 15%", Percent: 15, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "service", "svc-2", 2)
	require.NoError(t, err)

	// subtotal 800 + 800 = 1600, discount 240, discounted 1360 -> waived charge
	view, err := svc.ApplyCoupon(ctx, c.ID, "SAVE15")
	require.NoError(t, err)
	require.Equal(t, int64(1600), view.Summary.Subtotal)
	require.Equal(t, int64(240), view.Summary.Discount)
	require.Equal(t, int64(0), view.Summary.ServiceCharge)
	require.Equal(t, int64(1360), view.Summary.Total)
	require.Equal(t, "SAVE15", view.Cart.AppliedCouponCode)
}

func TestApplyCouponMinOrderNotMet(t *testing.T) {
	min := int64(1000)
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"BIG": {Code: "BIG", Percent: 10, MinOrderValue: &min, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-2", 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, c.ID, "BIG")
	require.ErrorIs(t, err, coupon.ErrMinOrderNotMet)

	view, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, view.Cart.AppliedCouponCode)
}

func TestApplyCouponReplacesPrevious(t *testing.T) {
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"SAVE10": {Code: "SAVE10", Percent: 10, ValidUntil: "2026-12-31"},
		"SAVE20": {Code: "SAVE20", Percent: 20, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, c.ID, "SAVE10")
	require.NoError(t, err)
	view, err := svc.ApplyCoupon(ctx, c.ID, "SAVE20")
	require.NoError(t, err)
	require.Equal(t, "SAVE20", view.Cart.AppliedCouponCode)
	require.Equal(t, int64(160), view.Summary.Discount)
}

func TestApplyCouponGrantsFreeItem(t *testing.T) {
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"TREAT": {
			Code: "TREAT", Percent: 10, ValidUntil: "2026-12-31",
			FreeService: &coupon.FreeService{ID: "x5", Name: "Head Massage", Duration: 10},
		},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)

	view, err := svc.ApplyCoupon(ctx, c.ID, "TREAT")
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.Equal(t, "free-x5", view.Items[1].ID)
	// free item contributes duration but not price
	require.Equal(t, int64(800), view.Summary.Subtotal)
	require.Equal(t, 55, view.Summary.TotalDuration)

	// the free line never reaches the persisted cart
	stored, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, stored.Cart.Items, 1)
}

func TestSummarizeRevalidatesHeldRuleWithoutLookup(t *testing.T) {
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"SAVE10": {Code: "SAVE10", Percent: 10, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, c.ID, "SAVE10")
	require.NoError(t, err)
	require.Equal(t, 1, coupons.lookups)

	// lookups now fail, but the session still holds the applied rule
	coupons.err = coupon.ErrCatalogUnavailable
	view, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Coupon)
	require.Equal(t, int64(80), view.Summary.Discount)
	require.Equal(t, 1, coupons.lookups)
}

func TestSummarizeDegradesWhenCouponUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"SAVE10": {Code: "SAVE10", Percent: 10, ValidUntil: "2026-12-31"},
	}}
	svc := serviceWith(client, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, c.ID, "SAVE10")
	require.NoError(t, err)

	// a fresh instance has no session for the cart and must re-apply the
	// stored code; with the catalog down the summary degrades
	coupons.err = coupon.ErrCatalogUnavailable
	restarted := serviceWith(client, coupons)
	view, err := restarted.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), view.Summary.Discount)
	require.Nil(t, view.Coupon)
	require.Equal(t, "SAVE10", view.Cart.AppliedCouponCode)
}

func TestRemoveItemRevalidatesCouponThreshold(t *testing.T) {
	min := int64(1000)
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"BIG": {Code: "BIG", Percent: 10, MinOrderValue: &min, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "service", "svc-2", 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, c.ID, "BIG")
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, c.ID, "svc-1")
	require.NoError(t, err)
	view, err := svc.Summarize(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), view.Summary.Discount)
	require.Nil(t, view.Coupon)
}

func TestUpdateQtyMissingItem(t *testing.T) {
	svc := newTestService(t, &fakeCoupons{})
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.UpdateQty(ctx, c.ID, "ghost", 2)
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestRemoveCouponRestoresBasePrice(t *testing.T) {
	coupons := &fakeCoupons{rules: map[string]coupon.Rule{
		"SAVE10": {Code: "SAVE10", Percent: 10, ValidUntil: "2026-12-31"},
	}}
	svc := newTestService(t, coupons)
	ctx := context.Background()
	c, _ := svc.EnsureCart(ctx, "", "", nil)
	_, err := svc.AddItem(ctx, c.ID, "service", "svc-1", 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, c.ID, "SAVE10")
	require.NoError(t, err)

	view, err := svc.RemoveCoupon(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, view.Cart.AppliedCouponCode)
	require.Equal(t, int64(0), view.Summary.Discount)
	require.Equal(t, int64(950), view.Summary.Total)
}
