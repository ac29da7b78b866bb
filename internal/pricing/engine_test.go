package pricing

import "testing"

func money(v int64) *Money { return &v }

func TestComputeSubtotalPrefersOfferPrice(t *testing.T) {
	items := []LineItem{{ID: "svc-1", Price: 1000, OfferPrice: money(800), Quantity: 1}}
	if got := ComputeSubtotal(items); got != 800 {
		t.Fatalf("expected subtotal 800, got %d", got)
	}
}

func TestComputeSubtotalSkipsFreeItems(t *testing.T) {
	items := []LineItem{
		{ID: "svc-1", Price: 500, Quantity: 2},
		{ID: "free-x5", Price: 250, Quantity: 1, IsFree: true},
	}
	if got := ComputeSubtotal(items); got != 1000 {
		t.Fatalf("free item leaked into subtotal: got %d", got)
	}
}

func TestComputeServiceChargeThreshold(t *testing.T) {
	cases := []struct {
		subtotal Money
		want     Money
	}{
		{0, 150},
		{800, 150},
		{998, 150},
		{999, 0},
		{1200, 0},
	}
	for _, tc := range cases {
		if got := ComputeServiceCharge(tc.subtotal); got != tc.want {
			t.Fatalf("service charge for %d: expected %d, got %d", tc.subtotal, tc.want, got)
		}
	}
}

func TestComputeNoCoupon(t *testing.T) {
	items := []LineItem{{ID: "svc-1", Price: 1000, OfferPrice: money(800), Quantity: 1}}
	summary := Compute(items, 0)
	if summary.Subtotal != 800 {
		t.Fatalf("expected subtotal 800, got %d", summary.Subtotal)
	}
	if summary.Discount != 0 {
		t.Fatalf("expected no discount, got %d", summary.Discount)
	}
	if summary.ServiceCharge != 150 {
		t.Fatalf("expected service charge 150, got %d", summary.ServiceCharge)
	}
	if summary.Total != 950 {
		t.Fatalf("expected total 950, got %d", summary.Total)
	}
}

func TestComputeDiscountWaivesServiceCharge(t *testing.T) {
	items := []LineItem{{ID: "svc-1", OfferPrice: money(700), Quantity: 2}}
	summary := Compute(items, 200)
	if summary.Subtotal != 1400 {
		t.Fatalf("expected subtotal 1400, got %d", summary.Subtotal)
	}
	if summary.DiscountedSubtotal != 1200 {
		t.Fatalf("expected discounted subtotal 1200, got %d", summary.DiscountedSubtotal)
	}
	if summary.ServiceCharge != 0 {
		t.Fatalf("expected waived service charge, got %d", summary.ServiceCharge)
	}
	if summary.Total != 1200 {
		t.Fatalf("expected total 1200, got %d", summary.Total)
	}
}

func TestComputeClampsDiscountToSubtotal(t *testing.T) {
	items := []LineItem{{ID: "svc-1", Price: 300, Quantity: 1}}
	summary := Compute(items, 500)
	if summary.Discount != 300 {
		t.Fatalf("expected discount clamped to 300, got %d", summary.Discount)
	}
	if summary.DiscountedSubtotal != 0 {
		t.Fatalf("expected zero discounted subtotal, got %d", summary.DiscountedSubtotal)
	}
}

func TestComputeTotalDurationIncludesFreeItems(t *testing.T) {
	items := []LineItem{
		{ID: "svc-1", Price: 400, Quantity: 1, Duration: 30},
		{ID: "pkg-1", Price: 900, Quantity: 1, Services: []SubItem{{Duration: 20}, {Duration: 15}}},
		{ID: "free-x5", Quantity: 1, Duration: 10, IsFree: true},
	}
	summary := Compute(items, 0)
	if summary.TotalDuration != 75 {
		t.Fatalf("expected total duration 75, got %d", summary.TotalDuration)
	}
}

func TestResolveDuration(t *testing.T) {
	if got := ResolveDuration(LineItem{}); got != 0 {
		t.Fatalf("expected 0 for empty item, got %d", got)
	}
	pkg := LineItem{Items: []SubItem{{Duration: 25}, {Duration: 35}}}
	if got := ResolveDuration(pkg); got != 60 {
		t.Fatalf("expected 60 for bundled items, got %d", got)
	}
	nested := LineItem{Duration: 45, Services: []SubItem{{Duration: 20}}}
	if got := ResolveDuration(nested); got != 20 {
		t.Fatalf("bundled services should win over own duration, got %d", got)
	}
}
