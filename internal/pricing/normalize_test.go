package pricing

import "testing"

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{30, 30},
		{float64(45), 45},
		{"45 min", 45},
		{"15", 15},
		{" 20 minutes ", 20},
		{"about an hour", 0},
		{"", 0},
		{-10, 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := ParseMinutes(tc.in); got != tc.want {
			t.Fatalf("ParseMinutes(%v): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeItemStringDuration(t *testing.T) {
	item := NormalizeItem(RawItem{ID: "svc-1", Name: "Haircut", Price: 400, Duration: "30 min"})
	if item.Duration != 30 {
		t.Fatalf("expected 30 minutes, got %d", item.Duration)
	}
	if item.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", item.Quantity)
	}
}

func TestNormalizeItemFallsBackToTime(t *testing.T) {
	item := NormalizeItem(RawItem{ID: "svc-2", Time: "25"})
	if item.Duration != 25 {
		t.Fatalf("expected time fallback 25, got %d", item.Duration)
	}
}

func TestNormalizePackageAggregation(t *testing.T) {
	raw := RawItem{
		ID: "pkg-1",
		Services: []RawSubItem{
			{Name: "Facial", Duration: float64(20)},
			{Name: "Threading", Time: "15"},
		},
	}
	item := NormalizeItem(raw)
	if len(item.Services) != 2 {
		t.Fatalf("expected 2 bundled services, got %d", len(item.Services))
	}
	if got := ResolveDuration(item); got != 35 {
		t.Fatalf("expected aggregated duration 35, got %d", got)
	}
}

func TestNormalizeMixedCartScenario(t *testing.T) {
	items := NormalizeItems([]RawItem{
		{ID: "svc-1", Duration: "30 min", Quantity: 1},
		{ID: "pkg-1", Quantity: 1, Services: []RawSubItem{{Duration: float64(20)}, {Time: "15"}}},
	})
	summary := Compute(items, 0)
	if summary.TotalDuration != 65 {
		t.Fatalf("expected total duration 65, got %d", summary.TotalDuration)
	}
}
