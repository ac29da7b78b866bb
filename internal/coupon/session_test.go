package coupon

import "testing"

func TestSessionSingleSlot(t *testing.T) {
	var s Session
	token, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := s.Begin(); err != ErrApplyInFlight {
		t.Fatalf("expected ErrApplyInFlight while applying, got %v", err)
	}
	if !s.Complete(token, Applied{Rule: Rule{Code: "SAVE10"}, Discount: 100}) {
		t.Fatal("complete with a fresh token should succeed")
	}
	applied, ok := s.Applied()
	if !ok || applied.Rule.Code != "SAVE10" {
		t.Fatalf("expected SAVE10 applied, got %+v ok=%v", applied, ok)
	}
}

func TestSessionReplaceOnSecondApply(t *testing.T) {
	var s Session
	token, _ := s.Begin()
	s.Complete(token, Applied{Rule: Rule{Code: "SAVE10"}})

	token2, err := s.Begin()
	if err != nil {
		t.Fatalf("a new application should be allowed once applied: %v", err)
	}
	s.Complete(token2, Applied{Rule: Rule{Code: "SAVE20"}})
	applied, _ := s.Applied()
	if applied.Rule.Code != "SAVE20" {
		t.Fatalf("second apply should replace the first, got %s", applied.Rule.Code)
	}
}

func TestSessionStaleCompletionIgnored(t *testing.T) {
	var s Session
	stale, _ := s.Begin()
	s.Fail(stale)
	fresh, _ := s.Begin()
	s.Complete(fresh, Applied{Rule: Rule{Code: "FRESH"}})

	if s.Complete(stale, Applied{Rule: Rule{Code: "STALE"}}) {
		t.Fatal("stale completion must be a no-op")
	}
	applied, _ := s.Applied()
	if applied.Rule.Code != "FRESH" {
		t.Fatalf("stale response overwrote fresh state: %s", applied.Rule.Code)
	}
}

func TestSessionFailRestoresPrevious(t *testing.T) {
	var s Session
	token, _ := s.Begin()
	s.Complete(token, Applied{Rule: Rule{Code: "KEEP"}})

	token2, _ := s.Begin()
	s.Fail(token2)
	applied, _ := s.Applied()
	if applied.Rule.Code != "KEEP" {
		t.Fatalf("previous coupon should survive a failed replacement, got %s", applied.Rule.Code)
	}
}

func TestSessionFailWithoutPreviousGoesIdle(t *testing.T) {
	var s Session
	token, _ := s.Begin()
	s.Fail(token)
	if _, ok := s.Applied(); ok {
		t.Fatal("no coupon should be applied after a failed first attempt")
	}
	if _, err := s.Begin(); err != nil {
		t.Fatalf("a failed attempt should free the slot for the next one: %v", err)
	}
}

func TestSessionRemove(t *testing.T) {
	var s Session
	token, _ := s.Begin()
	s.Complete(token, Applied{Rule: Rule{Code: "SAVE10"}})
	s.Remove()
	if _, ok := s.Applied(); ok {
		t.Fatal("removed coupon still reported as applied")
	}
	if _, err := s.Begin(); err != nil {
		t.Fatalf("removal should free the slot: %v", err)
	}
}
