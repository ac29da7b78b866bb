package coupon

import "sync"

type sessionState int

const (
	// sessionIdle means no coupon is applied and no application is pending.
	sessionIdle sessionState = iota
	// sessionApplying means a lookup/validation round-trip is in flight.
	sessionApplying
	// sessionApplied means a single coupon is active for the session.
	sessionApplied
)

// Session models the single coupon slot of a booking session. Applying a new
// coupon replaces any previously applied one; a failed application restores
// the previous slot contents. Begin/Complete carry a token so a response that
// was superseded by a newer attempt can never overwrite fresher state.
type Session struct {
	mu      sync.Mutex
	state   sessionState
	applied *Applied
	token   uint64
}

// Begin transitions to applying and returns the token the caller must present
// on completion. Only one application may be in flight at a time.
func (s *Session) Begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == sessionApplying {
		return 0, ErrApplyInFlight
	}
	s.state = sessionApplying
	s.token++
	return s.token, nil
}

// Complete installs the applied coupon. Stale tokens are ignored so a late
// response cannot clobber a newer application.
func (s *Session) Complete(token uint64, applied Applied) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.state != sessionApplying {
		return false
	}
	copied := applied
	s.applied = &copied
	s.state = sessionApplied
	return true
}

// Fail reverts a pending application, restoring the previous slot contents.
func (s *Session) Fail(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.state != sessionApplying {
		return
	}
	if s.applied != nil {
		s.state = sessionApplied
		return
	}
	s.state = sessionIdle
}

// Remove clears the slot.
func (s *Session) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = nil
	if s.state != sessionApplying {
		s.state = sessionIdle
	}
}

// Applied returns the active coupon, if any.
func (s *Session) Applied() (Applied, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return Applied{}, false
	}
	return *s.applied, true
}
