package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reader is the catalog access the service needs. *Store satisfies it.
type Reader interface {
	GetByCode(ctx context.Context, code string) (Rule, error)
	ListActive(ctx context.Context, from string) ([]Rule, error)
}

// Service validates and applies coupons against cart subtotals.
type Service struct {
	Store Reader
	Now   func() time.Time
}

func (s *Service) today() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Format(time.DateOnly)
}

// Apply looks up the code, validates it against the subtotal and returns the
// applied outcome. Lookup failures other than a missing row surface as
// ErrCatalogUnavailable so callers can distinguish "bad code" from "cannot
// check right now".
func (s *Service) Apply(ctx context.Context, code string, subtotal int64) (Applied, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Applied{}, ErrNotFound
	}
	rule, err := s.Store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Applied{}, ErrNotFound
		}
		return Applied{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if err := rule.Validate(s.today(), subtotal); err != nil {
		return Applied{}, err
	}
	applied := Applied{Rule: rule, Discount: rule.Discount(subtotal)}
	if rule.FreeService != nil {
		item := FreeLineItem(*rule.FreeService)
		applied.FreeItem = &item
	}
	return applied, nil
}

// Revalidate re-checks an already applied rule against a fresh subtotal and
// recomputes its discount. Used when cart contents change after application.
func (s *Service) Revalidate(rule Rule, subtotal int64) (Applied, error) {
	if err := rule.Validate(s.today(), subtotal); err != nil {
		return Applied{}, err
	}
	applied := Applied{Rule: rule, Discount: rule.Discount(subtotal)}
	if rule.FreeService != nil {
		item := FreeLineItem(*rule.FreeService)
		applied.FreeItem = &item
	}
	return applied, nil
}

// ListOffers returns the coupons and offers still valid today, soonest expiry
// first. Codeless offers are included for display even though they cannot be
// applied.
func (s *Service) ListOffers(ctx context.Context) ([]Rule, error) {
	rules, err := s.Store.ListActive(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return rules, nil
}
