package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velora-hq/backend-salon/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrConflict indicates a concurrent modification kept retrying past the limit.
var ErrConflict = errors.New("cart modified concurrently")

// Cart is the persisted session cart. Free items granted by coupons are never
// stored here; they are injected into the effective cart at summary time.
type Cart struct {
	ID                string             `json:"id"`
	UserID            string             `json:"userId,omitempty"`
	Items             []pricing.LineItem `json:"items"`
	AppliedCouponCode string             `json:"appliedCouponCode,omitempty"`
	Version           int64              `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// Store persists carts in Redis with a sliding TTL. Mutations use WATCH-based
// compare-and-set keyed on the cart version.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

const mutateRetries = 5

func cartKey(id string) string { return "cart:" + id }

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Get loads a cart by id.
func (s *Store) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	data, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

// Put writes a cart unconditionally, refreshing the TTL.
func (s *Store) Put(ctx context.Context, cart Cart) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.R.Set(ctx, cartKey(cart.ID), data, s.ttl()).Err()
}

// Mutate applies fn to the cart under optimistic concurrency control. The
// version is bumped on every successful write; a concurrent writer triggers a
// retry with fresh state.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*Cart) error) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	key := cartKey(id)
	var result Cart
	for attempt := 0; attempt < mutateRetries; attempt++ {
		err := s.R.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFound
				}
				return err
			}
			var cart Cart
			if err := json.Unmarshal(data, &cart); err != nil {
				return fmt.Errorf("decode cart: %w", err)
			}
			if err := fn(&cart); err != nil {
				return err
			}
			cart.Version++
			cart.UpdatedAt = time.Now().UTC()
			encoded, err := json.Marshal(cart)
			if err != nil {
				return fmt.Errorf("encode cart: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, s.ttl())
				return nil
			})
			if err == nil {
				result = cart
			}
			return err
		}, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Cart{}, err
	}
	return Cart{}, ErrConflict
}

// Delete removes a cart.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	return s.R.Del(ctx, cartKey(id)).Err()
}
