package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// ErrInvalidRef is returned for malformed favorite references.
var ErrInvalidRef = errors.New("favorites: invalid reference")

// Favorite references a catalog item a user has saved.
type Favorite struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Service stores per-user favorites as a Redis set.
type Service struct {
	R *redis.Client
}

func key(userID string) string { return "fav:" + userID }

func member(kind, id string) (string, error) {
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if (kind != "service" && kind != "package") || id == "" {
		return "", ErrInvalidRef
	}
	return kind + ":" + id, nil
}

// Add saves the reference. Adding an existing favorite is a no-op.
func (s *Service) Add(ctx context.Context, userID, kind, id string) error {
	m, err := member(kind, id)
	if err != nil {
		return err
	}
	if err := s.R.SAdd(ctx, key(userID), m).Err(); err != nil {
		return fmt.Errorf("favorites: add: %w", err)
	}
	return nil
}

// Remove drops the reference. Removing a missing favorite is a no-op.
func (s *Service) Remove(ctx context.Context, userID, kind, id string) error {
	m, err := member(kind, id)
	if err != nil {
		return err
	}
	if err := s.R.SRem(ctx, key(userID), m).Err(); err != nil {
		return fmt.Errorf("favorites: remove: %w", err)
	}
	return nil
}

// List returns the user's favorites in a stable order.
func (s *Service) List(ctx context.Context, userID string) ([]Favorite, error) {
	members, err := s.R.SMembers(ctx, key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	sort.Strings(members)
	out := make([]Favorite, 0, len(members))
	for _, m := range members {
		kind, id, ok := strings.Cut(m, ":")
		if !ok {
			continue
		}
		out = append(out, Favorite{Kind: kind, ID: id})
	}
	return out, nil
}

// Check reports whether the reference is saved.
func (s *Service) Check(ctx context.Context, userID, kind, id string) (bool, error) {
	m, err := member(kind, id)
	if err != nil {
		return false, err
	}
	saved, err := s.R.SIsMember(ctx, key(userID), m).Result()
	if err != nil {
		return false, fmt.Errorf("favorites: check: %w", err)
	}
	return saved, nil
}
