package prefs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Store persists per-user display preferences in Redis. The dialer has
// exactly one: whether the dial pad is shown.
type Store struct {
	client *redis.Client
}

// NewStore constructs a preference store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// DialPadShown reports the stored dial pad preference. Absent keys default
// to shown.
func (s *Store) DialPadShown(ctx context.Context, userID uuid.UUID) (bool, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("prefs: get dial pad: %w", err)
	}
	return val == "1", nil
}

// SetDialPadShown stores the dial pad preference.
func (s *Store) SetDialPadShown(ctx context.Context, userID uuid.UUID, shown bool) error {
	val := "0"
	if shown {
		val = "1"
	}
	if err := s.client.Set(ctx, s.key(userID), val, 0).Err(); err != nil {
		return fmt.Errorf("prefs: set dial pad: %w", err)
	}
	return nil
}

func (s *Store) key(userID uuid.UUID) string {
	return fmt.Sprintf("dialer:user:%s:dialpad", userID.String())
}
