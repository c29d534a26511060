// Package reserve takes short-lived advisory reservations on project number
// slots in Redis.
//
// Generating a project number is check-then-act over a possibly stale
// snapshot: two concurrent creations for the same (year, country) can both
// compute the same sequence. A reservation narrows that window across API
// instances; it does not close it, and the unique index on the projects
// table remains the hard guarantee.
package reserve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long an unfinished create holds a slot.
const DefaultTTL = 30 * time.Second

// ErrSlotTaken means another session currently holds the slot.
var ErrSlotTaken = errors.New("number slot already reserved")

// Reserver takes and releases number-slot reservations.
type Reserver struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at redisURL.
func New(redisURL string, ttl time.Duration) (*Reserver, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Reserver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Reserver{client: client, ttl: ttl}
}

func slotKey(country, year, seq int) string {
	return fmt.Sprintf("numslot:%02d:%d:%02d", year, country, seq)
}

// Reserve claims the (year, country, seq) slot for owner until the TTL
// lapses or Release is called. ErrSlotTaken means another owner got there
// first and the caller should regenerate.
func (r *Reserver) Reserve(ctx context.Context, country, year, seq int, owner string) error {
	ok, err := r.client.SetNX(ctx, slotKey(country, year, seq), owner, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("reserve number slot: %w", err)
	}
	if !ok {
		return ErrSlotTaken
	}
	return nil
}

// Release frees a slot if owner still holds it. Releasing a slot that
// expired or changed hands is not an error.
func (r *Reserver) Release(ctx context.Context, country, year, seq int, owner string) error {
	key := slotKey(country, year, seq)
	current, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release number slot: %w", err)
	}
	if current != owner {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release number slot: %w", err)
	}
	return nil
}

// Ping checks Redis reachability.
func (r *Reserver) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (r *Reserver) Close() error {
	return r.client.Close()
}
