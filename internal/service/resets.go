package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultResetTTL is how long a password reset token stays valid.
const DefaultResetTTL = 30 * time.Minute

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	// Save stores token for userID until ttl elapses.
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// Consume returns the user for token and deletes it. Unknown or expired
	// tokens return ErrInvalidToken.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// newResetToken returns 32 random bytes, base64url encoded.
func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// tokenDigest is the storage key for a token; raw tokens are never stored.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// REDIS
// =============================================================================

// ResetKeyPrefix namespaces reset tokens in Redis.
const ResetKeyPrefix = "recipebox:reset:"

// RedisResetStore stores reset tokens as keys with a TTL.
type RedisResetStore struct {
	rdb *redis.Client
}

var _ ResetTokenStore = (*RedisResetStore)(nil)

// NewRedisResetStore creates a Redis-backed store.
func NewRedisResetStore(rdb *redis.Client) *RedisResetStore {
	return &RedisResetStore{rdb: rdb}
}

func (r *RedisResetStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, ResetKeyPrefix+tokenDigest(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (r *RedisResetStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.rdb.GetDel(ctx, ResetKeyPrefix+tokenDigest(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: corrupt entry", ErrInvalidToken)
	}
	return id, nil
}

// =============================================================================
// MEMORY
// =============================================================================

type resetEntry struct {
	userID  uuid.UUID
	expires time.Time
}

// MemoryResetStore keeps tokens in process memory. Used when Redis is not configured.
type MemoryResetStore struct {
	mu      sync.Mutex
	entries map[string]resetEntry
	now     func() time.Time
}

var _ ResetTokenStore = (*MemoryResetStore)(nil)

// NewMemoryResetStore creates an empty in-memory store.
func NewMemoryResetStore() *MemoryResetStore {
	return &MemoryResetStore{entries: make(map[string]resetEntry), now: time.Now}
}

func (m *MemoryResetStore) Save(_ context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[tokenDigest(token)] = resetEntry{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (m *MemoryResetStore) Consume(_ context.Context, token string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tokenDigest(token)
	e, ok := m.entries[key]
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	delete(m.entries, key)
	if !m.now().Before(e.expires) {
		return uuid.Nil, ErrInvalidToken
	}
	return e.userID, nil
}
