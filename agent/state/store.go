package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrStateNotFound = errors.New("conversation state not found")

const (
	defaultStoreKeyPrefix = "dbchat:session:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store is the persistence contract used by the workflow engine.
// Conversation state lives for one session; cross-session persistence
// is an operator choice, not a core requirement.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, sessionID string) error
}

/* ------------------------------ MemoryStore ----------------------------- */

// MemoryStore keeps conversations in process memory. It is the default
// store for a single terminal session.
type MemoryStore struct {
	mu    sync.Mutex
	convs map[string]*Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*Conversation, 4)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*Conversation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return conv, nil
}

func (m *MemoryStore) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(conv.SessionID) == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[conv.SessionID] = conv
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, sessionID)
	return nil
}

/* ------------------------------ RedisStore ------------------------------ */

// StoreOption customizes RedisStore.
type StoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// RedisStore persists conversations in Redis as JSON with a TTL, for
// deployments where sessions outlive a single process.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client *redis.Client, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	store := &RedisStore{
		client:    client,
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Conversation, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation loaded from store: %w", err)
	}
	return &conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	key, err := s.redisKey(conv.SessionID)
	if err != nil {
		return err
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}
