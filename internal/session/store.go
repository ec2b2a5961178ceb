package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeySession  = "session:record:"
	redisKeySeat     = "session:seat:"
	sessionRetention = 24 * time.Hour
)

// Store persists live session records so a process restart does not orphan
// running sessions. The seat is the one-live-session-per-player reservation;
// it lives in the store, not in process memory, so a restarted process still
// refuses a second session for a player whose first one is live.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)

	// AcquireSeat reserves the player's seat for a game. Returns false when
	// the seat is already held.
	AcquireSeat(ctx context.Context, gameName, playerID, sessionID string) (bool, error)
	ReleaseSeat(ctx context.Context, gameName, playerID string) error
}

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	seats    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		seats:    make(map[string]string),
	}
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := s
	return &copied, nil
}

func (m *MemoryStore) AcquireSeat(ctx context.Context, gameName, playerID, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := gameName + ":" + playerID
	if _, held := m.seats[key]; held {
		return false, nil
	}
	m.seats[key] = sessionID
	return true, nil
}

func (m *MemoryStore) ReleaseSeat(ctx context.Context, gameName, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seats, gameName+":"+playerID)
	return nil
}

// sessionRecord carries the fields the JSON API hides but persistence needs.
type sessionRecord struct {
	Session
	ServerSeed string  `json:"server_seed"`
	CrashPoint float64 `json:"crash_point"`
}

// RedisStore keeps session records in Redis with a retention window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	rec := sessionRecord{Session: *s, ServerSeed: s.ServerSeed, CrashPoint: s.CrashPoint}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, redisKeySession+s.ID, data, sessionRetention).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKeySession+id).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	s := rec.Session
	s.ServerSeed = rec.ServerSeed
	s.CrashPoint = rec.CrashPoint
	return &s, nil
}

// AcquireSeat takes the seat with SET NX so two processes sharing the Redis
// backend cannot both seat the same player. The seat expires with the same
// retention window as the record it guards.
func (r *RedisStore) AcquireSeat(ctx context.Context, gameName, playerID, sessionID string) (bool, error) {
	taken, err := r.client.SetNX(ctx, redisKeySeat+gameName+":"+playerID, sessionID, sessionRetention).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring seat for %s: %w", playerID, err)
	}
	return taken, nil
}

func (r *RedisStore) ReleaseSeat(ctx context.Context, gameName, playerID string) error {
	if err := r.client.Del(ctx, redisKeySeat+gameName+":"+playerID).Err(); err != nil {
		return fmt.Errorf("releasing seat for %s: %w", playerID, err)
	}
	return nil
}
