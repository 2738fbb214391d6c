// Package conversation holds per-session state carried across turns: bounded
// question history and any pending clarification.
//
// Concurrency contract: turns within one session are processed strictly
// sequentially by the caller. The stores below still serialize per-key access
// so a host that cannot guarantee single-flight per session stays correct.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/cache"
)

// Turn is one answered question in a session's history.
type Turn struct {
	Question  string    `json:"question"`
	Entities  []string  `json:"entities"`
	Metrics   []string  `json:"metrics"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingClarification is the state stored when a turn ended in a
// clarification request.
type PendingClarification struct {
	OriginalQuestion string `json:"originalQuestion"`
	Message          string `json:"message"`
	PartialName      string `json:"partialName,omitempty"`
	// Candidates are the canonical names offered in the clarification; a
	// reply is matched against them regardless of how the user cases it.
	Candidates []string           `json:"candidates,omitempty"`
	Analysis   *analyzer.Analysis `json:"analysis,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Store is the pluggable session-state backend.
type Store interface {
	History(ctx context.Context, sessionID string) ([]Turn, error)
	AddTurn(ctx context.Context, sessionID string, turn Turn) error
	Pending(ctx context.Context, sessionID string) (*PendingClarification, error)
	SetPending(ctx context.Context, sessionID string, pending *PendingClarification) error
	ClearPending(ctx context.Context, sessionID string) error
}

// Config holds store tunables.
type Config struct {
	HistoryLen int
	TTL        time.Duration
}

// DefaultConfig returns session-store defaults.
func DefaultConfig() Config {
	return Config{HistoryLen: 10, TTL: 30 * time.Minute}
}

type memorySession struct {
	mu         sync.Mutex
	history    []Turn // most recent first
	pending    *PendingClarification
	lastActive time.Time
}

// MemoryStore keeps session state in-process. Suitable for a single-instance
// deployment; use RedisStore when running more than one replica.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	cfg      Config
}

// NewMemoryStore creates an in-memory store with TTL eviction.
func NewMemoryStore(cfg Config) *MemoryStore {
	if cfg.HistoryLen <= 0 {
		cfg.HistoryLen = DefaultConfig().HistoryLen
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*memorySession),
		cfg:      cfg,
	}
	go s.evictLoop()
	return s
}

func (s *MemoryStore) session(sessionID string) *memorySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.lastActive = time.Now()
	return sess
}

// History returns the session's turns, most recent first.
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Turn, len(sess.history))
	copy(out, sess.history)
	return out, nil
}

// AddTurn prepends a turn, trimming history to the configured bound.
func (s *MemoryStore) AddTurn(_ context.Context, sessionID string, turn Turn) error {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.history = append([]Turn{turn}, sess.history...)
	if len(sess.history) > s.cfg.HistoryLen {
		sess.history = sess.history[:s.cfg.HistoryLen]
	}
	return nil
}

// Pending returns the pending clarification, or nil.
func (s *MemoryStore) Pending(_ context.Context, sessionID string) (*PendingClarification, error) {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.pending, nil
}

// SetPending stores a pending clarification.
func (s *MemoryStore) SetPending(_ context.Context, sessionID string, pending *PendingClarification) error {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = pending
	return nil
}

// ClearPending discards any pending clarification.
func (s *MemoryStore) ClearPending(_ context.Context, sessionID string) error {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = nil
	return nil
}

func (s *MemoryStore) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-s.cfg.TTL)
		s.mu.Lock()
		for id, sess := range s.sessions {
			if sess.lastActive.Before(cutoff) {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}

// RedisStore keeps session state in Redis so multiple engine instances can
// share it. TTLs are applied per key; Redis handles eviction.
type RedisStore struct {
	client cache.Client
	cfg    Config
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client cache.Client, cfg Config) *RedisStore {
	if cfg.HistoryLen <= 0 {
		cfg.HistoryLen = DefaultConfig().HistoryLen
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &RedisStore{client: client, cfg: cfg}
}

func historyKey(sessionID string) string {
	return cache.SessionKey(sessionID, "history")
}

func pendingKey(sessionID string) string {
	return cache.SessionKey(sessionID, "pending")
}

// History returns the session's turns, most recent first.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	data, err := s.client.Get(ctx, historyKey(sessionID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// AddTurn prepends a turn, trimming history to the configured bound.
func (s *RedisStore) AddTurn(ctx context.Context, sessionID string, turn Turn) error {
	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}
	turns = append([]Turn{turn}, turns...)
	if len(turns) > s.cfg.HistoryLen {
		turns = turns[:s.cfg.HistoryLen]
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyKey(sessionID), data, s.cfg.TTL)
}

// Pending returns the pending clarification, or nil.
func (s *RedisStore) Pending(ctx context.Context, sessionID string) (*PendingClarification, error) {
	data, err := s.client.Get(ctx, pendingKey(sessionID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pending PendingClarification
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// SetPending stores a pending clarification.
func (s *RedisStore) SetPending(ctx context.Context, sessionID string, pending *PendingClarification) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pendingKey(sessionID), data, s.cfg.TTL)
}

// ClearPending discards any pending clarification.
func (s *RedisStore) ClearPending(ctx context.Context, sessionID string) error {
	return s.client.Delete(ctx, pendingKey(sessionID))
}
