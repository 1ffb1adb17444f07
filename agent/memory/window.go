// Package memory keeps a bounded, per-session conversation window.
package memory

import (
	"container/list"
	"errors"
	"strings"
	"sync"
	"time"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

const (
	defaultWindowSize  = 10
	defaultMaxSessions = 1024
)

var ErrInvalidSession = errors.New("session id is empty")

// StoreOption customizes Store.
type StoreOption func(*Store)

// WithWindowSize sets the per-session message window capacity.
func WithWindowSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// WithMaxSessions bounds the number of tracked sessions. The
// least-recently-touched session is evicted when the bound is exceeded.
func WithMaxSessions(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

type sessionEntry struct {
	id       string
	messages []contractx.Message
	elem     *list.Element
}

// Store holds every session's window. Safe for concurrent use; Snapshot
// returns a point-in-time copy so a handed-out window is never corrupted
// by later appends.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*sessionEntry
	lru         *list.List // front = most recently touched
	windowSize  int
	maxSessions int
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions:    make(map[string]*sessionEntry),
		lru:         list.New(),
		windowSize:  defaultWindowSize,
		maxSessions: defaultMaxSessions,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Append adds a message to the session's window, evicting the oldest
// message once the window is full. A new session is created on first use.
func (s *Store) Append(sessionID string, msg contractx.Message) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sessionID)
	entry.messages = append(entry.messages, msg)
	if overflow := len(entry.messages) - s.windowSize; overflow > 0 {
		entry.messages = append(entry.messages[:0], entry.messages[overflow:]...)
	}
	return nil
}

// Snapshot returns the session's current window oldest-first. The returned
// slice is a copy. An unknown session yields an empty snapshot.
func (s *Store) Snapshot(sessionID string) []contractx.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	s.lru.MoveToFront(entry.elem)

	out := make([]contractx.Message, len(entry.messages))
	copy(out, entry.messages)
	return out
}

// Clear drops a session's window entirely.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	s.lru.Remove(entry.elem)
	delete(s.sessions, sessionID)
}

// Len reports the number of messages currently held for a session.
func (s *Store) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(entry.messages)
}

// touch returns the session entry, creating it if needed, and marks it
// most recently used. Caller holds s.mu.
func (s *Store) touch(sessionID string) *sessionEntry {
	if entry, ok := s.sessions[sessionID]; ok {
		s.lru.MoveToFront(entry.elem)
		return entry
	}

	entry := &sessionEntry{id: sessionID}
	entry.elem = s.lru.PushFront(entry)
	s.sessions[sessionID] = entry

	for len(s.sessions) > s.maxSessions {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		evicted := s.lru.Remove(oldest).(*sessionEntry)
		delete(s.sessions, evicted.id)
	}
	return entry
}
