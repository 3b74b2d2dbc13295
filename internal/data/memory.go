package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users and messages in process memory. It implements both
// UserStore and MessageStore and is meant for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]User
	messages map[string]Message
}

var (
	_ UserStore    = (*MemoryStore)(nil)
	_ MessageStore = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]User{},
		messages: map[string]Message{},
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return ErrDuplicate
	}
	s.users[u.Username] = *u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[username]
	return ok, nil
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = at
	s.users[username] = u
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]*UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*UserSummary, 0, len(s.users))
	for _, u := range s.users {
		sum := u.Summary()
		users = append(users, &sum)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, fromUsername, toUsername, body string, sentAt time.Time) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:           uuid.NewString(),
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       sentAt,
	}
	s.messages[msg.ID] = msg
	return &msg, nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*MessageDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.detail(m), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string, at time.Time) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.ReadAt != nil {
		return nil, ErrAlreadyRead
	}
	m.ReadAt = &at
	s.messages[id] = m
	return &m, nil
}

func (s *MemoryStore) MessagesTo(_ context.Context, username string) ([]*MessageDetail, error) {
	return s.filter(func(m Message) bool { return m.ToUsername == username }), nil
}

func (s *MemoryStore) MessagesFrom(_ context.Context, username string) ([]*MessageDetail, error) {
	return s.filter(func(m Message) bool { return m.FromUsername == username }), nil
}

func (s *MemoryStore) filter(keep func(Message) bool) []*MessageDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := []*MessageDetail{}
	for _, m := range s.messages {
		if keep(m) {
			details = append(details, s.detail(m))
		}
	}
	sort.Slice(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if !a.SentAt.Equal(b.SentAt) {
			return a.SentAt.Before(b.SentAt)
		}
		return a.ID < b.ID
	})
	return details
}

// detail must be called with s.mu held.
func (s *MemoryStore) detail(m Message) *MessageDetail {
	d := &MessageDetail{Message: m}
	if m.ReadAt != nil {
		t := *m.ReadAt
		d.ReadAt = &t
	}
	if u, ok := s.users[m.FromUsername]; ok {
		d.FromUser = u.Summary()
	}
	if u, ok := s.users[m.ToUsername]; ok {
		d.ToUser = u.Summary()
	}
	return d
}
