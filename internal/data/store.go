// Package data provides DB models and stores.
//
// Three interchangeable backends implement UserStore and MessageStore:
// MongoDB (UsersStore, MessagesStore), PostgreSQL (PGUsersStore,
// PGMessagesStore) and an in-process MemoryStore.
package data

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested user or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrAlreadyRead is returned by MarkRead when read_at is already set.
	ErrAlreadyRead = errors.New("already read")
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, username string) (*User, error)
	UserExists(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
	ListUsers(ctx context.Context) ([]*UserSummary, error)
}

// MessageStore persists messages. Listings are ordered by sent_at ascending,
// then by id.
type MessageStore interface {
	SaveMessage(ctx context.Context, fromUsername, toUsername, body string, sentAt time.Time) (*Message, error)
	GetMessage(ctx context.Context, id string) (*MessageDetail, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*Message, error)
	MessagesTo(ctx context.Context, username string) ([]*MessageDetail, error)
	MessagesFrom(ctx context.Context, username string) ([]*MessageDetail, error)
}
