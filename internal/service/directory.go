package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PaulBabatuyi/messagely/internal/data"
	"github.com/PaulBabatuyi/messagely/internal/normalize"
)

// Directory lists users and their mailboxes.
type Directory struct {
	users data.UserStore
	msgs  data.MessageStore
}

// NewDirectory returns a Directory service.
func NewDirectory(users data.UserStore, msgs data.MessageStore) *Directory {
	return &Directory{users: users, msgs: msgs}
}

// All returns every user's public profile ordered by username.
func (d *Directory) All(ctx context.Context) ([]*data.UserSummary, error) {
	users, err := d.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns the full user record. Callers must not expose the password hash.
func (d *Directory) Get(ctx context.Context, username string) (*data.User, error) {
	username = normalize.Username(username)
	user, err := d.users.GetUser(ctx, username)
	if errors.Is(err, data.ErrNotFound) {
		return nil, fmt.Errorf("%w: no such user: %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// MessagesTo returns messages received by username, oldest first.
func (d *Directory) MessagesTo(ctx context.Context, username string) ([]*data.MessageDetail, error) {
	return d.mailbox(ctx, username, d.msgs.MessagesTo)
}

// MessagesFrom returns messages sent by username, oldest first.
func (d *Directory) MessagesFrom(ctx context.Context, username string) ([]*data.MessageDetail, error) {
	return d.mailbox(ctx, username, d.msgs.MessagesFrom)
}

func (d *Directory) mailbox(ctx context.Context, username string, list func(context.Context, string) ([]*data.MessageDetail, error)) ([]*data.MessageDetail, error) {
	username = normalize.Username(username)
	exists, err := d.users.UserExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: no such user: %s", ErrNotFound, username)
	}

	msgs, err := list(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
