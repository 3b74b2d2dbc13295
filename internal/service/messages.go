package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/data"
	"github.com/PaulBabatuyi/messagely/internal/normalize"
)

// ReadReceipt is the result of marking a message read.
type ReadReceipt struct {
	ID     string
	ReadAt time.Time
}

// Messages creates messages and enforces who may see or mark them.
type Messages struct {
	users data.UserStore
	msgs  data.MessageStore
	now   func() time.Time
}

// NewMessages returns a Messages service.
func NewMessages(users data.UserStore, msgs data.MessageStore) *Messages {
	return &Messages{
		users: users,
		msgs:  msgs,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a message from one user to another.
func (m *Messages) Create(ctx context.Context, from, to, body string) (*data.Message, error) {
	to = normalize.Username(to)
	if to == "" || body == "" {
		return nil, fmt.Errorf("%w: to_username and body are required", ErrValidation)
	}

	exists, err := m.users.UserExists(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("check recipient: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: recipient %q does not exist", ErrValidation, to)
	}

	msg, err := m.msgs.SaveMessage(ctx, normalize.Username(from), to, body, m.now())
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// Get returns a message with both parties' profiles.
func (m *Messages) Get(ctx context.Context, id string) (*data.MessageDetail, error) {
	msg, err := m.msgs.GetMessage(ctx, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, fmt.Errorf("%w: no such message: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// GetFor returns the message only if requester is its sender or recipient.
func (m *Messages) GetFor(ctx context.Context, id, requester string) (*data.MessageDetail, error) {
	msg, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester != msg.FromUsername && requester != msg.ToUsername {
		return nil, fmt.Errorf("%w: not a party to this message", ErrAuth)
	}
	return msg, nil
}

// MarkRead sets the read timestamp. Only the recipient may do this, and only
// once.
func (m *Messages) MarkRead(ctx context.Context, id, requester string) (*ReadReceipt, error) {
	msg, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester != msg.ToUsername {
		return nil, fmt.Errorf("%w: only the recipient can mark a message read", ErrAuth)
	}

	read, err := m.msgs.MarkRead(ctx, id, m.now())
	switch {
	case errors.Is(err, data.ErrAlreadyRead):
		return nil, fmt.Errorf("%w: message %s is already read", ErrConflict, id)
	case errors.Is(err, data.ErrNotFound):
		return nil, fmt.Errorf("%w: no such message: %s", ErrNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return &ReadReceipt{ID: read.ID, ReadAt: *read.ReadAt}, nil
}
