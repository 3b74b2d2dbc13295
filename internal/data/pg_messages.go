package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PaulBabatuyi/messagely/internal/db"
)

// selectDetail joins both parties' profiles onto messages.
const selectDetail = `SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		f.first_name, f.last_name, f.phone,
		t.first_name, t.last_name, t.phone
	FROM messages AS m
	JOIN users AS f ON f.username = m.from_username
	JOIN users AS t ON t.username = m.to_username`

// PGMessagesStore performs message DB operations against PostgreSQL.
type PGMessagesStore struct {
	conn *sql.DB
}

var _ MessageStore = (*PGMessagesStore)(nil)

// NewPGMessagesStore returns a PGMessagesStore over conn.
func NewPGMessagesStore(conn *sql.DB) *PGMessagesStore {
	return &PGMessagesStore{conn: conn}
}

func (r *PGMessagesStore) SaveMessage(ctx context.Context, fromUsername, toUsername, body string, sentAt time.Time) (*Message, error) {
	msg := &Message{
		ID:           uuid.NewString(),
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       sentAt,
	}

	query :=
		`INSERT INTO messages (id, from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.conn.ExecContext(ctx, query, msg.ID, msg.FromUsername, msg.ToUsername, msg.Body, msg.SentAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *PGMessagesStore) GetMessage(ctx context.Context, id string) (*MessageDetail, error) {
	details, err := r.query(ctx, selectDetail+` WHERE m.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return details[0], nil
}

// MarkRead locks the row, checks read_at and sets it inside one transaction.
func (r *PGMessagesStore) MarkRead(ctx context.Context, id string, at time.Time) (*Message, error) {
	var msg *Message

	err := db.WithTx(ctx, r.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		m := &Message{}
		var readAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT id, from_username, to_username, body, sent_at, read_at
			 FROM messages
			 WHERE id = $1
			 FOR UPDATE`, id).
			Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt, &readAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			return ErrAlreadyRead
		}

		if _, err := tx.ExecContext(ctx, `UPDATE messages SET read_at = $1 WHERE id = $2`, at, id); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		m.ReadAt = &at
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *PGMessagesStore) MessagesTo(ctx context.Context, username string) ([]*MessageDetail, error) {
	return r.query(ctx, selectDetail+` WHERE m.to_username = $1 ORDER BY m.sent_at, m.id`, username)
}

func (r *PGMessagesStore) MessagesFrom(ctx context.Context, username string) ([]*MessageDetail, error) {
	return r.query(ctx, selectDetail+` WHERE m.from_username = $1 ORDER BY m.sent_at, m.id`, username)
}

func (r *PGMessagesStore) query(ctx context.Context, query string, args ...any) ([]*MessageDetail, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	details := []*MessageDetail{}
	for rows.Next() {
		d := &MessageDetail{}
		var readAt sql.NullTime
		err := rows.Scan(
			&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &d.SentAt, &readAt,
			&d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
			&d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			d.ReadAt = &t
		}
		d.FromUser.Username = d.FromUsername
		d.ToUser.Username = d.ToUsername
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return details, nil
}
