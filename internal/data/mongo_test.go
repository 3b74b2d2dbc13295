package data

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/db"
)

func setupDB(t *testing.T) *db.Client {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, uri, "messagely_test")
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	// ensure clean collections in case previous runs left data
	_ = c.UsersCollection().Drop(ctx)
	_ = c.MessagesCollection().Drop(ctx)

	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}
	return c
}

func seedUser(t *testing.T, users UserStore, username string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	err := users.CreateUser(context.Background(), &User{
		Username: username, Password: "hash", FirstName: username, LastName: "Test",
		Phone: "555-0100", JoinAt: now, LastLoginAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
}

func TestMongoUsers(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	users := NewUsersStore(c.UsersCollection())
	ctx := context.Background()

	seedUser(t, users, "bob")
	seedUser(t, users, "alice")

	// duplicate username is rejected by the unique index
	err := users.CreateUser(ctx, &User{Username: "alice"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	ok, err := users.UserExists(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("UserExists failed: ok=%v err=%v", ok, err)
	}

	later := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
	if err := users.UpdateLastLogin(ctx, "alice", later); err != nil {
		t.Fatalf("UpdateLastLogin failed: %v", err)
	}
	u, err := users.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !u.LastLoginAt.Equal(later) {
		t.Fatalf("last login not updated: %v", u.LastLoginAt)
	}

	if _, err := users.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(list) != 2 || list[0].Username != "alice" || list[1].Username != "bob" {
		t.Fatalf("unexpected users list: %+v", list)
	}
}

func TestMongoMessages(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	users := NewUsersStore(c.UsersCollection())
	msgs := NewMessagesStore(c.MessagesCollection())
	ctx := context.Background()

	seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	now := time.Now().UTC().Truncate(time.Millisecond)
	first, err := msgs.SaveMessage(ctx, "alice", "bob", "hi bob", now)
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if _, err := msgs.SaveMessage(ctx, "alice", "bob", "still there?", now.Add(time.Second)); err != nil {
		t.Fatalf("SaveMessage 2 failed: %v", err)
	}
	if _, err := msgs.SaveMessage(ctx, "bob", "alice", "hello alice", now.Add(2*time.Second)); err != nil {
		t.Fatalf("SaveMessage 3 failed: %v", err)
	}

	got, err := msgs.GetMessage(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if got.FromUser.Username != "alice" || got.ToUser.Username != "bob" || got.ReadAt != nil {
		t.Fatalf("unexpected detail: %+v", got)
	}

	inbox, err := msgs.MessagesTo(ctx, "bob")
	if err != nil {
		t.Fatalf("MessagesTo failed: %v", err)
	}
	if len(inbox) != 2 || inbox[0].Body != "hi bob" || inbox[1].Body != "still there?" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	outbox, err := msgs.MessagesFrom(ctx, "bob")
	if err != nil {
		t.Fatalf("MessagesFrom failed: %v", err)
	}
	if len(outbox) != 1 || outbox[0].ToUser.FirstName != "alice" {
		t.Fatalf("unexpected outbox: %+v", outbox)
	}

	read, err := msgs.MarkRead(ctx, first.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if read.ReadAt == nil {
		t.Fatal("expected read_at to be set")
	}
	if _, err := msgs.MarkRead(ctx, first.ID, now.Add(2*time.Minute)); !errors.Is(err, ErrAlreadyRead) {
		t.Fatalf("expected ErrAlreadyRead, got %v", err)
	}
	if _, err := msgs.MarkRead(ctx, "missing", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
