package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PaulBabatuyi/messagely/internal/config"
	"github.com/PaulBabatuyi/messagely/internal/data"
	"github.com/PaulBabatuyi/messagely/internal/db"
)

// backend bundles the stores of one storage engine with its lifecycle hooks.
type backend struct {
	name  string
	users data.UserStore
	msgs  data.MessageStore
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func memoryBackend() *backend {
	store := data.NewMemoryStore()
	return &backend{
		name:  config.BackendMemory,
		users: store,
		msgs:  store,
		ping:  func(context.Context) error { return nil },
		close: func(context.Context) error { return nil },
	}
}

// openBackend connects to the configured store and prepares its schema
// (migrations for Postgres, indexes for MongoDB).
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		conn, err := db.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return postgresBackend(conn), nil

	case config.BackendMongo:
		client, err := db.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if err := client.CreateIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return &backend{
			name:  config.BackendMongo,
			users: data.NewUsersStore(client.UsersCollection()),
			msgs:  data.NewMessagesStore(client.MessagesCollection()),
			ping:  client.Ping,
			close: client.Close,
		}, nil

	case config.BackendMemory:
		return memoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func postgresBackend(conn *sql.DB) *backend {
	return &backend{
		name:  config.BackendPostgres,
		users: data.NewPGUsersStore(conn),
		msgs:  data.NewPGMessagesStore(conn),
		ping:  conn.PingContext,
		close: func(context.Context) error { return conn.Close() },
	}
}
