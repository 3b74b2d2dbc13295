package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Error handling
	"fmt"
	"time" // Timestamps

	"go.mongodb.org/mongo-driver/v2/bson"          // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options" // Query options
)

// UsersStore performs user DB operations against MongoDB.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	// Set via NewUsersStore() and used in all methods below
	coll *mongo.Collection
}

var _ UserStore = (*UsersStore)(nil)

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user document with an already hashed password.
func (u *UsersStore) CreateUser(ctx context.Context, user *User) error {
	// The unique index on "username" (see db.CreateIndexes) is what actually
	// guarantees uniqueness; two concurrent registrations race on the index.
	if _, err := u.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser finds a user by username.
func (u *UsersStore) GetUser(ctx context.Context, username string) (*User, error) {
	var user User

	// bson.M{"username": username} creates MongoDB query filter: {username: "alice"}
	err := u.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &user, nil
}

// UserExists checks if a user exists by username.
func (u *UsersStore) UserExists(ctx context.Context, username string) (bool, error) {
	// CountDocuments with a limit of 1 stops scanning at the first match
	count, err := u.coll.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// UpdateLastLogin sets last_login_at for the user.
func (u *UsersStore) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	res, err := u.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"last_login_at": at}},
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns every user's public profile ordered by username.
func (u *UsersStore) ListUsers(ctx context.Context) ([]*UserSummary, error) {
	// Projection keeps password hashes out of the result set entirely
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetProjection(bson.M{"_id": 0, "username": 1, "first_name": 1, "last_name": 1, "phone": 1})

	cursor, err := u.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*UserSummary{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
