package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// usersCollection is the collection joined by $lookup; it must match
// db.Client.UsersCollection.
const usersCollection = "users"

// MessagesStore provides message database operations against MongoDB.
type MessagesStore struct {
	// coll is reference to "messages" collection in MongoDB
	coll *mongo.Collection
}

var _ MessageStore = (*MessagesStore)(nil)

// NewMessagesStore returns a MessagesStore using given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// SaveMessage inserts a message document and returns the saved record.
func (m *MessagesStore) SaveMessage(ctx context.Context, fromUsername, toUsername, body string, sentAt time.Time) (*Message, error) {
	msg := &Message{
		// ObjectID hex keeps ids roughly time ordered, which makes the
		// (sent_at, _id) sort stable for messages sent in the same millisecond
		ID:           bson.NewObjectID().Hex(),
		FromUsername: normalize.Username(fromUsername),
		ToUsername:   normalize.Username(toUsername),
		Body:         body,
		SentAt:       sentAt,
	}

	if _, err := m.coll.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// GetMessage returns a message with sender and recipient profiles attached.
func (m *MessagesStore) GetMessage(ctx context.Context, id string) (*MessageDetail, error) {
	details, err := m.aggregate(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return details[0], nil
}

// MarkRead sets read_at on an unread message. The filter on read_at == null
// makes the transition atomic: of two concurrent calls only one matches.
func (m *MessagesStore) MarkRead(ctx context.Context, id string, at time.Time) (*Message, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "read_at", Value: nil}, // matches null and missing
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "read_at", Value: at}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg Message
	err := m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if err == nil {
		return &msg, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	// Nothing matched: either the id is unknown or read_at was already set
	count, err := m.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("count message: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyRead
}

// MessagesTo returns messages received by username, oldest first.
func (m *MessagesStore) MessagesTo(ctx context.Context, username string) ([]*MessageDetail, error) {
	return m.aggregate(ctx, bson.D{{Key: "to_username", Value: normalize.Username(username)}})
}

// MessagesFrom returns messages sent by username, oldest first.
func (m *MessagesStore) MessagesFrom(ctx context.Context, username string) ([]*MessageDetail, error) {
	return m.aggregate(ctx, bson.D{{Key: "from_username", Value: normalize.Username(username)}})
}

// aggregate runs a match -> sort -> lookup pipeline that joins both parties'
// profiles onto each message.
func (m *MessagesStore) aggregate(ctx context.Context, match bson.D) ([]*MessageDetail, error) {
	pipeline := mongo.Pipeline{
		// Stage 1: $match - the caller's filter (by id, sender or recipient)
		bson.D{{Key: "$match", Value: match}},

		// Stage 2: $sort - chronological, _id breaks ties
		bson.D{{Key: "$sort", Value: bson.D{{Key: "sent_at", Value: 1}, {Key: "_id", Value: 1}}}},

		// Stage 3: $lookup - attach sender and recipient user documents
		lookupUser("from_username", "from_user"),
		lookupUser("to_username", "to_user"),

		// Stage 4: $unwind - $lookup yields arrays; keep the single element
		unwindUser("$from_user"),
		unwindUser("$to_user"),

		// Stage 5: $project - never ship password hashes out of the store
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "from_user.password", Value: 0},
			{Key: "to_user.password", Value: 0},
		}}},
	}

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate messages: %w", err)
	}
	defer cursor.Close(ctx)

	details := []*MessageDetail{}
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return details, nil
}

func lookupUser(localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: usersCollection},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "username"},
		{Key: "as", Value: as},
	}}}
}

func unwindUser(path string) bson.D {
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: path},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}
