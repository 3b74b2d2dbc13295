package data

import (
	"time"
)

// User maps to the users collection/table. Username is the unique key.
type User struct {
	Username    string    `bson:"username"`
	Password    string    `bson:"password"`
	FirstName   string    `bson:"first_name"`
	LastName    string    `bson:"last_name"`
	Phone       string    `bson:"phone"`
	JoinAt      time.Time `bson:"join_at"`
	LastLoginAt time.Time `bson:"last_login_at"`
}

// Summary returns the public profile of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// UserSummary is the public part of a user embedded in message listings.
type UserSummary struct {
	Username  string `bson:"username"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Phone     string `bson:"phone"`
}

// Message maps to the messages collection/table. ReadAt stays nil until the
// recipient marks the message read.
type Message struct {
	ID           string     `bson:"_id"`
	FromUsername string     `bson:"from_username"`
	ToUsername   string     `bson:"to_username"`
	Body         string     `bson:"body"`
	SentAt       time.Time  `bson:"sent_at"`
	ReadAt       *time.Time `bson:"read_at"`
}

// MessageDetail is a message with both parties' public profiles attached.
type MessageDetail struct {
	Message  `bson:",inline"`
	FromUser UserSummary `bson:"from_user"`
	ToUser   UserSummary `bson:"to_user"`
}
