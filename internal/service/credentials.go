package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/auth"
	"github.com/PaulBabatuyi/messagely/internal/data"
	"github.com/PaulBabatuyi/messagely/internal/normalize"
)

// TokenIssuer issues bearer tokens for a username.
type TokenIssuer interface {
	GenerateToken(username string) (string, time.Time, error)
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Credentials registers and authenticates users.
type Credentials struct {
	users      data.UserStore
	tokens     TokenIssuer
	bcryptCost int
	// dummyHash has the same cost as stored hashes; unknown users are
	// checked against it.
	dummyHash string
	now       func() time.Time
}

// NewCredentials returns a Credentials service. A bcryptCost outside bcrypt's
// range uses the default cost.
func NewCredentials(users data.UserStore, tokens TokenIssuer, bcryptCost int) (*Credentials, error) {
	dummy, err := auth.NewDummyHash(bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Credentials{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates the account and returns a token for it. Registering
// counts as the first login.
func (c *Credentials) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Username = normalize.Username(in.Username)
	in.FirstName = normalize.Field(in.FirstName)
	in.LastName = normalize.Field(in.LastName)
	in.Phone = normalize.Field(in.Phone)
	if in.Username == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" || in.Phone == "" {
		return "", fmt.Errorf("%w: username, password, first name, last name and phone are required", ErrValidation)
	}

	if len(in.Password) > auth.MaxPasswordBytes {
		return "", fmt.Errorf("%w: %v", ErrValidation, auth.ErrPasswordTooLong)
	}

	hashed, err := auth.HashPasswordCost(in.Password, c.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := c.now()
	user := &data.User{
		Username:    in.Username,
		Password:    hashed,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		JoinAt:      now,
		LastLoginAt: now,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, data.ErrDuplicate) {
			return "", fmt.Errorf("%w: username %q is taken", ErrConflict, in.Username)
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	return c.issue(in.Username)
}

// Authenticate reports whether password matches the stored hash for
// username. On success the user's last-login timestamp is updated.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (bool, error) {
	username = normalize.Username(username)

	user, err := c.users.GetUser(ctx, username)
	if errors.Is(err, data.ErrNotFound) {
		auth.BurnPasswordCheck(c.dummyHash, password)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}

	if err := auth.CheckPassword(user.Password, password); err != nil {
		return false, nil
	}

	// never move last-login backwards, even if the clock did
	at := c.now()
	if at.Before(user.LastLoginAt) {
		at = user.LastLoginAt
	}
	if err := c.users.UpdateLastLogin(ctx, username, at); err != nil {
		return false, fmt.Errorf("update last login: %w", err)
	}
	return true, nil
}

// Login authenticates and returns a token. Missing fields and bad
// credentials are both validation failures.
func (c *Credentials) Login(ctx context.Context, username, password string) (string, error) {
	username = normalize.Username(username)
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password required", ErrValidation)
	}

	ok, err := c.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: invalid login info", ErrValidation)
	}
	return c.issue(username)
}

func (c *Credentials) issue(username string) (string, error) {
	token, _, err := c.tokens.GenerateToken(username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
