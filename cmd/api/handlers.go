package main

import (
	"net/http"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/data"
	"github.com/PaulBabatuyi/messagely/internal/service"
	"github.com/go-chi/chi/v5"
)

type userJSON struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type userDetailJSON struct {
	userJSON
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// messageJSON is a message with the parties relevant to the response.
type messageJSON struct {
	ID       string     `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser *userJSON  `json:"from_user,omitempty"`
	ToUser   *userJSON  `json:"to_user,omitempty"`
}

type createdMessageJSON struct {
	ID           string    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type readReceiptJSON struct {
	ID     string    `json:"id"`
	ReadAt time.Time `json:"read_at"`
}

func toUserJSON(u data.UserSummary) *userJSON {
	return &userJSON{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}

type partyFilter int

const (
	bothParties partyFilter = iota
	senderOnly
	recipientOnly
)

func toMessageJSON(m *data.MessageDetail, parties partyFilter) messageJSON {
	out := messageJSON{
		ID:     m.ID,
		Body:   m.Body,
		SentAt: m.SentAt,
		ReadAt: m.ReadAt,
	}
	if parties != recipientOnly {
		out.FromUser = toUserJSON(m.FromUser)
	}
	if parties != senderOnly {
		out.ToUser = toUserJSON(m.ToUser)
	}
	return out
}

func toMessageList(msgs []*data.MessageDetail, parties partyFilter) []messageJSON {
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageJSON(m, parties))
	}
	return out
}

// login handles POST /login: {username, password} => {token}
func (app *application) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, r, err)
		return
	}

	token, err := app.creds.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// register handles POST /register:
// {username, password, first_name, last_name, phone} => {token}
func (app *application) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, r, err)
		return
	}

	token, err := app.creds.Register(r.Context(), service.RegisterInput{
		Username:  in.Username,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	})
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// getMessage handles GET /messages/{id}. Only the sender or recipient may
// see a message.
func (app *application) getMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := app.msgs.GetFor(r.Context(), chi.URLParam(r, "id"), requester(r))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": toMessageJSON(msg, bothParties)})
}

// createMessage handles POST /messages: {to_username, body} from the
// authenticated user.
func (app *application) createMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ToUsername string `json:"to_username"`
		Body       string `json:"body"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, r, err)
		return
	}

	msg, err := app.msgs.Create(r.Context(), requester(r), in.ToUsername, in.Body)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": createdMessageJSON{
		ID:           msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		Body:         msg.Body,
		SentAt:       msg.SentAt,
	}})
}

// markRead handles POST /messages/{id}/read. Only the recipient may mark a
// message read.
func (app *application) markRead(w http.ResponseWriter, r *http.Request) {
	receipt, err := app.msgs.MarkRead(r.Context(), chi.URLParam(r, "id"), requester(r))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": readReceiptJSON{ID: receipt.ID, ReadAt: receipt.ReadAt}})
}

func (app *application) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := app.dir.All(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	out := make([]*userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(*u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (app *application) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.dir.Get(r.Context(), pathUsername(r))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userDetailJSON{
		userJSON:    *toUserJSON(user.Summary()),
		JoinAt:      user.JoinAt,
		LastLoginAt: user.LastLoginAt,
	}})
}

// messagesTo lists the user's inbox; each entry carries the sender.
func (app *application) messagesTo(w http.ResponseWriter, r *http.Request) {
	msgs, err := app.dir.MessagesTo(r.Context(), pathUsername(r))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageList(msgs, senderOnly)})
}

// messagesFrom lists the user's sent messages; each entry carries the
// recipient.
func (app *application) messagesFrom(w http.ResponseWriter, r *http.Request) {
	msgs, err := app.dir.MessagesFrom(r.Context(), pathUsername(r))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageList(msgs, recipientOnly)})
}
