// Package user defines the dashboard users, the audited actions they perform
// and the repositories persisting them.
package user

import "time"

// Action identifiers seeded in the actions table.
const (
	ActionLogin  = 1
	ActionLogout = 2
)

// User is an account allowed to see private forecast records.
type User struct {
	ID           string `json:"id"`
	Mail         string `json:"mail"`
	PasswordHash string `json:"-"` // Never serialize password hash
}

// Action is one kind of audited event.
type Action struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserAction records one audited event performed by a user.
type UserAction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ActionID      int       `json:"actionId"`
	RemoteAddr    string    `json:"remoteAddr"`
	HTTPUserAgent string    `json:"httpUserAgent"`
	Datetime      time.Time `json:"datetime"`
}

// DatetimeLayout formats UserAction.Datetime: seconds with the local offset.
const DatetimeLayout = "2006-01-02T15:04:05-07:00"

// UserRepository defines the operations for persisting User entities.
type UserRepository interface {
	FindByID(id string) (*User, error)
	FindByMail(mail string) (*User, error)
	Store(u *User) error
}

// ActionRepository records and lists audited user actions.
type ActionRepository interface {
	Record(action *UserAction) error
	ListByUser(userID string) ([]*UserAction, error)
}
