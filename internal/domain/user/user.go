package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	HashedPassword string     `json:"-"` // never expose hash in JSON
	Disabled       bool       `json:"disabled"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      *time.Time `json:"updated_on,omitempty"`
}

// NewUser is what a store needs to insert a row. The password is already hashed.
type NewUser struct {
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
}

// Profile is the public view of a user.
type Profile struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Disabled  bool   `json:"disabled"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Disabled:  u.Disabled,
	}
}
