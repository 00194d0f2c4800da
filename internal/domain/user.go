package domain

import "time"

// User is the public snapshot of an account. Password hashes never leave
// the backend that stores them.
type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Verified bool      `json:"verified"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// NewUser holds signup input.
type NewUser struct {
	Email    string
	Password string
	Name     string
}

// AuthIdentity is the {token, model} pair carried by the pb_auth cookie and
// the X-Auth-Data header.
type AuthIdentity struct {
	Token string `json:"token"`
	Model *User  `json:"model"`
}

// Valid reports whether the identity has a token and a model with an id.
func (a *AuthIdentity) Valid() bool {
	return a != nil && a.Token != "" && a.Model != nil && a.Model.ID != ""
}
