// Package models defines the server-side records persisted by repositories
// and the projections returned to API clients.
package models

import "time"

// User is a stored account. HashedPassword is a bcrypt digest and never
// leaves the server. Records are never deleted; Disabled is toggled by
// operators only.
type User struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	Disabled       bool
	CreatedAt      time.Time
}

// Active reports whether the account may use protected endpoints.
func (u *User) Active() bool {
	return !u.Disabled
}

// UserView is the externally visible projection of a User.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Disabled bool   `json:"disabled"`
}

func (u *User) View() UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Disabled: u.Disabled,
	}
}
