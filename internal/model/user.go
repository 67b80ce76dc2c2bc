package model

import "time"

// User represents a row of the `users` table. Each field corresponds to a
// column. The password hash never leaves the repository/service boundary;
// handlers work with PublicUser projections instead.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique nickname.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  Name          – first name (may be empty until the profile is filled).
//  Surname       – last name.
//  Photo         – profile photo URL in the remote file store (empty when unset).
//  Banned        – whether the account is blocked.
//  IsAdmin       – whether the user may access the admin surface.
//  PassportValid – verification result; nil until an application is processed.
//  IsOnline      – whether the user currently has a live session.
//  LastOnline    – timestamp of the last login/refresh.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Username      string    // users.username
	Email         string    // users.email
	PasswordHash  string    // users.password
	Name          string    // users.name
	Surname       string    // users.surname
	Photo         string    // users.photo
	Banned        bool      // users.banned
	IsAdmin       bool      // users.is_admin
	PassportValid *bool     // users.passport_valid (nullable)
	IsOnline      bool      // users.is_online
	LastOnline    time.Time // users.last_online
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// PublicUser is the projection of a user returned to clients and stored in
// the request context after authentication. It never contains the password
// hash.
type PublicUser struct {
	ID            uint64    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Photo         string    `json:"photo,omitempty"`
	PassportValid *bool     `json:"passportValid"`
	IsAdmin       bool      `json:"isAdmin"`
	IsOnline      bool      `json:"isOnline"`
	LastOnline    time.Time `json:"lastOnline"`
	Banned        bool      `json:"banned"`
}

// Public converts a full user record into its client-facing projection.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Surname:       u.Surname,
		Photo:         u.Photo,
		PassportValid: u.PassportValid,
		IsAdmin:       u.IsAdmin,
		IsOnline:      u.IsOnline,
		LastOnline:    u.LastOnline,
		Banned:        u.Banned,
	}
}
