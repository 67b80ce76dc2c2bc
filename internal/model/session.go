package model

import "time"

// Session models an entry in the `sessions` table. A session binds a user
// to one live access/refresh token pair. Login deletes all prior sessions
// for the user before creating a new one, so at most one session per user
// survives the login flow; refresh overwrites the token columns in place.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – owner of the session.
//  AccessToken      – signed access JWT as handed to the client.
//  RefreshToken     – signed refresh JWT as handed to the client.
//  AccessExpiresAt  – expiry of the access token.
//  RefreshExpiresAt – expiry of the refresh token; rows past this point are
//                     garbage and are removed opportunistically or by the
//                     background sweep.
//  UpdatedAt        – timestamp of the last token rotation.
type Session struct {
	ID               uint64    // sessions.id
	UserID           uint64    // sessions.user_id
	AccessToken      string    // sessions.access_token
	RefreshToken     string    // sessions.refresh_token
	AccessExpiresAt  time.Time // sessions.access_token_valid_until
	RefreshExpiresAt time.Time // sessions.refresh_token_valid_until
	UpdatedAt        time.Time // sessions.updated_at
}
