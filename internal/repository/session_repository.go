package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
)

const sessionColumns = `id,user_id,access_token,refresh_token,access_token_valid_until,refresh_token_valid_until,updated_at`

// SessionRepo persists token-pair sessions. Tokens are stored as handed to
// the client so that lookups by either token resolve the owning session.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row and returns its ID.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (user_id, access_token, refresh_token, access_token_valid_until, refresh_token_valid_until)
		 VALUES (?,?,?,?,?)`,
		s.UserID, s.AccessToken, s.RefreshToken, s.AccessExpiresAt, s.RefreshExpiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByAccessToken resolves a session by its access token.
func (r *SessionRepo) GetByAccessToken(ctx context.Context, token string) (model.Session, error) {
	return r.getWhere(ctx, "access_token=?", token)
}

// GetByRefreshToken resolves a session by its refresh token.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string) (model.Session, error) {
	return r.getWhere(ctx, "refresh_token=?", token)
}

func (r *SessionRepo) getWhere(ctx context.Context, cond, arg string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE "+cond+" LIMIT 1", arg).
		Scan(&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken,
			&s.AccessExpiresAt, &s.RefreshExpiresAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// UpdateTokens replaces the token pair of an existing session in place.
// Refresh keeps the same row and rotates the columns.
func (r *SessionRepo) UpdateTokens(ctx context.Context, id uint64, accessToken, refreshToken string, accessExp, refreshExp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE sessions
		 SET access_token=?, refresh_token=?, access_token_valid_until=?, refresh_token_valid_until=?, updated_at=NOW()
		 WHERE id=?`,
		accessToken, refreshToken, accessExp, refreshExp, id)
	return err
}

// DeleteByID removes a single session.
func (r *SessionRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", id)
	return err
}

// DeleteByUserID removes every session owned by the user. Login calls this
// before creating the new session (single-session-per-user policy).
func (r *SessionRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	return err
}

// DeleteExpired sweeps all sessions whose refresh expiry has passed and
// returns how many rows were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE refresh_token_valid_until < NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
