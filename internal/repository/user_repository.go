package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
)

const userColumns = `id,username,email,password,name,surname,photo,banned,is_admin,passport_valid,is_online,last_online,created_at,updated_at`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. Email is stored normalized to
// lower case; the username keeps its case but is unique case-insensitively
// through the collation.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password) VALUES (?,?,?)",
		username, email, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByUsername fetches a user by nickname.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getWhere(ctx, "username=?", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u             model.User
		passportValid sql.NullBool
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.Surname,
			&u.Photo, &u.Banned, &u.IsAdmin, &passportValid, &u.IsOnline,
			&u.LastOnline, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if passportValid.Valid {
		v := passportValid.Bool
		u.PassportValid = &v
	}
	return u, nil
}

// UpdateLastOnline stamps the user online now.
func (r *UserRepo) UpdateLastOnline(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_online=NOW(), is_online=1 WHERE id=?", id)
	return err
}

// SetOffline flips the user's online flag off.
func (r *UserRepo) SetOffline(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_online=0 WHERE id=?", id)
	return err
}

// UpdatePhotoURL stores the profile photo URL for the user.
func (r *UserRepo) UpdatePhotoURL(ctx context.Context, id uint64, url string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET photo=? WHERE id=?", url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish "no such user" so the caller can compensate the upload
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// SetPassportValid writes the verification flag set by an admin decision.
func (r *UserRepo) SetPassportValid(ctx context.Context, id uint64, valid bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET passport_valid=? WHERE id=?", valid, id)
	return err
}
