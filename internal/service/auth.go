package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/repository"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/utils"
)

// Remote file store folders, matching the layout the frontend expects.
const (
	avatarFolder   = "TripleGeneralAPI/avatars"
	documentFolder = "TripleGeneralAPI/applications"
)

// User-facing auth messages. Login deliberately reuses one message for
// "no such user" and "wrong password" so the response does not leak which
// part failed.
const (
	MsgInvalidCredentials = "invalid login or password"
	MsgAccountBanned      = "your account is banned"
	MsgUserNotFound       = "user not found"
	MsgSessionNotFound    = "session not found"
	MsgSessionExpired     = "session expired"
	MsgAccessExpired      = "access token expired"
	MsgInvalidAccess      = "invalid access token"
	MsgInvalidRefresh     = "invalid refresh token"
	MsgRefreshExpired     = "refresh token expired"
)

// AuthResult is returned by register, login and refresh: the public user
// projection plus the freshly issued token pair.
type AuthResult struct {
	User                   model.PublicUser `json:"user"`
	AccessToken            string           `json:"accessToken"`
	RefreshToken           string           `json:"refreshToken"`
	AccessTokenValidUntil  time.Time        `json:"accessTokenValidUntil"`
	RefreshTokenValidUntil time.Time        `json:"refreshTokenValidUntil"`
}

// AuthService orchestrates registration, login, token rotation, logout and
// per-request identity verification on top of the user store, the session
// store and the token helpers.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	files      FileStore
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService wires an AuthService. The clock defaults to time.Now and
// is overridden in tests.
func NewAuthService(users UserStore, sessions SessionStore, files FileStore, secret string, accessTTL, refreshTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		files:      files,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// issueSession signs a new token pair and stores it as a session row.
func (s *AuthService) issueSession(ctx context.Context, userID uint64) (utils.TokenPair, error) {
	pair, err := utils.NewTokenPair(s.secret, userID, s.accessTTL, s.refreshTTL, s.now().UTC())
	if err != nil {
		return utils.TokenPair{}, err
	}
	_, err = s.sessions.Create(ctx, model.Session{
		UserID:           userID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

func (s *AuthService) authResult(ctx context.Context, userID uint64, pair utils.TokenPair) (*AuthResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:                   u.Public(),
		AccessToken:            pair.AccessToken,
		RefreshToken:           pair.RefreshToken,
		AccessTokenValidUntil:  pair.AccessExpiresAt,
		RefreshTokenValidUntil: pair.RefreshExpiresAt,
	}, nil
}

// Register creates a user, hashes the password and opens the first
// session. No prior sessions can exist, so nothing is deleted here (unlike
// Login).
func (s *AuthService) Register(ctx context.Context, nickname, email, password string) (*AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.Conflict, "a user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, nickname); err == nil {
		return nil, apperr.New(apperr.Conflict, "a user with this nickname already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	userID, err := s.users.Create(ctx, nickname, email, hash)
	if err != nil {
		// backstop against a concurrent register racing the checks above
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.Conflict, "a user with this email or nickname already exists")
		}
		return nil, err
	}

	pair, err := s.issueSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.authResult(ctx, userID, pair)
}

// Login resolves the identifier as email first, then as nickname. A banned
// account fails before the password check; a wrong password and an unknown
// identifier produce the same Unauthorized message. On success every prior
// session of the user is deleted before the new one is created.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if u.Banned {
		return nil, apperr.New(apperr.Forbidden, MsgAccountBanned)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.New(apperr.Unauthorized, MsgInvalidCredentials)
	}

	// single active session per user
	if err := s.sessions.DeleteByUserID(ctx, u.ID); err != nil {
		return nil, err
	}

	pair, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastOnline(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.authResult(ctx, u.ID, pair)
}

// Refresh rotates a session's token pair in place. The refresh token's
// signature is checked statelessly; its freshness is judged against the
// session row so that an expired session is deleted on first sight and a
// retry fails with "session not found".
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if _, err := utils.ParseUserIDSignatureOnly(s.secret, refreshToken); err != nil {
		return nil, apperr.New(apperr.Unauthorized, MsgInvalidRefresh)
	}

	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, MsgSessionNotFound)
	}
	if err != nil {
		return nil, err
	}

	if s.now().After(sess.RefreshExpiresAt) {
		if err := s.sessions.DeleteByID(ctx, sess.ID); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.Unauthorized, MsgRefreshExpired)
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return nil, apperr.New(apperr.Unauthorized, MsgUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	if u.Banned {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return nil, apperr.New(apperr.Forbidden, MsgAccountBanned)
	}

	pair, err := utils.NewTokenPair(s.secret, u.ID, s.accessTTL, s.refreshTTL, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateTokens(ctx, sess.ID, pair.AccessToken, pair.RefreshToken, pair.AccessExpiresAt, pair.RefreshExpiresAt); err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastOnline(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.authResult(ctx, u.ID, pair)
}

// Logout deletes the session matching the access token and flips the user
// offline. It is idempotent and never fails the caller: an unknown token
// succeeds silently.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	sess, err := s.sessions.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("auth: logout session lookup: %v", err)
		}
		return nil
	}
	if err := s.sessions.DeleteByID(ctx, sess.ID); err != nil {
		log.Printf("auth: logout delete session %d: %v", sess.ID, err)
		return nil
	}
	if err := s.users.SetOffline(ctx, sess.UserID); err != nil {
		log.Printf("auth: logout set offline user %d: %v", sess.UserID, err)
	}
	return nil
}

// Authenticate verifies a bearer access token for one request. Checks run
// in a fixed order and short-circuit on the first failure: signature →
// session lookup → session freshness → user lookup → ban. Each failure
// mode keeps its own message so operators can tell them apart in logs even
// where the HTTP status is the same.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (model.PublicUser, error) {
	if _, err := utils.ParseUserID(s.secret, accessToken); err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return model.PublicUser{}, apperr.New(apperr.Unauthorized, MsgAccessExpired)
		}
		return model.PublicUser{}, apperr.New(apperr.Unauthorized, MsgInvalidAccess)
	}

	sess, err := s.sessions.GetByAccessToken(ctx, accessToken)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, apperr.New(apperr.Unauthorized, MsgSessionNotFound)
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	if s.now().After(sess.AccessExpiresAt) {
		return model.PublicUser{}, apperr.New(apperr.Unauthorized, MsgSessionExpired)
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// session with no owner is garbage, clean it up on sight
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return model.PublicUser{}, apperr.New(apperr.Unauthorized, MsgUserNotFound)
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	if u.Banned {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return model.PublicUser{}, apperr.New(apperr.Forbidden, MsgAccountBanned)
	}

	return u.Public(), nil
}

// CurrentUser re-reads the authenticated user for the /auth/me surface.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint64) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, apperr.New(apperr.NotFound, MsgUserNotFound)
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	if u.Banned {
		return model.PublicUser{}, apperr.New(apperr.Forbidden, MsgAccountBanned)
	}
	return u.Public(), nil
}

// UpdateProfilePhoto stores a new avatar with upload-then-commit-or-
// compensate semantics: upload, persist the pointer, delete the fresh
// upload if persisting fails, and only after a successful persist delete
// the previous photo (best-effort).
func (s *AuthService) UpdateProfilePhoto(ctx context.Context, userID uint64, data []byte, mimeType string) (model.PublicUser, error) {
	// image/jpg is not a registered type but some clients label JPEGs that way
	if mimeType != "image/jpeg" && mimeType != "image/jpg" && mimeType != "image/png" {
		return model.PublicUser{}, apperr.New(apperr.BadRequest, "only JPEG and PNG images are supported")
	}

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, apperr.New(apperr.NotFound, MsgUserNotFound)
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	name := fmt.Sprintf("avatar_%d_%d", userID, s.now().UTC().UnixMilli())
	uploaded, err := s.files.Upload(ctx, data, avatarFolder, name)
	if err != nil {
		return model.PublicUser{}, apperr.New(apperr.Internal, "failed to upload profile photo")
	}

	if err := s.users.UpdatePhotoURL(ctx, userID, uploaded.URL); err != nil {
		// compensate: the pointer was never persisted, drop the fresh upload
		s.files.Delete(ctx, uploaded.PublicID)
		return model.PublicUser{}, apperr.New(apperr.Internal, "failed to save profile photo")
	}

	if u.Photo != "" {
		if id := s.files.PublicIDFromURL(u.Photo); id != "" {
			s.files.Delete(ctx, id)
		}
	}

	updated, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return updated.Public(), nil
}
