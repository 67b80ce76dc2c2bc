// Package service implements the business core: authentication with
// session-backed JWTs and the verification-application lifecycle. Services
// are constructed with store interfaces so tests can run them against
// in-memory fakes with a fixed clock.
package service

import (
	"context"
	"time"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/queue"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/storage"
)

// UserStore is the persistence surface the services need for user records.
// Implemented by repository.UserRepo. Missing rows are reported as
// repository.ErrNotFound, duplicate inserts as repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateLastOnline(ctx context.Context, id uint64) error
	SetOffline(ctx context.Context, id uint64) error
	UpdatePhotoURL(ctx context.Context, id uint64, url string) error
	SetPassportValid(ctx context.Context, id uint64, valid bool) error
}

// SessionStore is the persistence surface for token-pair sessions.
// Implemented by repository.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) (uint64, error)
	GetByAccessToken(ctx context.Context, token string) (model.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (model.Session, error)
	UpdateTokens(ctx context.Context, id uint64, accessToken, refreshToken string, accessExp, refreshExp time.Time) error
	DeleteByID(ctx context.Context, id uint64) error
	DeleteByUserID(ctx context.Context, userID uint64) error
}

// ApplicationStore is the persistence surface for verification
// applications. Implemented by repository.ApplicationRepo.
type ApplicationStore interface {
	Create(ctx context.Context, a model.Application) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Application, error)
	GetByUserID(ctx context.Context, userID uint64) (model.Application, error)
	List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationListItem, int64, error)
	UpdateStatus(ctx context.Context, id uint64, status string, processedBy uint64, rejectionReason *string) error
	Delete(ctx context.Context, id uint64) error
}

// FileStore is the remote file store contract. Upload failures are fatal
// to the requesting operation; Delete never fails the caller (the adapter
// logs and swallows). Implemented by storage.Cloudinary.
type FileStore interface {
	Upload(ctx context.Context, data []byte, folder, name string) (storage.UploadResult, error)
	Delete(ctx context.Context, publicID string)
	PublicIDFromURL(url string) string
}

// EventPublisher delivers application events to the broker. Services treat
// publishing as fire-and-forget and never fail a request over it.
// Implemented by queue.Publisher.
type EventPublisher interface {
	ApplicationSubmitted(ctx context.Context, event queue.ApplicationSubmittedEvent) error
	ApplicationProcessed(ctx context.Context, event queue.ApplicationProcessedEvent) error
}
