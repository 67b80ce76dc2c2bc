package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/apperr"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/queue"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/repository"
)

// SubmitInput carries the validated form fields and raw document bytes of
// a verification submission. PassportPhoto and UserPhoto are mandatory at
// the transport layer; the digital signature is either an uploaded file or
// a plain text acknowledgment, with the file taking precedence when both
// are present.
type SubmitInput struct {
	FirstName            string
	LastName             string
	Patronymic           string
	BirthDate            time.Time
	PassportSeries       string
	PassportNumber       string
	IssuingAuthority     string
	PlaceOfResidence     string
	DigitalSignatureText string
	PassportPhoto        []byte
	UserPhoto            []byte
	SignatureFile        []byte
}

// ApplicationPage is one page of the admin listing plus pagination meta
// computed over the filtered set.
type ApplicationPage struct {
	Applications []model.ApplicationListItem `json:"applications"`
	Page         int                         `json:"page"`
	Limit        int                         `json:"limit"`
	Total        int64                       `json:"total"`
	TotalPages   int64                       `json:"totalPages"`
}

// ApplicationService manages the verification-application lifecycle:
// NonExistent --submit--> pending --adminDecision--> approved | rejected.
// Approved and rejected are terminal; re-submission is blocked while any
// application row exists for the user.
type ApplicationService struct {
	apps   ApplicationStore
	users  UserStore
	files  FileStore
	events EventPublisher
	now    func() time.Time
}

// NewApplicationService wires an ApplicationService. events may be nil
// when no broker is configured.
func NewApplicationService(apps ApplicationStore, users UserStore, files FileStore, events EventPublisher) *ApplicationService {
	return &ApplicationService{
		apps:   apps,
		users:  users,
		files:  files,
		events: events,
		now:    time.Now,
	}
}

// uploadDocument stores one document under a per-user name and translates
// a failure into an Internal error naming the document.
func (s *ApplicationService) uploadDocument(ctx context.Context, data []byte, userID uint64, kind, label string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	name := fmt.Sprintf("%s_%d_%d", kind, userID, s.now().UTC().UnixMilli())
	res, err := s.files.Upload(ctx, data, documentFolder, name)
	if err != nil {
		return "", apperr.New(apperr.Internal, "failed to upload the "+label)
	}
	return res.URL, nil
}

// Submit creates the user's pending application. All uploads happen before
// the insert, so a failed upload leaves no partial row behind.
func (s *ApplicationService) Submit(ctx context.Context, userID uint64, in SubmitInput) (model.Application, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Application{}, apperr.New(apperr.NotFound, MsgUserNotFound)
	}
	if err != nil {
		return model.Application{}, err
	}
	if u.Banned {
		return model.Application{}, apperr.New(apperr.Forbidden, MsgAccountBanned)
	}

	if _, err := s.apps.GetByUserID(ctx, userID); err == nil {
		return model.Application{}, apperr.New(apperr.Conflict, "you have already submitted an application")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Application{}, err
	}

	passportURL, err := s.uploadDocument(ctx, in.PassportPhoto, userID, "passport", "passport photo")
	if err != nil {
		return model.Application{}, err
	}
	userPhotoURL, err := s.uploadDocument(ctx, in.UserPhoto, userID, "user", "user photo")
	if err != nil {
		return model.Application{}, err
	}

	// uploaded signature file wins over a textual acknowledgment
	signature := strings.TrimSpace(in.DigitalSignatureText)
	if len(in.SignatureFile) > 0 {
		signature, err = s.uploadDocument(ctx, in.SignatureFile, userID, "signature", "digital signature")
		if err != nil {
			return model.Application{}, err
		}
	}

	id, err := s.apps.Create(ctx, model.Application{
		UserID:              userID,
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		Patronymic:          in.Patronymic,
		BirthDate:           in.BirthDate,
		PassportSeries:      in.PassportSeries,
		PassportNumber:      in.PassportNumber,
		IssuingAuthority:    in.IssuingAuthority,
		PlaceOfResidence:    in.PlaceOfResidence,
		PassportPhotoURL:    passportURL,
		UserPhotoURL:        userPhotoURL,
		DigitalSignatureURL: signature,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Application{}, apperr.New(apperr.Conflict, "you have already submitted an application")
		}
		return model.Application{}, err
	}

	created, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return model.Application{}, err
	}

	if s.events != nil {
		_ = s.events.ApplicationSubmitted(ctx, queue.ApplicationSubmittedEvent{
			ApplicationID: created.ID,
			UserID:        userID,
			Username:      u.Username,
			SubmittedAt:   created.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return created, nil
}

// GetMine returns the caller's application including rejection/processing
// metadata.
func (s *ApplicationService) GetMine(ctx context.Context, userID uint64) (model.Application, error) {
	a, err := s.apps.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Application{}, apperr.New(apperr.NotFound, "application not found")
	}
	return a, err
}

// GetByID is the admin read path for a single application.
func (s *ApplicationService) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Application{}, apperr.New(apperr.NotFound, "application not found")
	}
	return a, err
}

// List returns a filtered, sorted page of applications for the admin
// surface. Defaults: page 1, limit 10, newest first; unknown sort keys
// fall back silently in the store layer.
func (s *ApplicationService) List(ctx context.Context, f model.ApplicationFilter) (*ApplicationPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	rows, total, err := s.apps.List(ctx, f)
	if err != nil {
		return nil, err
	}
	totalPages := (total + int64(f.Limit) - 1) / int64(f.Limit)
	return &ApplicationPage{
		Applications: rows,
		Page:         f.Page,
		Limit:        f.Limit,
		Total:        total,
		TotalPages:   totalPages,
	}, nil
}

// UpdateStatus applies an admin decision. The application row is written
// first and the owner's passport_valid flag second; a failed row write
// aborts before the flag is touched. Approval sets the flag true,
// rejection sets it false, moving back to pending leaves it alone.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uint64, status string, adminID uint64, rejectionReason *string) error {
	app, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.NotFound, "application not found")
	}
	if err != nil {
		return err
	}

	if !model.ValidStatus(status) {
		return apperr.New(apperr.BadRequest, "status must be pending, approved or rejected")
	}
	if status == model.StatusRejected && (rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "") {
		return apperr.New(apperr.BadRequest, "rejection reason is required")
	}
	if status != model.StatusRejected {
		rejectionReason = nil
	}

	if err := s.apps.UpdateStatus(ctx, id, status, adminID, rejectionReason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "application not found")
		}
		return err
	}

	log.Printf("[ADMIN] admin %d changed application %d status to %s", adminID, id, status)

	switch status {
	case model.StatusApproved:
		if err := s.users.SetPassportValid(ctx, app.UserID, true); err != nil {
			return err
		}
		log.Printf("[ADMIN] user %d passport verified by admin %d", app.UserID, adminID)
	case model.StatusRejected:
		if err := s.users.SetPassportValid(ctx, app.UserID, false); err != nil {
			return err
		}
	}

	if s.events != nil {
		ev := queue.ApplicationProcessedEvent{
			ApplicationID: id,
			UserID:        app.UserID,
			Status:        status,
			AdminID:       adminID,
			ProcessedAt:   s.now().UTC().Format(time.RFC3339),
		}
		if rejectionReason != nil {
			ev.RejectionReason = *rejectionReason
		}
		_ = s.events.ApplicationProcessed(ctx, ev)
	}
	return nil
}

// Delete removes an application and its remote documents. Each document
// deletion is independently best-effort; the row is removed afterwards.
// The owner's passport_valid flag is deliberately left untouched, unlike
// UpdateStatus — pruning a processed application does not revoke the
// verification it produced.
func (s *ApplicationService) Delete(ctx context.Context, id uint64) error {
	app, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.NotFound, "application not found")
	}
	if err != nil {
		return err
	}

	for _, url := range []string{app.PassportPhotoURL, app.UserPhotoURL, app.DigitalSignatureURL} {
		if publicID := s.files.PublicIDFromURL(url); publicID != "" {
			s.files.Delete(ctx, publicID)
		}
	}

	if err := s.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.NotFound, "application not found")
		}
		return err
	}

	log.Printf("[ADMIN] application %d (user %d) deleted", id, app.UserID)
	return nil
}
