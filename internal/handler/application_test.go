package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/repository"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/service"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/storage"
)

// Minimal store stubs for driving the real application service from the
// transport layer.

type stubUserStore struct{ user model.User }

func (s *stubUserStore) Create(ctx context.Context, username, email, passwordHash string) (uint64, error) {
	return 0, repository.ErrDuplicate
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return model.User{}, repository.ErrNotFound
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return model.User{}, repository.ErrNotFound
}

func (s *stubUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if id != s.user.ID {
		return model.User{}, repository.ErrNotFound
	}
	return s.user, nil
}

func (s *stubUserStore) UpdateLastOnline(ctx context.Context, id uint64) error       { return nil }
func (s *stubUserStore) SetOffline(ctx context.Context, id uint64) error             { return nil }
func (s *stubUserStore) UpdatePhotoURL(ctx context.Context, id uint64, _ string) error { return nil }
func (s *stubUserStore) SetPassportValid(ctx context.Context, id uint64, _ bool) error { return nil }

type stubAppStore struct {
	apps   map[uint64]model.Application
	nextID uint64
}

func newStubAppStore() *stubAppStore {
	return &stubAppStore{apps: make(map[uint64]model.Application), nextID: 1}
}

func (s *stubAppStore) Create(ctx context.Context, a model.Application) (uint64, error) {
	a.ID = s.nextID
	a.Status = model.StatusPending
	a.CreatedAt = time.Now()
	s.nextID++
	s.apps[a.ID] = a
	return a.ID, nil
}

func (s *stubAppStore) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	a, ok := s.apps[id]
	if !ok {
		return model.Application{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *stubAppStore) GetByUserID(ctx context.Context, userID uint64) (model.Application, error) {
	for _, a := range s.apps {
		if a.UserID == userID {
			return a, nil
		}
	}
	return model.Application{}, repository.ErrNotFound
}

func (s *stubAppStore) List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationListItem, int64, error) {
	return nil, 0, nil
}

func (s *stubAppStore) UpdateStatus(ctx context.Context, id uint64, status string, processedBy uint64, rejectionReason *string) error {
	return nil
}

func (s *stubAppStore) Delete(ctx context.Context, id uint64) error { return nil }

type stubFileStore struct{ uploads int }

func (s *stubFileStore) Upload(ctx context.Context, data []byte, folder, name string) (storage.UploadResult, error) {
	s.uploads++
	return storage.UploadResult{
		URL:      "https://res.cloudinary.com/test/image/upload/v1/" + folder + "/" + name + ".jpg",
		PublicID: folder + "/" + name,
	}, nil
}

func (s *stubFileStore) Delete(ctx context.Context, publicID string) {}

func (s *stubFileStore) PublicIDFromURL(url string) string { return storage.PublicIDFromURL(url) }

// newSubmitRequest builds a multipart submission. The user photo is always
// attached; the passport photo only when includePassport is set.
func newSubmitRequest(t *testing.T, includePassport bool) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := map[string]string{
		"firstName":        "Ivan",
		"lastName":         "Petrenko",
		"patronymic":       "Olehovych",
		"birthDate":        "1995-03-14",
		"passportSeries":   "AB12345678",
		"passportNumber":   "123456789",
		"issuingAuthority": "Main Office 1234",
		"placeOfResidence": "Kyiv",
		"digitalSignature": "I confirm the data is accurate",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	addImage := func(field string) {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="doc.jpg"`, field))
		h.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	if includePassport {
		addImage("passportPhoto")
	}
	addImage("userPhoto")
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func newSubmitContext(t *testing.T, includePassport bool) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	c := e.NewContext(newSubmitRequest(t, includePassport), rec)
	// same key Authenticate stores the projection under
	c.Set("user", model.PublicUser{ID: 1, Username: "ivan"})
	return c, rec
}

func TestSubmitHandlerHappyPath(t *testing.T) {
	users := &stubUserStore{user: model.User{ID: 1, Username: "ivan", Email: "ivan@example.com"}}
	apps, files := newStubAppStore(), &stubFileStore{}
	h := NewApplicationHandler(service.NewApplicationService(apps, users, files, nil))

	c, rec := newSubmitContext(t, true)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "application submitted successfully")
	assert.Equal(t, 2, files.uploads)
	assert.Len(t, apps.apps, 1)
}

// A submission without the passport photo is rejected at the transport
// boundary: no upload happens and no row is created.
func TestSubmitHandlerMissingPassportPhoto(t *testing.T) {
	users := &stubUserStore{user: model.User{ID: 1, Username: "ivan", Email: "ivan@example.com"}}
	apps, files := newStubAppStore(), &stubFileStore{}
	h := NewApplicationHandler(service.NewApplicationService(apps, users, files, nil))

	c, rec := newSubmitContext(t, false)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "passport photo is required")
	assert.Zero(t, files.uploads)
	assert.Empty(t, apps.apps)
}
