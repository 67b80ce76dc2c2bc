package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/queue"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/repository"
	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/storage"
)

// In-memory store fakes. They implement the service store interfaces with
// maps so service tests run without MySQL, Cloudinary or RabbitMQ.

type fakeUsers struct {
	byID            map[uint64]model.User
	nextID          uint64
	failUpdatePhoto bool

	passportCalls []passportCall
}

type passportCall struct {
	UserID uint64
	Valid  bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uint64]model.User), nextID: 1}
}

func (f *fakeUsers) add(u model.User) model.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(ctx context.Context, username, email, passwordHash string) (uint64, error) {
	for _, u := range f.byID {
		if u.Username == username || u.Email == email {
			return 0, repository.ErrDuplicate
		}
	}
	u := f.add(model.User{Username: username, Email: email, PasswordHash: passwordHash})
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateLastOnline(ctx context.Context, id uint64) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsOnline = true
	u.LastOnline = time.Now()
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetOffline(ctx context.Context, id uint64) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsOnline = false
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) UpdatePhotoURL(ctx context.Context, id uint64, url string) error {
	if f.failUpdatePhoto {
		return fmt.Errorf("disk on fire")
	}
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Photo = url
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetPassportValid(ctx context.Context, id uint64, valid bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	v := valid
	u.PassportValid = &v
	f.byID[id] = u
	f.passportCalls = append(f.passportCalls, passportCall{UserID: id, Valid: valid})
	return nil
}

type fakeSessions struct {
	byID   map[uint64]model.Session
	nextID uint64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: make(map[uint64]model.Session), nextID: 1}
}

func (f *fakeSessions) Create(ctx context.Context, s model.Session) (uint64, error) {
	s.ID = f.nextID
	f.nextID++
	f.byID[s.ID] = s
	return s.ID, nil
}

func (f *fakeSessions) GetByAccessToken(ctx context.Context, token string) (model.Session, error) {
	for _, s := range f.byID {
		if s.AccessToken == token {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrNotFound
}

func (f *fakeSessions) GetByRefreshToken(ctx context.Context, token string) (model.Session, error) {
	for _, s := range f.byID {
		if s.RefreshToken == token {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrNotFound
}

func (f *fakeSessions) UpdateTokens(ctx context.Context, id uint64, accessToken, refreshToken string, accessExp, refreshExp time.Time) error {
	s, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
	s.AccessExpiresAt = accessExp
	s.RefreshExpiresAt = refreshExp
	f.byID[id] = s
	return nil
}

func (f *fakeSessions) DeleteByID(ctx context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) DeleteByUserID(ctx context.Context, userID uint64) error {
	for id, s := range f.byID {
		if s.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) countForUser(userID uint64) int {
	n := 0
	for _, s := range f.byID {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type fakeFiles struct {
	failUploads bool
	uploads     []string // public ids in upload order
	deleted     []string // public ids in delete order
}

func (f *fakeFiles) Upload(ctx context.Context, data []byte, folder, name string) (storage.UploadResult, error) {
	if f.failUploads {
		return storage.UploadResult{}, fmt.Errorf("upstream says no")
	}
	publicID := folder + "/" + name
	f.uploads = append(f.uploads, publicID)
	return storage.UploadResult{
		URL:      "https://res.cloudinary.com/test/image/upload/v1700000000/" + publicID + ".jpg",
		PublicID: publicID,
	}, nil
}

func (f *fakeFiles) Delete(ctx context.Context, publicID string) {
	f.deleted = append(f.deleted, publicID)
}

func (f *fakeFiles) PublicIDFromURL(url string) string {
	return storage.PublicIDFromURL(url)
}

type fakeApps struct {
	byID   map[uint64]model.Application
	nextID uint64

	failUpdateStatus bool
	listRows         []model.ApplicationListItem
	listTotal        int64
	lastFilter       model.ApplicationFilter
}

func newFakeApps() *fakeApps {
	return &fakeApps{byID: make(map[uint64]model.Application), nextID: 1}
}

func (f *fakeApps) add(a model.Application) model.Application {
	if a.ID == 0 {
		a.ID = f.nextID
	}
	if a.ID >= f.nextID {
		f.nextID = a.ID + 1
	}
	f.byID[a.ID] = a
	return a
}

func (f *fakeApps) Create(ctx context.Context, a model.Application) (uint64, error) {
	for _, existing := range f.byID {
		if existing.UserID == a.UserID {
			return 0, repository.ErrDuplicate
		}
	}
	a.Status = model.StatusPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	a = f.add(a)
	return a.ID, nil
}

func (f *fakeApps) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	a, ok := f.byID[id]
	if !ok {
		return model.Application{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeApps) GetByUserID(ctx context.Context, userID uint64) (model.Application, error) {
	for _, a := range f.byID {
		if a.UserID == userID {
			return a, nil
		}
	}
	return model.Application{}, repository.ErrNotFound
}

func (f *fakeApps) List(ctx context.Context, filter model.ApplicationFilter) ([]model.ApplicationListItem, int64, error) {
	f.lastFilter = filter
	return f.listRows, f.listTotal, nil
}

func (f *fakeApps) UpdateStatus(ctx context.Context, id uint64, status string, processedBy uint64, rejectionReason *string) error {
	if f.failUpdateStatus {
		return fmt.Errorf("write failed")
	}
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	a.Status = status
	a.ProcessedAt = &now
	a.ProcessedBy = &processedBy
	a.RejectionReason = rejectionReason
	f.byID[id] = a
	return nil
}

func (f *fakeApps) Delete(ctx context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeEvents struct {
	submitted []queue.ApplicationSubmittedEvent
	processed []queue.ApplicationProcessedEvent
}

func (f *fakeEvents) ApplicationSubmitted(ctx context.Context, ev queue.ApplicationSubmittedEvent) error {
	f.submitted = append(f.submitted, ev)
	return nil
}

func (f *fakeEvents) ApplicationProcessed(ctx context.Context, ev queue.ApplicationProcessedEvent) error {
	f.processed = append(f.processed, ev)
	return nil
}
