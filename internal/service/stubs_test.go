package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondmain/internal/auth"
	"secondmain/internal/models"
	"secondmain/internal/repository"
	"secondmain/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("service-test-secret-at-least-32-chars", "secondmain-api", time.Hour)
	require.NoError(t, err)
	return tokens
}

// memoryUserRepo is an in-memory repository.UserRepository.
type memoryUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint

	updateErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (r *memoryUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == identifier || u.EmailValue() == strings.ToLower(identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) ExistsByPhoneOrEmail(_ context.Context, phone, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone || (email != "" && u.EmailValue() == email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User, password string) error {
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	user.Password = hash
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	cp := *user
	cp.Password = existing.Password
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) UpdatePassword(_ context.Context, id uint, password string) error {
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.Password = hash
	return nil
}

func (r *memoryUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.IsActive = active
	return nil
}

// add stores a user directly with the given password.
func (r *memoryUserRepo) add(t *testing.T, user *models.User, password string) *models.User {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), user, password))
	return user
}

// listingRepoStub is a stub for repository.ListingRepository.
type listingRepoStub struct {
	createFn         func(context.Context, *models.Listing) error
	getByIDFn        func(context.Context, uint) (*models.Listing, error)
	searchFn         func(context.Context, repository.ListingFilter) (*models.ListingPage, error)
	listByOwnerFn    func(context.Context, uint, bool) ([]*models.Listing, error)
	updateFn         func(context.Context, *models.Listing) error
	incrementViewsFn func(context.Context, uint) error
	setStatusFn      func(context.Context, uint, models.ListingStatus) error
	setFeaturedFn    func(context.Context, uint, bool) error
}

func (s *listingRepoStub) Create(ctx context.Context, l *models.Listing) error {
	return s.createFn(ctx, l)
}
func (s *listingRepoStub) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	return s.getByIDFn(ctx, id)
}
func (s *listingRepoStub) Search(ctx context.Context, f repository.ListingFilter) (*models.ListingPage, error) {
	return s.searchFn(ctx, f)
}
func (s *listingRepoStub) ListByOwner(ctx context.Context, ownerID uint, activeOnly bool) ([]*models.Listing, error) {
	return s.listByOwnerFn(ctx, ownerID, activeOnly)
}
func (s *listingRepoStub) Update(ctx context.Context, l *models.Listing) error {
	return s.updateFn(ctx, l)
}
func (s *listingRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *listingRepoStub) SetStatus(ctx context.Context, id uint, status models.ListingStatus) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *listingRepoStub) SetFeatured(ctx context.Context, id uint, featured bool) error {
	return s.setFeaturedFn(ctx, id, featured)
}

func noopListingRepo() *listingRepoStub {
	return &listingRepoStub{
		createFn:  func(_ context.Context, l *models.Listing) error { l.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Listing, error) { return nil, models.NewNotFoundError("Listing", id) },
		searchFn: func(_ context.Context, _ repository.ListingFilter) (*models.ListingPage, error) {
			return &models.ListingPage{Items: []*models.Listing{}}, nil
		},
		listByOwnerFn:    func(_ context.Context, _ uint, _ bool) ([]*models.Listing, error) { return nil, nil },
		updateFn:         func(_ context.Context, _ *models.Listing) error { return nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		setStatusFn:      func(_ context.Context, _ uint, _ models.ListingStatus) error { return nil },
		setFeaturedFn:    func(_ context.Context, _ uint, _ bool) error { return nil },
	}
}

// recordingStore wraps a storage.Store and remembers deletions.
type recordingStore struct {
	storage.Store
	mu        sync.Mutex
	saved     []string
	deleted   []string
	saveErrAt int
}

func (s *recordingStore) Save(ctx context.Context, upload storage.Upload) (string, error) {
	s.mu.Lock()
	n := len(s.saved)
	s.mu.Unlock()
	if s.saveErrAt > 0 && n+1 == s.saveErrAt {
		return "", io.ErrUnexpectedEOF
	}
	key, err := s.Store.Save(ctx, upload)
	if err == nil {
		s.mu.Lock()
		s.saved = append(s.saved, key)
		s.mu.Unlock()
	}
	return key, err
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return s.Store.Delete(ctx, key)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUploads(t *testing.T, n int) []storage.Upload {
	t.Helper()
	out := make([]storage.Upload, n)
	for i := range out {
		out[i] = storage.Upload{Filename: "photo.png", ContentType: "image/png", Data: pngBytes(t)}
	}
	return out
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
