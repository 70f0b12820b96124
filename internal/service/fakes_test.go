package service

import (
	"context"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/auth"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeAccountRepo is an in-memory repository.AccountRepository. Usernames
// are unique and compared exactly, like the real column.
type fakeAccountRepo struct {
	byID   map[int64]*model.Account
	nextID int64
	// set to simulate a database failure
	createErr error
	getErr    error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: make(map[int64]*model.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *model.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Username == a.Username {
			return apperror.Conflict("account", "username")
		}
	}
	f.nextID++
	a.ID = f.nextID
	stored := *a
	f.byID[a.ID] = &stored
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id int64) (*model.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("account", strconv.FormatInt(id, 10))
	}
	result := *a
	return &result, nil
}

func (f *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byID {
		if a.Username == username {
			result := *a
			return &result, nil
		}
	}
	return nil, apperror.NotFound("account", username)
}

// fakeCatalogStore backs the content and category repositories and the
// Transactor. WithinTx snapshots state and restores it when fn fails.
type fakeCatalogStore struct {
	contents   []model.Content
	links      []model.ContentCategory
	categories []model.Category

	listErr error
	txCalls int
}

func (f *fakeCatalogStore) contentRepo() repository.ContentRepository { return fakeContents{f} }

func (f *fakeCatalogStore) categoryRepo() repository.CategoryRepository { return fakeCategories{f} }

func (f *fakeCatalogStore) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	f.txCalls++
	contents := append([]model.Content(nil), f.contents...)
	links := append([]model.ContentCategory(nil), f.links...)
	categories := append([]model.Category(nil), f.categories...)

	err := fn(repository.Repositories{Contents: f.contentRepo(), Categories: f.categoryRepo()})
	if err != nil {
		f.contents, f.links, f.categories = contents, links, categories
	}
	return err
}

type fakeContents struct{ s *fakeCatalogStore }

func (r fakeContents) Create(_ context.Context, c *model.Content, categoryIDs ...int64) error {
	for _, existing := range r.s.contents {
		if existing.FilePath == c.FilePath {
			return apperror.Conflict("content", "file_path")
		}
	}
	for _, id := range categoryIDs {
		if id <= 0 || id > int64(len(r.s.categories)) {
			return apperror.NotFound("category", strconv.FormatInt(id, 10))
		}
	}
	c.ID = int64(len(r.s.contents) + 1)
	r.s.contents = append(r.s.contents, *c)
	for _, id := range categoryIDs {
		r.s.links = append(r.s.links, model.ContentCategory{CategoryID: id, ContentID: c.ID})
	}
	return nil
}

func (r fakeContents) List(_ context.Context) ([]model.Content, error) {
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	return append([]model.Content(nil), r.s.contents...), nil
}

func (r fakeContents) Categories(_ context.Context, contentID int64) ([]model.Category, error) {
	var out []model.Category
	for _, l := range r.s.links {
		if l.ContentID == contentID {
			out = append(out, r.s.categories[l.CategoryID-1])
		}
	}
	return out, nil
}

type fakeCategories struct{ s *fakeCatalogStore }

func (r fakeCategories) Create(_ context.Context, c *model.Category) error {
	c.ID = int64(len(r.s.categories) + 1)
	r.s.categories = append(r.s.categories, *c)
	return nil
}

func (r fakeCategories) List(_ context.Context) ([]model.Category, error) {
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	return append([]model.Category(nil), r.s.categories...), nil
}

// newTestPasswords hashes at bcrypt's minimum cost so tests stay fast.
func newTestPasswords(t *testing.T) *auth.PasswordService {
	t.Helper()
	ps, err := auth.NewPasswordService(4)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}
	return ps
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", auth.TokenConfig{})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func strPtr(s string) *string { return &s }

var nopLogger = zap.NewNop()
