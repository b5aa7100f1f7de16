package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"h2o-shop/internal/config"
	"h2o-shop/internal/domain"
	"h2o-shop/internal/media"
	"h2o-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for key, tok := range m.tokens {
		if tok.ExpiresAt.Before(now) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	stored := *c
	m.categories[c.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, existing := range m.categories {
		if existing.ID != c.ID && existing.Slug == c.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	stored := *c
	m.categories[c.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	out := *c
	return &out, nil
}

func (m *mockCategoryRepository) List(ctx context.Context, brand string) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		if brand == "" || strings.EqualFold(c.Brand, brand) || c.Brand == domain.BrandAll {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) SlugExists(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	for _, c := range m.categories {
		if c.Slug == slug && (exclude == nil || c.ID != *exclude) {
			return true, nil
		}
	}
	return false, nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	failNext error
	lastList repository.ProductFilter
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	out := *p
	out.Images = append(domain.Gallery{}, p.Images...)
	out.Variants = append([]domain.Variant{}, p.Variants...)
	return &out
}

func (m *mockProductRepository) save(p *domain.Product) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for i := range p.Variants {
		if p.Variants[i].ID == uuid.Nil {
			p.Variants[i].ID = uuid.New()
		}
		p.Variants[i].ProductID = p.ID
	}
	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(p)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	return m.save(p)
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = filter
	out := []*domain.Product{}
	for _, p := range m.products {
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

type mockVideoRepository struct {
	videos map[uuid.UUID]*domain.Video
}

func newMockVideoRepository() *mockVideoRepository {
	return &mockVideoRepository{videos: make(map[uuid.UUID]*domain.Video)}
}

func (m *mockVideoRepository) Create(ctx context.Context, v *domain.Video) error {
	stored := *v
	m.videos[v.ID] = &stored
	return nil
}

func (m *mockVideoRepository) Update(ctx context.Context, v *domain.Video) error {
	if _, ok := m.videos[v.ID]; !ok {
		return repository.ErrVideoNotFound
	}
	stored := *v
	m.videos[v.ID] = &stored
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.videos[id]; !ok {
		return repository.ErrVideoNotFound
	}
	delete(m.videos, id)
	return nil
}

func (m *mockVideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	out := *v
	return &out, nil
}

func (m *mockVideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	out := []*domain.Video{}
	for _, v := range m.videos {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

type mockSettingsRepository struct {
	mu       sync.Mutex
	settings *domain.SiteSettings
	reads    int
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	out := *m.settings
	out.Banners = append(domain.Banners{}, m.settings.Banners...)
	return &out, nil
}

func (m *mockSettingsRepository) Upsert(ctx context.Context, s *domain.SiteSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.Banners = append(domain.Banners{}, s.Banners...)
	m.settings = &stored
	return nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestImageStore() (*media.Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return media.NewStore(fs, config.UploadConfig{
		Dir:      "uploads",
		MaxBytes: 1 << 20,
		MaxFiles: 5,
	}, zap.NewNop()), fs
}

func pngUploads(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(pngBytes)
	}
	_ = w.Close()

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form.File["images"]
}

// seedFile writes a stored image so deletions can be observed.
func seedFile(t *testing.T, store *media.Store, fs afero.Fs, scope, url string) {
	t.Helper()
	local, ok := store.LocalPath(scope, url)
	if !ok {
		t.Fatalf("url %q is outside scope %s", url, scope)
	}
	if err := afero.WriteFile(fs, local, pngBytes, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
}

func fileExists(store *media.Store, fs afero.Fs, scope, url string) bool {
	local, ok := store.LocalPath(scope, url)
	if !ok {
		return false
	}
	exists, _ := afero.Exists(fs, local)
	return exists
}
