package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeLimits struct{}

func (fakeLimits) MaxBytes() int64 { return 1 << 20 }
func (fakeLimits) MaxFiles() int   { return 5 }

type fakeProductService struct {
	input   service.ProductInput
	uploads int
	filter  service.ProductFilter
	err     error
	product *domain.Product
}

func (f *fakeProductService) List(ctx context.Context, filter service.ProductFilter) ([]*domain.Product, error) {
	f.filter = filter
	return []*domain.Product{}, f.err
}

func (f *fakeProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: id, Name: "Tank"}, nil
}

func (f *fakeProductService) Create(ctx context.Context, input service.ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error) {
	return f.save(input, uploads)
}

func (f *fakeProductService) Update(ctx context.Context, id uuid.UUID, input service.ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error) {
	return f.save(input, uploads)
}

func (f *fakeProductService) save(input service.ProductInput, uploads []*multipart.FileHeader) (*domain.Product, error) {
	f.input = input
	f.uploads = len(uploads)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: uuid.New(), Name: input.Name, Images: input.Gallery}, nil
}

func (f *fakeProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.err
}

type fakeCategoryService struct {
	err error
}

func (f *fakeCategoryService) List(ctx context.Context, brand string) ([]*domain.Category, error) {
	return []*domain.Category{{Name: "Bottles", Brand: brand}}, f.err
}

func (f *fakeCategoryService) Create(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Category{ID: uuid.New(), Name: input.Name, Brand: input.Brand}, nil
}

func (f *fakeCategoryService) Update(ctx context.Context, id uuid.UUID, input service.CategoryInput) (*domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Category{ID: id, Name: input.Name}, nil
}

func (f *fakeCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.err
}

type fakeSettingsService struct {
	input   service.SettingsInput
	uploads int
}

func (f *fakeSettingsService) Get(ctx context.Context) (*domain.SiteSettings, error) {
	return domain.DefaultSettings(), nil
}

func (f *fakeSettingsService) Update(ctx context.Context, input service.SettingsInput, uploads []*multipart.FileHeader) (*domain.SiteSettings, error) {
	f.input = input
	f.uploads = len(uploads)
	return &domain.SiteSettings{Phone: input.Phone, Banners: input.Banners}, nil
}

type fakeHealth map[string]string

func (f fakeHealth) Health() map[string]string { return f }

// multipartRequest builds a form with text fields and one small file per
// entry of files, keyed by field name.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]int) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, n := range files {
		for i := 0; i < n; i++ {
			part, err := w.CreateFormFile(field, "image.png")
			require.NoError(t, err)
			_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Error map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error, "response has no error envelope: %s", rec.Body.String())
	return body.Error
}
