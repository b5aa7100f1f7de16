package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	service.AuthService
	user    *domain.User
	revoked []string
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, string, *domain.User, error) {
	if f.user == nil || email != f.user.Email || password != "secret" {
		return "", "", nil, service.ErrInvalidCredentials
	}
	return "access", "refresh", f.user, nil
}

func (f *fakeAuthService) RefreshToken(ctx context.Context, token string) (string, error) {
	if token != "refresh" {
		return "", service.ErrInvalidToken
	}
	return "access-2", nil
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func authRouter(svc service.AuthService) http.Handler {
	r := chi.NewRouter()
	NewAuthHandler(svc, zap.NewNop()).RegisterRoutes(r, passthrough, passthrough)
	return r
}

// Malformed login payloads never reach the service and carry field errors.
func TestProperty_InvalidLoginDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("login with invalid data returns validation errors", prop.ForAll(
		func(invalidCase int) bool {
			var reqBody LoginRequest
			switch invalidCase % 3 {
			case 0:
				reqBody = LoginRequest{Email: "", Password: "secret"}
			case 1:
				reqBody = LoginRequest{Email: "not-an-email", Password: "secret"}
			case 2:
				reqBody = LoginRequest{Email: "admin@example.com"}
			}

			rec := httptest.NewRecorder()
			authRouter(&fakeAuthService{}).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/login", reqBody))

			if rec.Code != http.StatusBadRequest {
				t.Logf("FAIL: expected 400, got %d", rec.Code)
				return false
			}

			var response struct {
				Error struct {
					Details struct {
						ValidationErrors []map[string]string `json:"validation_errors"`
					} `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				return false
			}
			return len(response.Error.Details.ValidationErrors) > 0
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthHandler_Login(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "admin@example.com", Name: "Admin", Role: domain.RoleAdmin}
	router := authRouter(&fakeAuthService{user: user})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/login", LoginRequest{Email: "admin@example.com", Password: "secret"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, user.ID.String(), resp.User.ID)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/login", LoginRequest{Email: "admin@example.com", Password: "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), decodeError(t, rec)["message"])
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	svc := &fakeAuthService{}
	router := authRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: "refresh"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access-2")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: "stolen"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/logout", RefreshRequest{RefreshToken: "refresh"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"refresh"}, svc.revoked)
}
