package transport

import (
	"net/http"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/middleware"
	"h2o-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsHandler serves the storefront settings
type SettingsHandler struct {
	settings service.SettingsService
	limits   UploadLimits
	logger   *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings service.SettingsService, limits UploadLimits, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, limits: limits, logger: logger}
}

// RegisterRoutes registers GET and the admin PUT
func (h *SettingsHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/settings", h.Get)
	r.With(admin).Put("/settings", h.Update)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to fetch settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// Update accepts the settings form: text fields, "banners" JSON with the
// banners to keep, new images under "bannerImages" and their names in the
// "bannerNames" JSON array. Without "banners" every current banner is kept.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.limits.MaxBytes(), h.limits.MaxFiles()); err != nil {
		h.logger.Debug("Settings form rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var banners []domain.Banner
	hasBanners, err := formJSON(r, "banners", &banners)
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "banners", Message: "Must be a JSON array of banners"}})
		return
	}

	var names []string
	if _, err := formJSON(r, "bannerNames", &names); err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "bannerNames", Message: "Must be a JSON array of strings"}})
		return
	}

	var kept []domain.Banner
	if hasBanners {
		kept = make([]domain.Banner, 0, len(banners))
		for _, b := range banners {
			if b.Image != "" {
				kept = append(kept, b)
			}
		}
	}

	settings, err := h.settings.Update(r.Context(), service.SettingsInput{
		Phone:       r.FormValue("phone"),
		Email:       r.FormValue("email"),
		Address:     r.FormValue("address"),
		MapURL:      r.FormValue("mapUrl"),
		FacebookURL: r.FormValue("facebookUrl"),
		YoutubeURL:  r.FormValue("youtubeUrl"),
		Banners:     kept,
		BannerNames: names,
	}, formFiles(r, "bannerImages"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update settings")
		return
	}

	h.logger.Info("Settings updated", zap.Int("banners", len(settings.Banners)))
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}
