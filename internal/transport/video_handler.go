package transport

import (
	"net/http"
	"time"

	"h2o-shop/internal/middleware"
	"h2o-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VideoRequest is the create/update payload of a guide video
type VideoRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	VideoURL    string     `json:"video_url" validate:"required"`
	Thumbnail   string     `json:"thumbnail"`
	Date        *time.Time `json:"date"`
}

// VideoHandler handles guide video endpoints
type VideoHandler struct {
	videos service.VideoService
	logger *zap.Logger
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(videos service.VideoService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, logger: logger}
}

// RegisterRoutes registers the public listing and the admin mutations
func (h *VideoHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/videos", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to fetch videos")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, videos)
}

func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	video, err := h.videos.Create(r.Context(), service.VideoInput(req))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create video")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, video)
}

func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	var req VideoRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	video, err := h.videos.Update(r.Context(), id, service.VideoInput(req))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update video")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	if err := h.videos.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete video")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "video deleted"})
}
