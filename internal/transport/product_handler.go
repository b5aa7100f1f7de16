package transport

import (
	"mime/multipart"
	"net/http"
	"strings"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/middleware"
	"h2o-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadLimits bounds a multipart request.
type UploadLimits interface {
	MaxBytes() int64
	MaxFiles() int
}

// VariantRequest is one entry of the variants JSON field. An empty or
// unknown id creates a new variant.
type VariantRequest struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
	SKU   string  `json:"sku"`
	Image string  `json:"image"`
}

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	products service.ProductService
	limits   UploadLimits
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, limits UploadLimits, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, limits: limits, logger: logger}
}

// RegisterRoutes registers the storefront reads and the admin mutations
func (h *ProductHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{brand}/{category}", h.ListByBrandCategory)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, service.ProductFilter{
		Brand:    r.URL.Query().Get("brand"),
		Category: r.URL.Query().Get("category"),
	})
}

// ListByBrandCategory serves /products/{brand}/{category}; "all" in either
// segment disables that filter.
func (h *ProductHandler) ListByBrandCategory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, service.ProductFilter{
		Brand:    chi.URLParam(r, "brand"),
		Category: chi.URLParam(r, "category"),
	})
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, filter service.ProductFilter) {
	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to fetch products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to fetch product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create accepts the product form with new images under "images" and an
// optional "gallery" JSON array of already stored URLs.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, uploads, ok := h.readForm(w, r, "gallery")
	if !ok {
		return
	}

	product, err := h.products.Create(r.Context(), input, uploads)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update accepts the product form with the kept images in "existingGallery".
// Leaving the field out keeps the current gallery; "[]" clears it.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	input, uploads, ok := h.readForm(w, r, "existingGallery")
	if !ok {
		return
	}

	product, err := h.products.Update(r.Context(), id, input, uploads)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// readForm parses the multipart product form. Malformed fields are answered
// with 400 before any upload is written.
func (h *ProductHandler) readForm(w http.ResponseWriter, r *http.Request, galleryField string) (service.ProductInput, []*multipart.FileHeader, bool) {
	var input service.ProductInput

	if err := parseForm(w, r, h.limits.MaxBytes(), h.limits.MaxFiles()); err != nil {
		h.logger.Debug("Product form rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return input, nil, false
	}

	price, err := formFloat(r, "price")
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "price", Message: "Must be a number"}})
		return input, nil, false
	}

	categoryID, err := formUUID(r, "categoryId")
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "categoryId", Message: "Must be a valid id"}})
		return input, nil, false
	}

	var gallery []string
	hasGallery, err := formJSON(r, galleryField, &gallery)
	if err != nil {
		respondWithServiceError(w, h.logger, service.ErrInvalidGallery, "invalid gallery")
		return input, nil, false
	}

	var variants []VariantRequest
	if _, err := formJSON(r, "variants", &variants); err != nil {
		respondWithServiceError(w, h.logger, service.ErrInvalidVariants, "invalid variants")
		return input, nil, false
	}

	input = service.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Volume:      r.FormValue("volume"),
		Brand:       r.FormValue("brand"),
		CategoryID:  categoryID,
		Gallery:     galleryInput(hasGallery, gallery),
		Variants:    toVariants(variants),
	}
	return input, formFiles(r, "images"), true
}

func toVariants(reqs []VariantRequest) []domain.Variant {
	variants := make([]domain.Variant, 0, len(reqs))
	for _, req := range reqs {
		id, err := uuid.Parse(strings.TrimSpace(req.ID))
		if err != nil {
			id = uuid.Nil
		}
		variants = append(variants, domain.Variant{
			ID:    id,
			Name:  strings.TrimSpace(req.Name),
			Price: req.Price,
			Stock: req.Stock,
			SKU:   strings.TrimSpace(req.SKU),
			Image: strings.TrimSpace(req.Image),
		})
	}
	return variants
}

// galleryInput leaves the gallery nil when the field was not sent, which keeps
// the stored images on update.
func galleryInput(present bool, urls []string) []string {
	if !present {
		return nil
	}
	return cleanURLs(urls)
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
