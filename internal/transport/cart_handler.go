package transport

import (
	"net/http"

	"h2o-shop/internal/middleware"
	"h2o-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartItemRequest is one requested cart line
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	VariantID string `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=1000"`
}

// CartSummaryRequest is the body of POST /cart/summary
type CartSummaryRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// CartHandler prices client-held carts
type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// RegisterRoutes registers the cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/cart/summary", h.Summary)
}

// Summary merges and prices the submitted lines against the live catalog
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req CartSummaryRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	items := make([]service.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		ci := service.CartItem{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
		}
		if item.VariantID != "" {
			variantID := uuid.MustParse(item.VariantID)
			ci.VariantID = &variantID
		}
		items = append(items, ci)
	}

	summary, err := h.cart.Summarize(r.Context(), items)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to summarize cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}
