package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/openfoodfacts"
	"github.com/nutridive/nutridive/pkg/services"
)

// ProductResponse wraps a raw product source record.
type ProductResponse struct {
	Product *models.ProductRecord `json:"product"`
}

// ProductHandler passes product source records through unchanged.
type ProductHandler struct {
	source openfoodfacts.ProductSource
	logger *zap.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(source openfoodfacts.ProductSource, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{source: source, logger: logger}
}

// RegisterRoutes registers the product handler's routes on the given mux.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product/{barcode}", h.Get)
}

// Get handles GET /api/product/{barcode}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	barcode, err := services.NormalizeBarcode(r.PathValue("barcode"))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	product, err := h.source.FetchProduct(r.Context(), barcode)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ProductResponse{Product: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
