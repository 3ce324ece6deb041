package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/auth"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/services"
)

// CompareRequest for POST /api/compare
type CompareRequest struct {
	Barcodes []string `json:"barcodes"`
}

// CompareResponse lists the analyses in request order.
type CompareResponse struct {
	Products []*models.AnalysisResult `json:"products"`
}

// CompareHandler handles side-by-side product comparison.
type CompareHandler struct {
	comparisonService services.ComparisonService
	userService       services.UserService
	logger            *zap.Logger
}

// NewCompareHandler creates a new comparison handler.
func NewCompareHandler(
	comparisonService services.ComparisonService,
	userService services.UserService,
	logger *zap.Logger,
) *CompareHandler {
	return &CompareHandler{
		comparisonService: comparisonService,
		userService:       userService,
		logger:            logger,
	}
}

// RegisterRoutes registers the comparison handler's routes on the given mux.
func (h *CompareHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/compare", authMiddleware.OptionalAuth(h.Compare))
}

// Compare handles POST /api/compare
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	caller, ok := resolveCaller(w, r, h.userService, h.logger)
	if !ok {
		return
	}

	products, err := h.comparisonService.Compare(r.Context(), req.Barcodes, caller)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, CompareResponse{Products: products}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
