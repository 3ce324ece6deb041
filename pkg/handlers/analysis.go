package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/auth"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/services"
)

// AnalysisHandler serves analyze, cached lookup and scan history.
type AnalysisHandler struct {
	analysisService services.AnalysisService
	userService     services.UserService
	logger          *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(
	analysisService services.AnalysisService,
	userService services.UserService,
	logger *zap.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		userService:     userService,
		logger:          logger,
	}
}

// RegisterRoutes registers the analysis handler's routes on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/analyze/{barcode}", authMiddleware.OptionalAuth(h.Analyze))
	mux.HandleFunc("GET /api/analysis/{barcode}", authMiddleware.OptionalAuth(h.GetCached))
	mux.HandleFunc("GET /api/history", authMiddleware.OptionalAuth(h.History))
	mux.HandleFunc("DELETE /api/history/{id}", authMiddleware.OptionalAuth(h.Delete))
}

// Analyze handles POST /api/analyze/{barcode}
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	result, err := h.analysisService.Analyze(r.Context(), r.PathValue("barcode"), caller)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetCached handles GET /api/analysis/{barcode}
func (h *AnalysisHandler) GetCached(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	result, err := h.analysisService.GetCached(r.Context(), r.PathValue("barcode"), caller.Allergens)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/history?limit=N
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := ParseLimit(w, r, h.logger)
	if !ok {
		return
	}

	rows, err := h.analysisService.ListRecent(r.Context(), limit, auth.GetUserIDFromContext(r.Context()))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}
	if rows == nil {
		rows = []models.AnalysisSummary{}
	}

	if err := WriteJSON(w, http.StatusOK, rows); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/history/{id}
func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAnalysisID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.analysisService.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, MessageResponse{Message: "Deleted successfully"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// caller builds the request's Caller from the token and allergens query.
func (h *AnalysisHandler) caller(w http.ResponseWriter, r *http.Request) (services.Caller, bool) {
	return resolveCaller(w, r, h.userService, h.logger)
}

// resolveCaller is shared by every handler that augments results with
// allergen warnings.
func resolveCaller(w http.ResponseWriter, r *http.Request, users services.UserService, logger *zap.Logger) (services.Caller, bool) {
	userID := auth.GetUserIDFromContext(r.Context())
	allergens, err := users.ResolveAllergens(r.Context(), userID, ParseAllergens(r))
	if err != nil {
		WriteServiceError(w, err, logger)
		return services.Caller{}, false
	}
	return services.Caller{UserID: userID, Allergens: allergens}, true
}
