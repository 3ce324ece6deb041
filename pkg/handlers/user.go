package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/auth"
	"github.com/nutridive/nutridive/pkg/services"
)

// UpdateAllergensRequest for PUT /api/me/allergens
type UpdateAllergensRequest struct {
	Allergens []string `json:"allergens"`
}

// UpdateAllergensResponse echoes the stored list.
type UpdateAllergensResponse struct {
	Message   string   `json:"message"`
	Allergens []string `json:"allergens"`
}

// UserHandler serves the signed-in user's allergen profile.
type UserHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// RegisterRoutes registers the user handler's routes on the given mux.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/me", authMiddleware.RequireAuth(h.Me))
	mux.HandleFunc("PUT /api/me/allergens", authMiddleware.RequireAuth(h.UpdateAllergens))
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, email := identity(r)

	profile, err := h.userService.GetProfile(r.Context(), userID, email)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateAllergens handles PUT /api/me/allergens
func (h *UserHandler) UpdateAllergens(w http.ResponseWriter, r *http.Request) {
	var req UpdateAllergensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	userID, email := identity(r)
	user, err := h.userService.UpdateAllergens(r.Context(), userID, email, req.Allergens)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	response := UpdateAllergensResponse{Message: "Allergens updated", Allergens: user.Allergens}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func identity(r *http.Request) (userID, email string) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		return "", ""
	}
	return claims.ID(), claims.Email
}
