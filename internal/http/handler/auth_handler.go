package handler

import (
	"net/http"

	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the caller's identity and role together with the actions the role allows
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.AuthUserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	respondJSON(w, http.StatusOK, domain.AuthUserDTO{
		ID:         userCtx.UserID,
		Name:       userCtx.DisplayName,
		Email:      userCtx.Email,
		Role:       userCtx.Role,
		CanEdit:    userCtx.HasAnyRole(domain.EditorRoles...),
		CanManage:  userCtx.HasAnyRole(domain.ManagerRoles...),
		CanApprove: userCtx.HasAnyRole(domain.ApproverRoles...),
	})
}
