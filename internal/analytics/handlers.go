package analytics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waconnect/backend/internal/common"
)

// Handler exposes the dashboard summary endpoint.
type Handler struct {
	Service *Service
}

// Summary handles GET /api/v1/businesses/{businessID}/analytics.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	summary, err := h.Service.Summary(r.Context(), chi.URLParam(r, "businessID"), userID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}
