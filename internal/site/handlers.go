package site

import (
	"net/http"

	"github.com/waconnect/backend/internal/common"
)

// Handler serves the template registry.
type Handler struct{}

// Templates handles GET /api/v1/templates.
func (Handler) Templates(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"templates": Templates()})
}
