package handlers

import (
	"context"
	"net/http"

	"agrichat/internal/services"
)

type statusService interface {
	Status(ctx context.Context) services.Status
}

type SystemHandler struct {
	statusService statusService
}

func NewSystemHandler(statusService statusService) *SystemHandler {
	return &SystemHandler{statusService: statusService}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Test handles GET /test, the page the client links to for checking the backend by hand.
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	st := h.statusService.Status(r.Context())
	status := http.StatusOK
	if st.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}
