package handlers

import (
	"net/http"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
)

// SystemHandler serves the unauthenticated system endpoints.
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Health reports database connectivity and how far the rate cache reaches.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthStatus, 503 when the database is unreachable
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.systemService.CheckHealth(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Version handles GET requests to retrieve version information.
// Returns the application version, the applied schema version, enabled
// features, and whether migrations are pending.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	info, err := h.systemService.CheckVersion()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}
