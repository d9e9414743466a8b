package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Database string `json:"database" example:"connected"`
}

// healthCheck godoc
//
//	@Summary		Health check
//	@Description	Reports whether the API can reach MongoDB
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/health [get]
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	if a.health == nil {
		a.respondJSON(w, HealthResponse{Status: "healthy", Database: "unknown"}, http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.health.HealthCheck(ctx); err != nil {
		LogWithRequestID(r.Context(), a.logger).Warnw("Health check failed", "error", err)
		a.respondJSON(w, HealthResponse{Status: "unhealthy", Database: "disconnected"}, http.StatusServiceUnavailable)
		return
	}

	a.respondJSON(w, HealthResponse{Status: "healthy", Database: "connected"}, http.StatusOK)
}

// swaggerRedirect sends /swagger to the UI entry page
func (a *API) swaggerRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	a.writeMessage(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
}

func (a *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.writeMessage(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}
