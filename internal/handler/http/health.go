package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
)

// HealthChecker is implemented by the database pool and the redis client
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type HealthHandler interface {
	Check(w http.ResponseWriter, r *http.Request)
}

type healthHandlerImpl struct {
	checks map[string]HealthChecker
}

func NewHealthHandler(checks map[string]HealthChecker) HealthHandler {
	return &healthHandlerImpl{checks: checks}
}

// Check implements HealthHandler.
func (h *healthHandlerImpl) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	failed := make(map[string]string)
	for name, check := range h.checks {
		if check.Healthy(ctx) {
			status[name] = "up"
			continue
		}
		status[name] = "down"
		failed[name] = "down"
	}

	if len(failed) > 0 {
		response.Refused(w, http.StatusServiceUnavailable, "UNHEALTHY", "One or more dependencies are unavailable", failed)
		return
	}

	response.Success(w, status)
}
