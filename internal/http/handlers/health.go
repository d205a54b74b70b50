package handlers

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process liveness plus dependency reachability.
type HealthHandler struct {
	db    pinger
	redis pinger
}

func NewHealthHandler(db, redis pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for name, p := range map[string]pinger{"database": h.db, "redis": h.redis} {
		switch {
		case p == nil:
			deps[name] = "disabled"
		case p.Ping(ctx) != nil:
			deps[name] = "unreachable"
			status = http.StatusServiceUnavailable
		default:
			deps[name] = "ok"
		}
	}

	writeJSON(w, status, map[string]any{
		"status":       http.StatusText(status),
		"dependencies": deps,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}
