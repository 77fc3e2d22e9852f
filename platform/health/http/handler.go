package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Handler serves the health endpoint. With no checks it always reports ok.
// Any failing check turns the response into 503 with the failing component named.
func Handler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				ready = false
				continue
			}
			components[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if len(components) > 0 {
			body["components"] = components
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			body["status"] = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}
