package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any dependency that exposes a Ping method
// (database.Database, cache.RedisClient and events.EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies to probe. Store is required; a nil
// Cache or EventBus is reported as "disabled" and does not degrade status.
type HealthChecks struct {
	Store    HealthChecker
	Cache    HealthChecker
	EventBus HealthChecker
}

const (
	statusOK          = "ok"
	statusDegraded    = "degraded"
	statusUnreachable = "unreachable"
	statusDisabled    = "disabled"
)

type healthResponse struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Cache    string `json:"cache"`
	EventBus string `json:"event_bus"`
}

// HealthHandler probes every configured dependency and answers 503 when any
// of them fails.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: statusOK}
		probe := func(c HealthChecker) string {
			if c == nil {
				return statusDisabled
			}
			if err := c.Ping(ctx); err != nil {
				resp.Status = statusDegraded
				return statusUnreachable
			}
			return statusOK
		}
		resp.Store = probe(checks.Store)
		resp.Cache = probe(checks.Cache)
		resp.EventBus = probe(checks.EventBus)
		if checks.Store == nil {
			resp.Status = statusDegraded
		}

		status := http.StatusOK
		if resp.Status != statusOK {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
