package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api/response"
	"github.com/Rrens/kb-assistant/internal/llm"
)

// ReadinessCheck reports whether one dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status of every named dependency
func ReadyCheck(checks map[string]ReadinessCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		failed := map[string]string{}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				failed[name] = "not ready"
			}
		}

		if len(failed) > 0 {
			response.ServiceUnavailable(w, failed)
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns the registered LLM providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}
