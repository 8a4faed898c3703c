package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/ipam-rir/rir-manager/internal/api/common"
	"github.com/ipam-rir/rir-manager/internal/versions"
)

// HealthRouter creates a router for health check endpoints
func HealthRouter(checks map[string]Pinger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(checks))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler pings every check and reports the first failure
func readinessHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		for _, name := range names {
			if err := checks[name].Ping(r.Context()); err != nil {
				common.WriteErrorResponse(w, name+" not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	common.WriteJSONResponse(w, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
	}, http.StatusOK)
}
