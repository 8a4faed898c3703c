package auth

import (
	"path"
	"strings"
)

// DefaultPublicPaths never require authentication
var DefaultPublicPaths = []string{"/health", "/readiness", "/version", "/metrics"}

// IsPublicPath checks if a path should bypass authentication.
// It performs secure path matching by:
// 1. Rejecting paths with encoded path separators to prevent double-encoding attacks
// 2. Normalizing the path to prevent traversal attacks (e.g., /health/../api/v1/tickets)
// 3. Using segment-aware matching so /health matches /health and /health/check but NOT /healthcheck
func IsPublicPath(requestPath string, publicPaths []string) bool {
	lowerPath := strings.ToLower(requestPath)
	if strings.Contains(lowerPath, "%2f") || strings.Contains(lowerPath, "%2e") {
		return false
	}

	cleanPath := path.Clean(requestPath)
	if !strings.HasPrefix(cleanPath, "/") {
		cleanPath = "/" + cleanPath
	}

	for _, publicPath := range publicPaths {
		cleanPublicPath := path.Clean(publicPath)
		if !strings.HasPrefix(cleanPublicPath, "/") {
			cleanPublicPath = "/" + cleanPublicPath
		}

		// "/" makes everything public
		if cleanPublicPath == "/" {
			return true
		}
		if cleanPath == cleanPublicPath {
			return true
		}
		if strings.HasPrefix(cleanPath, cleanPublicPath+"/") {
			return true
		}
	}
	return false
}
