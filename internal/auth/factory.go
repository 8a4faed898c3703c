// Package auth establishes the caller identity for the rir-manager API.
//
// In header mode the fronting host is trusted to set X-User-ID. In jwt mode
// every non-public request carries an HS256 bearer token signed with a
// shared secret; its subject becomes the X-User-ID seen by the handlers
// and any client supplied header is discarded.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ipam-rir/rir-manager/internal/config"
)

// NewAuthMiddleware creates authentication middleware based on config.
// A nil config selects header mode.
func NewAuthMiddleware(cfg *config.AuthConfig) (func(http.Handler) http.Handler, error) {
	switch cfg.GetMode() {
	case config.AuthModeHeader:
		slog.Info("auth: header mode, trusting X-User-ID from the host")
		return headerMiddleware, nil
	case config.AuthModeJWT:
		return createJWTMiddleware(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

func createJWTMiddleware(cfg *config.AuthConfig) (func(http.Handler) http.Handler, error) {
	secret, err := cfg.GetSecret()
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, errors.New("auth secret must not be empty")
	}

	m := newJWTMiddleware([]byte(secret), cfg.Issuer, cfg.Realm)
	publicPaths := append(append([]string{}, DefaultPublicPaths...), cfg.PublicPaths...)

	slog.Info("auth: jwt mode", "issuer", cfg.Issuer, "public_paths", publicPaths)
	return WrapWithPublicPaths(m.Middleware, publicPaths), nil
}

// headerMiddleware passes requests through; handlers read X-User-ID as sent.
func headerMiddleware(next http.Handler) http.Handler {
	return next
}
