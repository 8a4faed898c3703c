package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ipam-rir/rir-manager/internal/api/common"
)

// RFC 6750 Section 3 error codes
const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeInvalidToken   = "invalid_token"
)

const defaultRealm = "rir-manager"

var (
	errMissingToken   = errors.New("missing or malformed authorization header")
	errInvalidSubject = errors.New("token subject must be a positive user ID")
)

// jwtMiddleware validates HS256 bearer tokens issued by the host.
type jwtMiddleware struct {
	secret []byte
	realm  string
	parser *jwt.Parser
}

func newJWTMiddleware(secret []byte, issuer, realm string) *jwtMiddleware {
	if realm == "" {
		realm = defaultRealm
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &jwtMiddleware{
		secret: secret,
		realm:  realm,
		parser: jwt.NewParser(opts...),
	}
}

// Middleware rejects requests without a valid token and replaces X-User-ID
// with the token subject.
func (m *jwtMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			slog.Warn("Token extraction failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidRequest, errMissingToken.Error())
			return
		}

		userID, err := m.validateToken(token)
		if err != nil {
			slog.Warn("Token validation failed",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidToken, "token validation failed")
			return
		}

		slog.Debug("Authentication successful", "user_id", userID, "path", r.URL.Path)
		r.Header.Set(common.UserIDHeader, strconv.FormatInt(userID, 10))
		next.ServeHTTP(w, r)
	})
}

func (m *jwtMiddleware) validateToken(raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errInvalidSubject
	}
	return userID, nil
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

// sanitizeHeaderValue removes characters that could enable header injection attacks.
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// writeError writes a JSON error with an RFC 6750 WWW-Authenticate challenge.
func (m *jwtMiddleware) writeError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		sanitizeHeaderValue(m.realm), errCode, sanitizeHeaderValue(description)))
	w.WriteHeader(status)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// WrapWithPublicPaths wraps an auth middleware to bypass authentication for public paths.
func WrapWithPublicPaths(
	authMw func(http.Handler) http.Handler,
	publicPaths []string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authWrappedNext := authMw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path, publicPaths) {
				next.ServeHTTP(w, r)
				return
			}
			authWrappedNext.ServeHTTP(w, r)
		})
	}
}
