package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// UserIDHeader carries the caller identity set by the fronting host
const UserIDHeader = "X-User-ID"

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter from the request.
// Returns the decoded value or an error if invalid.
// Validation rules:
// - Must not be empty after trimming whitespace
// - Must not contain any whitespace characters
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	encodedValue := chi.URLParam(r, paramName)

	decoded, err := url.PathUnescape(encodedValue)
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if strings.TrimSpace(decoded) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	if strings.ContainsAny(decoded, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}

	return decoded, nil
}

// GetIDParam extracts a positive integer identifier from the URL.
func GetIDParam(r *http.Request, paramName string) (int64, error) {
	raw, err := GetAndValidateURLParam(r, paramName)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", paramName)
	}
	return id, nil
}

// GetUserID returns the caller's user ID, or 0 when the header is absent.
func GetUserID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", UserIDHeader)
	}
	return id, nil
}
