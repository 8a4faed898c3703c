package httpclient

import (
	"errors"
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// sensitiveParams are query parameters whose values never leave the client
// in error text.
var sensitiveParams = []string{"apikey", "api_key", "key", "token", "access_token"}

// RedactURL masks credential-bearing query values in raw. A URL that cannot
// be parsed loses its whole query string.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	changed := false
	for name := range q {
		for _, s := range sensitiveParams {
			if strings.EqualFold(name, s) {
				q.Set(name, redacted)
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// redactError rewrites the URL of any *url.Error in err's chain.
func redactError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = RedactURL(ue.URL)
	}
	return err
}
