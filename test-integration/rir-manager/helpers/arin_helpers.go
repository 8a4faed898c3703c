package helpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const errorXML = `<error xmlns="http://www.arin.net/regrws/core/v1"><code>%s</code><message>%s</message></error>`

// MockARINServerBuilder provides a fluent interface for building mock Reg-RWS servers
type MockARINServerBuilder struct {
	apiKey   string
	orgs     map[string]string
	pocs     map[string]string
	statuses map[string]int
}

// NewMockARINServerBuilder creates a builder accepting apiKey
func NewMockARINServerBuilder(apiKey string) *MockARINServerBuilder {
	return &MockARINServerBuilder{
		apiKey:   apiKey,
		orgs:     make(map[string]string),
		pocs:     make(map[string]string),
		statuses: make(map[string]int),
	}
}

// WithOrganization serves /rest/org/{handle} linking the given POC handles
func (b *MockARINServerBuilder) WithOrganization(handle, name string, pocHandles ...string) *MockARINServerBuilder {
	var links strings.Builder
	for _, h := range pocHandles {
		fmt.Fprintf(&links, `<pocLinkRef handle="%s" function="T" description="Tech"/>`, h)
	}
	b.orgs[handle] = fmt.Sprintf(`<org xmlns="http://www.arin.net/regrws/core/v1">
  <handle>%s</handle>
  <orgName>%s</orgName>
  <streetAddress><line number="1">1 Main St</line></streetAddress>
  <city>Chantilly</city>
  <iso3166-1><code2>US</code2></iso3166-1>
  <iso3166-2>VA</iso3166-2>
  <postalCode>20151</postalCode>
  <pocLinks>%s</pocLinks>
</org>`, handle, name, links.String())
	return b
}

// WithContact serves /rest/poc/{handle}
func (b *MockARINServerBuilder) WithContact(handle, firstName, lastName, email string) *MockARINServerBuilder {
	b.pocs[handle] = fmt.Sprintf(`<poc xmlns="http://www.arin.net/regrws/core/v1">
  <handle>%s</handle>
  <contactType>PERSON</contactType>
  <firstName>%s</firstName>
  <lastName>%s</lastName>
  <emails><email>%s</email></emails>
  <city>Chantilly</city>
  <iso3166-1><code2>US</code2></iso3166-1>
</poc>`, handle, firstName, lastName, email)
	return b
}

// WithStatus makes path answer with status and an ARIN error payload
func (b *MockARINServerBuilder) WithStatus(path string, status int) *MockARINServerBuilder {
	b.statuses[path] = status
	return b
}

// MockARINServer is a running mock that records request paths
type MockARINServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// Requests returns the paths requested so far
func (s *MockARINServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Build creates and starts the mock HTTP server
func (b *MockARINServerBuilder) Build() *MockARINServer {
	s := &MockARINServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("apikey") != b.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintf(w, errorXML, "E_AUTHENTICATION", "The API key is not authorized.")
			return
		}
		if status, ok := b.statuses[r.URL.Path]; ok {
			w.WriteHeader(status)
			fmt.Fprintf(w, errorXML, "E_UNSPECIFIED", http.StatusText(status))
			return
		}

		kind, handle, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/rest/"), "/")
		var body string
		switch kind {
		case "org":
			body = b.orgs[handle]
		case "poc":
			body = b.pocs[handle]
		}
		if body == "" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, errorXML, "E_OBJECT_NOT_FOUND", "The object does not exist.")
			return
		}
		fmt.Fprint(w, body)
	}))
	return s
}
