package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/onsi/gomega"

	"github.com/ipam-rir/rir-manager/internal/api/common"
	"github.com/ipam-rir/rir-manager/internal/app"
	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// ConfigOptions describes the single seeded ARIN registry of a test server
type ConfigOptions struct {
	RegistryName string
	ARINURL      string
	OrgHandle    string
	UserID       int64
	APIKey       string

	// JWTSecret switches the API to jwt auth mode when set
	JWTSecret string
}

// WriteConfigYAML writes a YAML configuration file and the secret files it
// references into dir, returning the config path
func WriteConfigYAML(dir string, opts ConfigOptions) string {
	keyFile := writeSecret(dir, "arin-api-key", opts.APIKey)

	var b strings.Builder
	fmt.Fprintf(&b, `server:
  address: 127.0.0.1:0
sync:
  disabled: true
registry:
  timeout: 5s
  maxAttempts: 1
registries:
  - name: %s
    rir: ARIN
    apiURL: %s
    orgHandle: %s
    credentials:
      - userID: %d
        apiKeyFile: %s
`, opts.RegistryName, opts.ARINURL, opts.OrgHandle, opts.UserID, keyFile)

	if opts.JWTSecret != "" {
		fmt.Fprintf(&b, `auth:
  mode: jwt
  issuer: ipam-host
  secretFile: %s
`, writeSecret(dir, "jwt-secret", opts.JWTSecret))
	}

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(b.String()), 0o600)).To(gomega.Succeed())
	return path
}

func writeSecret(dir, name, value string) string {
	path := filepath.Join(dir, name)
	gomega.Expect(os.WriteFile(path, []byte(value+"\n"), 0o600)).To(gomega.Succeed())
	return path
}

// ServerTestHelper manages the rir-manager server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *app.RirManagerApp
	errCh      chan error
}

// NewServerTestHelper creates a new server test helper
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		errCh:      make(chan error, 1),
	}
}

// StartServer loads the configuration, builds the app and serves it on a
// free loopback port
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := app.NewRirManagerApp(s.ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = a.Stop(time.Second)
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.app = a
	s.baseURL = "http://" + listener.Addr().String()
	go func() {
		s.errCh <- a.StartWithListener(listener)
	}()
	return nil
}

// StopServer gracefully stops the server and returns its run error
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	if err := s.app.Stop(5 * time.Second); err != nil {
		return err
	}
	select {
	case err := <-s.errCh:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("server did not exit after stop")
	}
}

// WaitForServerReady waits for /readiness to report every dependency up
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Store exposes the app's store for assertions
func (s *ServerTestHelper) Store() store.Store {
	return s.app.Components().Store
}

// Do sends method to path with an optional JSON body and headers
func (s *ServerTestHelper) Do(method, path string, body any, headers map[string]string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = data
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return s.httpClient.Do(req)
}

// AsUser returns the header set identifying userID in header auth mode
func AsUser(userID int64) map[string]string {
	return map[string]string{common.UserIDHeader: fmt.Sprint(userID)}
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}
