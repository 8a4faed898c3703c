// Package config provides configuration loading and management for rir-manager.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

const (
	// QueueTypeMemory keeps jobs in a process-local channel
	QueueTypeMemory = "memory"

	// QueueTypeRedis keeps jobs in a Redis list
	QueueTypeRedis = "redis"
)

const (
	// ChildDiscoveryInline runs child prefix discovery inside the sync job
	ChildDiscoveryInline = "inline"

	// ChildDiscoveryQueued hands child prefix discovery to the job queue
	ChildDiscoveryQueued = "queued"
)

const (
	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "RIR_MANAGER"

	// DatabasePasswordEnv is the environment fallback for the database password
	DatabasePasswordEnv = "RIR_MANAGER_DB_PASSWORD"

	// SecretKeyEnv is the environment fallback for the credential encryption key
	SecretKeyEnv = "RIR_MANAGER_SECRET_KEY"

	// AuthSecretEnv is the environment fallback for the JWT signing secret
	AuthSecretEnv = "RIR_MANAGER_AUTH_SECRET"
)

// AuthMode selects how the caller identity is established
type AuthMode string

const (
	// AuthModeHeader trusts the X-User-ID header set by the fronting host
	AuthModeHeader AuthMode = "header"

	// AuthModeJWT requires an HS256 bearer token whose subject is the user ID
	AuthModeJWT AuthMode = "jwt"
)

const (
	defaultServerAddress   = ":8080"
	defaultQueueSize       = 1024
	defaultConcurrency     = 2
	defaultSchedule        = "@daily"
	defaultRegistryTimeout = 30 * time.Second
	defaultNominatimURL    = "https://nominatim.openstreetmap.org"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server ServerConfig `yaml:"server,omitempty"`

	// Database selects the Postgres store. Without it an in-memory store and
	// IPAM source are used, which only suits development.
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Secrets configures encryption of API keys at rest
	Secrets *SecretsConfig `yaml:"secrets,omitempty"`

	// Auth configures caller identity; header mode when omitted
	Auth *AuthConfig `yaml:"auth,omitempty"`

	Queue    QueueConfig     `yaml:"queue,omitempty"`
	Worker   WorkerConfig    `yaml:"worker,omitempty"`
	Sync     SyncConfig      `yaml:"sync,omitempty"`
	Registry RegistryConfig  `yaml:"registry,omitempty"`
	Geocoder *GeocoderConfig `yaml:"geocoder,omitempty"`

	// Telemetry configures metrics and trace export
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Registries are registry configs created at startup when missing
	Registries []RegistrySeed `yaml:"registries,omitempty"`
}

// ServerConfig defines the HTTP listener
type ServerConfig struct {
	// Address is the listen address, ":8080" by default
	Address string `yaml:"address,omitempty"`

	// ReadTimeout bounds reading a request (e.g., "15s")
	ReadTimeout string `yaml:"readTimeout,omitempty"`

	// WriteTimeout bounds writing a response; write operations call the
	// registry synchronously, so keep it above the registry timeout
	WriteTimeout string `yaml:"writeTimeout,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// MigrateOnStart applies pending migrations before serving
	MigrateOnStart bool `yaml:"migrateOnStart,omitempty"`
}

// SecretsConfig locates the hex encoded AES-256 key
type SecretsConfig struct {
	// KeyFile is the path to a file containing the key
	KeyFile string `yaml:"keyFile,omitempty"`
}

// AuthConfig defines how API callers are identified
type AuthConfig struct {
	// Mode is "header" (default) or "jwt"
	Mode AuthMode `yaml:"mode,omitempty"`

	// SecretFile is the path to a file containing the HS256 secret
	SecretFile string `yaml:"secretFile,omitempty"`

	// Issuer, when set, must match the token's iss claim
	Issuer string `yaml:"issuer,omitempty"`

	// Realm is reported in WWW-Authenticate challenges
	Realm string `yaml:"realm,omitempty"`

	// PublicPaths bypass authentication; health, readiness, version and
	// metrics are always public
	PublicPaths []string `yaml:"publicPaths,omitempty"`
}

// GetMode returns the configured mode or header mode
func (a *AuthConfig) GetMode() AuthMode {
	if a == nil || a.Mode == "" {
		return AuthModeHeader
	}
	return a.Mode
}

// GetSecret returns the JWT secret from SecretFile or the
// RIR_MANAGER_AUTH_SECRET environment variable
func (a *AuthConfig) GetSecret() (string, error) {
	if a.SecretFile != "" {
		secret, err := readSecretFile(a.SecretFile)
		if err != nil {
			return "", fmt.Errorf("failed to read auth secret: %w", err)
		}
		return secret, nil
	}
	if env := os.Getenv(AuthSecretEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no auth secret configured: set secretFile or %s environment variable", AuthSecretEnv)
}

// QueueConfig selects the job queue backend
type QueueConfig struct {
	// Type is "memory" (default) or "redis"
	Type string `yaml:"type,omitempty"`

	// Size is the buffer of the in-memory queue
	Size int `yaml:"size,omitempty"`

	// RedisURL is a redis:// URL, required for the redis queue
	RedisURL string `yaml:"redisURL,omitempty"`

	// Key is the Redis list holding the jobs
	Key string `yaml:"key,omitempty"`
}

// WorkerConfig defines the job worker pool
type WorkerConfig struct {
	// Concurrency is the number of jobs processed at once
	Concurrency int `yaml:"concurrency,omitempty"`
}

// SyncConfig defines scheduled reconciliation
type SyncConfig struct {
	// Schedule is a cron expression or descriptor, "@daily" by default
	Schedule string `yaml:"schedule,omitempty"`

	// Disabled turns off the scheduled coordinator
	Disabled bool `yaml:"disabled,omitempty"`

	// RunOnStart syncs every active config when the server starts
	RunOnStart bool `yaml:"runOnStart,omitempty"`

	// Scopes limits scheduled runs; empty means all
	Scopes []string `yaml:"scopes,omitempty"`

	// ChildDiscovery is "inline" (default) or "queued"
	ChildDiscovery string `yaml:"childDiscovery,omitempty"`

	// AutoLink links unlinked networks to local aggregates and prefixes
	// after network sync
	AutoLink *bool `yaml:"autoLink,omitempty"`
}

// RegistryConfig defines how registry backends are called
type RegistryConfig struct {
	// Timeout bounds a single HTTP request (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// RateLimit is the requests per second allowed per API key
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// MaxAttempts is the total attempts for a transient failure, including the first
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// BackoffBase is the first retry wait in seconds; waits double from there
	BackoffBase float64 `yaml:"backoffBase,omitempty"`
}

// GeocoderConfig enables address lookup for sites without a stored address
type GeocoderConfig struct {
	// URL is the Nominatim base URL
	URL string `yaml:"url,omitempty"`

	// UserAgent identifies the deployment, as the public Nominatim service requires
	UserAgent string `yaml:"userAgent"`

	// RateLimit is the requests per second, 1 by default
	RateLimit float64 `yaml:"rateLimit,omitempty"`
}

// RegistrySeed describes a registry config and its credentials
type RegistrySeed struct {
	Name      string `yaml:"name"`
	RIR       string `yaml:"rir"`
	APIURL    string `yaml:"apiURL,omitempty"`
	OrgHandle string `yaml:"orgHandle"`
	// Inactive configs are stored but not synced
	Inactive    bool             `yaml:"inactive,omitempty"`
	Credentials []CredentialSeed `yaml:"credentials,omitempty"`
}

// CredentialSeed is a user's API key for a seeded registry config
type CredentialSeed struct {
	UserID int64 `yaml:"userID"`

	// APIKeyFile is the path to a file containing the API key
	APIKeyFile string `yaml:"apiKeyFile"`
}

// GetAPIKey reads the API key from its file
func (c *CredentialSeed) GetAPIKey() (string, error) {
	return readSecretFile(c.APIKeyFile)
}

func readSecretFile(path string) (string, error) {
	// Use filepath.Clean to prevent path traversal attacks
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to read secret from file %s: %w", path, err)
	}
	// Trim whitespace (including newlines) from file content
	return strings.TrimSpace(string(data)), nil
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from RIR_MANAGER_DB_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		password, err := readSecretFile(d.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read database password: %w", err)
		}
		return password, nil
	}

	if envPassword := os.Getenv(DatabasePasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", DatabasePasswordEnv,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String(), nil
}

// GetKey returns the hex encryption key from KeyFile or the
// RIR_MANAGER_SECRET_KEY environment variable. An empty key with no error
// means encryption is not configured.
func (s *SecretsConfig) GetKey() (string, error) {
	if s != nil && s.KeyFile != "" {
		return readSecretFile(s.KeyFile)
	}
	return os.Getenv(SecretKeyEnv), nil
}

// GetAddress returns the listen address
func (s *ServerConfig) GetAddress() string {
	if s.Address == "" {
		return defaultServerAddress
	}
	return s.Address
}

// GetReadTimeout returns the request read timeout
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(s.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the response write timeout
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(s.WriteTimeout, 5*time.Minute)
}

// GetType returns the queue backend
func (q *QueueConfig) GetType() string {
	if q.Type == "" {
		return QueueTypeMemory
	}
	return q.Type
}

// GetSize returns the in-memory queue buffer size
func (q *QueueConfig) GetSize() int {
	if q.Size <= 0 {
		return defaultQueueSize
	}
	return q.Size
}

// GetConcurrency returns the worker pool size
func (w *WorkerConfig) GetConcurrency() int {
	if w.Concurrency <= 0 {
		return defaultConcurrency
	}
	return w.Concurrency
}

// GetSchedule returns the cron schedule
func (s *SyncConfig) GetSchedule() string {
	if s.Schedule == "" {
		return defaultSchedule
	}
	return s.Schedule
}

// QueuedChildDiscovery reports whether child discovery runs as separate jobs
func (s *SyncConfig) QueuedChildDiscovery() bool {
	return s.ChildDiscovery == ChildDiscoveryQueued
}

// AutoLinkEnabled reports whether unlinked networks are linked after sync,
// true unless disabled
func (s *SyncConfig) AutoLinkEnabled() bool {
	return s.AutoLink == nil || *s.AutoLink
}

// GetTimeout returns the per-request registry timeout
func (r *RegistryConfig) GetTimeout() time.Duration {
	return parseDurationOr(r.Timeout, defaultRegistryTimeout)
}

// GetURL returns the geocoder base URL
func (g *GeocoderConfig) GetURL() string {
	if g.URL == "" {
		return defaultNominatimURL
	}
	return strings.TrimRight(g.URL, "/")
}

// GetRateLimit returns the geocoder requests per second
func (g *GeocoderConfig) GetRateLimit() float64 {
	if g.RateLimit <= 0 {
		return 1
	}
	return g.RateLimit
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration and returns the first problem found
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(&c.Server); err != nil {
		return err
	}
	if c.Database != nil {
		if err := validateDatabase(c.Database); err != nil {
			return err
		}
	}
	if err := validateQueue(&c.Queue); err != nil {
		return err
	}
	if err := validateSync(&c.Sync); err != nil {
		return err
	}
	if err := validateRegistry(&c.Registry); err != nil {
		return err
	}
	if c.Geocoder != nil && strings.TrimSpace(c.Geocoder.UserAgent) == "" {
		return fmt.Errorf("geocoder: userAgent is required")
	}
	if err := validateAuth(c.Auth); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return c.validateRegistries()
}

func validateServer(s *ServerConfig) error {
	for name, value := range map[string]string{"readTimeout": s.ReadTimeout, "writeTimeout": s.WriteTimeout} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("server: %s must be a valid duration (e.g., '15s', '5m'): %w", name, err)
		}
	}
	return nil
}

func validateDatabase(d *DatabaseConfig) error {
	if d.Host == "" {
		return fmt.Errorf("database: host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("database: port must be between 1 and 65535")
	}
	if d.User == "" {
		return fmt.Errorf("database: user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database: database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("database: connMaxLifetime must be a valid duration (e.g., '30m', '1h'): %w", err)
		}
	}
	return nil
}

func validateAuth(a *AuthConfig) error {
	switch a.GetMode() {
	case AuthModeHeader, AuthModeJWT:
	default:
		return fmt.Errorf("auth: mode must be either header or jwt, got %s", a.Mode)
	}
	for i, p := range a.getPublicPaths() {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("auth: publicPaths[%d] must start with /", i)
		}
	}
	return nil
}

func (a *AuthConfig) getPublicPaths() []string {
	if a == nil {
		return nil
	}
	return a.PublicPaths
}

func validateQueue(q *QueueConfig) error {
	switch q.GetType() {
	case QueueTypeMemory:
		return nil
	case QueueTypeRedis:
		if q.RedisURL == "" {
			return fmt.Errorf("queue: redisURL is required when type is %s", QueueTypeRedis)
		}
		return nil
	default:
		return fmt.Errorf("queue: type must be either %s or %s, got %s", QueueTypeMemory, QueueTypeRedis, q.Type)
	}
}

func validateSync(s *SyncConfig) error {
	if _, err := cron.ParseStandard(s.GetSchedule()); err != nil {
		return fmt.Errorf("sync: schedule must be a cron expression or descriptor (e.g., '@daily', '0 3 * * *'): %w", err)
	}
	switch s.ChildDiscovery {
	case "", ChildDiscoveryInline, ChildDiscoveryQueued:
	default:
		return fmt.Errorf("sync: childDiscovery must be either %s or %s, got %s",
			ChildDiscoveryInline, ChildDiscoveryQueued, s.ChildDiscovery)
	}
	for i, scope := range s.Scopes {
		switch strings.ToLower(strings.TrimSpace(scope)) {
		case "organizations", "contacts", "networks":
		default:
			return fmt.Errorf("sync: scopes[%d]: unknown scope %q", i, scope)
		}
	}
	return nil
}

func validateRegistry(r *RegistryConfig) error {
	if r.Timeout != "" {
		if _, err := time.ParseDuration(r.Timeout); err != nil {
			return fmt.Errorf("registry: timeout must be a valid duration (e.g., '30s'): %w", err)
		}
	}
	if r.RateLimit < 0 {
		return fmt.Errorf("registry: rateLimit must not be negative")
	}
	if r.MaxAttempts < 0 {
		return fmt.Errorf("registry: maxAttempts must not be negative")
	}
	if r.BackoffBase < 0 {
		return fmt.Errorf("registry: backoffBase must not be negative")
	}
	return nil
}

func (c *Config) validateRegistries() error {
	names := make(map[string]bool)
	for i, reg := range c.Registries {
		if reg.Name == "" {
			return fmt.Errorf("registries[%d]: name is required", i)
		}
		prefix := fmt.Sprintf("registries[%d] (%s)", i, reg.Name)

		if names[reg.Name] {
			return fmt.Errorf("registries[%d]: duplicate registry name '%s'", i, reg.Name)
		}
		names[reg.Name] = true

		if reg.RIR == "" {
			return fmt.Errorf("%s: rir is required", prefix)
		}
		if reg.OrgHandle == "" {
			return fmt.Errorf("%s: orgHandle is required", prefix)
		}
		if reg.APIURL != "" {
			if u, err := url.Parse(reg.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("%s: apiURL must be an absolute URL", prefix)
			}
		}

		users := make(map[int64]bool)
		for j, cred := range reg.Credentials {
			if cred.UserID <= 0 {
				return fmt.Errorf("%s: credentials[%d]: userID is required", prefix, j)
			}
			if users[cred.UserID] {
				return fmt.Errorf("%s: credentials[%d]: duplicate credential for user %d", prefix, j, cred.UserID)
			}
			users[cred.UserID] = true
			if cred.APIKeyFile == "" {
				return fmt.Errorf("%s: credentials[%d]: apiKeyFile is required", prefix, j)
			}
		}
	}
	return nil
}
