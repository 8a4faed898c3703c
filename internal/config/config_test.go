package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		yamlContent      string
		skipFileCreation bool
		wantConfig       *Config
		wantErr          string
	}{
		{
			name:        "empty_config_uses_defaults",
			yamlContent: `{}`,
			wantConfig:  &Config{},
		},
		{
			name: "full_config",
			yamlContent: `server:
  address: ":9090"
  writeTimeout: "2m"
database:
  host: db.internal
  port: 5432
  user: rir
  database: rir_manager
  passwordFile: /run/secrets/db
  migrateOnStart: true
secrets:
  keyFile: /run/secrets/key
queue:
  type: redis
  redisURL: redis://cache:6379/0
worker:
  concurrency: 4
sync:
  schedule: "0 3 * * *"
  scopes: ["organizations", "networks"]
  childDiscovery: queued
registry:
  timeout: 45s
  maxAttempts: 5
geocoder:
  userAgent: rir-manager-test
telemetry:
  metrics:
    enabled: true
  tracing:
    enabled: true
    endpoint: otel-collector:4318
    sampling: 0.5
registries:
  - name: arin-prod
    rir: ARIN
    orgHandle: EXAMPLE-ARIN
    credentials:
      - userID: 1
        apiKeyFile: /run/secrets/arin`,
			wantConfig: &Config{
				Server: ServerConfig{Address: ":9090", WriteTimeout: "2m"},
				Database: &DatabaseConfig{
					Host:           "db.internal",
					Port:           5432,
					User:           "rir",
					Database:       "rir_manager",
					PasswordFile:   "/run/secrets/db",
					MigrateOnStart: true,
				},
				Secrets: &SecretsConfig{KeyFile: "/run/secrets/key"},
				Queue:   QueueConfig{Type: QueueTypeRedis, RedisURL: "redis://cache:6379/0"},
				Worker:  WorkerConfig{Concurrency: 4},
				Sync: SyncConfig{
					Schedule:       "0 3 * * *",
					Scopes:         []string{"organizations", "networks"},
					ChildDiscovery: ChildDiscoveryQueued,
				},
				Registry: RegistryConfig{Timeout: "45s", MaxAttempts: 5},
				Geocoder: &GeocoderConfig{UserAgent: "rir-manager-test"},
				Telemetry: &telemetry.Config{
					Metrics: &telemetry.MetricsConfig{Enabled: true},
					Tracing: &telemetry.TracingConfig{Enabled: true, Endpoint: "otel-collector:4318", Sampling: 0.5},
				},
				Registries: []RegistrySeed{{
					Name:        "arin-prod",
					RIR:         "ARIN",
					OrgHandle:   "EXAMPLE-ARIN",
					Credentials: []CredentialSeed{{UserID: 1, APIKeyFile: "/run/secrets/arin"}},
				}},
			},
		},
		{
			name:        "invalid_yaml",
			yamlContent: `queue: [invalid yaml`,
			wantErr:     "failed to parse YAML config",
		},
		{
			name:        "invalid_values",
			yamlContent: "queue:\n  type: kafka",
			wantErr:     "invalid configuration: queue: type must be either memory or redis",
		},
		{
			name:             "file_not_found",
			skipFileCreation: true,
			wantErr:          "failed to evaluate symlinks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var configPath string
			if tt.skipFileCreation {
				configPath = filepath.Join(t.TempDir(), "non-existent.yaml")
			} else {
				configPath = writeFile(t, "config.yaml", tt.yamlContent)
			}

			config, err := LoadConfig(WithConfigPath(configPath))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, config)
		})
	}
}

func TestLoadConfigRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	assert.EqualError(t, err, "path is required")

	_, err = LoadConfig(WithConfigPath(""))
	assert.EqualError(t, err, "path is required")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validDB := func() *DatabaseConfig {
		return &DatabaseConfig{Host: "localhost", Port: 5432, User: "rir", Database: "rir"}
	}
	validSeed := func() RegistrySeed {
		return RegistrySeed{
			Name:        "arin",
			RIR:         "ARIN",
			OrgHandle:   "EXAMPLE-ARIN",
			Credentials: []CredentialSeed{{UserID: 1, APIKeyFile: "/key"}},
		}
	}

	tests := []struct {
		name    string
		config  func() *Config
		wantErr string
	}{
		{
			name:   "defaults",
			config: func() *Config { return &Config{} },
		},
		{
			name: "valid_everything",
			config: func() *Config {
				return &Config{
					Database:   validDB(),
					Queue:      QueueConfig{Type: QueueTypeRedis, RedisURL: "redis://localhost:6379"},
					Sync:       SyncConfig{Schedule: "@hourly", ChildDiscovery: ChildDiscoveryInline},
					Registries: []RegistrySeed{validSeed()},
				}
			},
		},
		{
			name:    "bad_server_timeout",
			config:  func() *Config { return &Config{Server: ServerConfig{ReadTimeout: "soon"}} },
			wantErr: "server: readTimeout must be a valid duration",
		},
		{
			name: "database_missing_host",
			config: func() *Config {
				db := validDB()
				db.Host = ""
				return &Config{Database: db}
			},
			wantErr: "database: host is required",
		},
		{
			name: "database_bad_port",
			config: func() *Config {
				db := validDB()
				db.Port = 70000
				return &Config{Database: db}
			},
			wantErr: "database: port must be between 1 and 65535",
		},
		{
			name: "database_bad_lifetime",
			config: func() *Config {
				db := validDB()
				db.ConnMaxLifetime = "forever"
				return &Config{Database: db}
			},
			wantErr: "database: connMaxLifetime must be a valid duration",
		},
		{
			name:    "redis_without_url",
			config:  func() *Config { return &Config{Queue: QueueConfig{Type: QueueTypeRedis}} },
			wantErr: "queue: redisURL is required when type is redis",
		},
		{
			name:    "bad_schedule",
			config:  func() *Config { return &Config{Sync: SyncConfig{Schedule: "every night"}} },
			wantErr: "sync: schedule must be a cron expression or descriptor",
		},
		{
			name:    "bad_child_discovery",
			config:  func() *Config { return &Config{Sync: SyncConfig{ChildDiscovery: "parallel"}} },
			wantErr: "sync: childDiscovery must be either inline or queued, got parallel",
		},
		{
			name:    "unknown_scope",
			config:  func() *Config { return &Config{Sync: SyncConfig{Scopes: []string{"networks", "tickets"}}} },
			wantErr: `sync: scopes[1]: unknown scope "tickets"`,
		},
		{
			name:    "negative_rate_limit",
			config:  func() *Config { return &Config{Registry: RegistryConfig{RateLimit: -1}} },
			wantErr: "registry: rateLimit must not be negative",
		},
		{
			name:    "geocoder_without_user_agent",
			config:  func() *Config { return &Config{Geocoder: &GeocoderConfig{URL: "http://localhost"}} },
			wantErr: "geocoder: userAgent is required",
		},
		{
			name:    "unknown_auth_mode",
			config:  func() *Config { return &Config{Auth: &AuthConfig{Mode: "oauth"}} },
			wantErr: "auth: mode must be either header or jwt, got oauth",
		},
		{
			name: "relative_public_path",
			config: func() *Config {
				return &Config{Auth: &AuthConfig{Mode: AuthModeJWT, PublicPaths: []string{"/docs", "status"}}}
			},
			wantErr: "auth: publicPaths[1] must start with /",
		},
		{
			name: "tracing_sampling_out_of_range",
			config: func() *Config {
				return &Config{Telemetry: &telemetry.Config{
					Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: 1.5},
				}}
			},
			wantErr: "telemetry: tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name: "registry_without_name",
			config: func() *Config {
				seed := validSeed()
				seed.Name = ""
				return &Config{Registries: []RegistrySeed{seed}}
			},
			wantErr: "registries[0]: name is required",
		},
		{
			name: "duplicate_registry",
			config: func() *Config {
				return &Config{Registries: []RegistrySeed{validSeed(), validSeed()}}
			},
			wantErr: "registries[1]: duplicate registry name 'arin'",
		},
		{
			name: "registry_without_org",
			config: func() *Config {
				seed := validSeed()
				seed.OrgHandle = ""
				return &Config{Registries: []RegistrySeed{seed}}
			},
			wantErr: "registries[0] (arin): orgHandle is required",
		},
		{
			name: "registry_relative_url",
			config: func() *Config {
				seed := validSeed()
				seed.APIURL = "reg.arin.net"
				return &Config{Registries: []RegistrySeed{seed}}
			},
			wantErr: "registries[0] (arin): apiURL must be an absolute URL",
		},
		{
			name: "duplicate_credential_user",
			config: func() *Config {
				seed := validSeed()
				seed.Credentials = append(seed.Credentials, CredentialSeed{UserID: 1, APIKeyFile: "/other"})
				return &Config{Registries: []RegistrySeed{seed}}
			},
			wantErr: "registries[0] (arin): credentials[1]: duplicate credential for user 1",
		},
		{
			name: "credential_without_key_file",
			config: func() *Config {
				seed := validSeed()
				seed.Credentials[0].APIKeyFile = ""
				return &Config{Registries: []RegistrySeed{seed}}
			},
			wantErr: "registries[0] (arin): credentials[0]: apiKeyFile is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config().Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	assert.Equal(t, ":8080", cfg.Server.GetAddress())
	assert.Equal(t, 15*time.Second, cfg.Server.GetReadTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Server.GetWriteTimeout())
	assert.Equal(t, QueueTypeMemory, cfg.Queue.GetType())
	assert.Equal(t, 1024, cfg.Queue.GetSize())
	assert.Equal(t, 2, cfg.Worker.GetConcurrency())
	assert.Equal(t, "@daily", cfg.Sync.GetSchedule())
	assert.False(t, cfg.Sync.QueuedChildDiscovery())
	assert.True(t, cfg.Sync.AutoLinkEnabled())
	assert.Equal(t, 30*time.Second, cfg.Registry.GetTimeout())

	geo := &GeocoderConfig{URL: "http://nominatim.local/"}
	assert.Equal(t, "http://nominatim.local", geo.GetURL())
	assert.Equal(t, float64(1), geo.GetRateLimit())

	disabled := false
	cfg.Sync.AutoLink = &disabled
	assert.False(t, cfg.Sync.AutoLinkEnabled())
}

func TestDatabaseConfigGetPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		noFile       bool
		wantPassword string
		errMsg       string
	}{
		{
			name:         "password_from_file",
			content:      "mypassword",
			wantPassword: "mypassword",
		},
		{
			name:         "password_from_file_with_whitespace",
			content:      "  mypassword\n\t",
			wantPassword: "mypassword",
		},
		{
			name:   "password_file_not_found",
			noFile: true,
			errMsg: "failed to read database password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := &DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Database: "testdb"}
			if tt.noFile {
				db.PasswordFile = "/nonexistent/password.txt"
			} else {
				db.PasswordFile = writeFile(t, "password.txt", tt.content)
			}

			password, err := db.GetPassword()
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassword, password)
		})
	}
}

func TestDatabaseConfigGetPasswordFromEnv(t *testing.T) {
	t.Setenv(DatabasePasswordEnv, "envpassword")

	db := &DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Database: "testdb"}
	password, err := db.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "envpassword", password)

	t.Setenv(DatabasePasswordEnv, "")
	_, err = db.GetPassword()
	require.Error(t, err)
	assert.Contains(t, err.Error(), DatabasePasswordEnv)
}

func TestDatabaseConfigGetConnectionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		sslMode  string
		want     string
	}{
		{
			name:     "default_ssl_mode",
			password: "secret",
			want:     "postgres://rir:secret@db:5432/rir_manager?sslmode=require",
		},
		{
			name:     "special_characters_are_escaped",
			password: "p@ss:w/rd",
			sslMode:  "disable",
			want:     "postgres://rir:p%40ss%3Aw%2Frd@db:5432/rir_manager?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := &DatabaseConfig{
				Host:         "db",
				Port:         5432,
				User:         "rir",
				Database:     "rir_manager",
				SSLMode:      tt.sslMode,
				PasswordFile: writeFile(t, "password", tt.password),
			}
			got, err := db.GetConnectionString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecretsAndCredentialKeys(t *testing.T) {
	t.Setenv(SecretKeyEnv, "from-env")

	key, err := (*SecretsConfig)(nil).GetKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	secrets := &SecretsConfig{KeyFile: writeFile(t, "key", "deadbeef\n")}
	key, err = secrets.GetKey()
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", key)

	cred := &CredentialSeed{UserID: 1, APIKeyFile: writeFile(t, "api-key", "API-KEY-1234\n")}
	apiKey, err := cred.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "API-KEY-1234", apiKey)
}

func TestAuthConfig(t *testing.T) {
	assert.Equal(t, AuthModeHeader, (*AuthConfig)(nil).GetMode())
	assert.Equal(t, AuthModeJWT, (&AuthConfig{Mode: AuthModeJWT}).GetMode())

	t.Setenv(AuthSecretEnv, "")
	_, err := (&AuthConfig{}).GetSecret()
	require.ErrorContains(t, err, AuthSecretEnv)

	t.Setenv(AuthSecretEnv, "env-secret")
	secret, err := (&AuthConfig{}).GetSecret()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", secret)

	secret, err = (&AuthConfig{SecretFile: writeFile(t, "jwt", "file-secret\n")}).GetSecret()
	require.NoError(t, err)
	assert.Equal(t, "file-secret", secret)

	_, err = (&AuthConfig{SecretFile: "/nonexistent/jwt"}).GetSecret()
	require.ErrorContains(t, err, "failed to read auth secret")
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("symlink_is_resolved", func(t *testing.T) {
		t.Parallel()
		target := writeFile(t, "config.yaml", "{}")
		link := filepath.Join(t.TempDir(), "link.yaml")
		require.NoError(t, os.Symlink(target, link))

		var lc loaderConfig
		require.NoError(t, WithConfigPath(link)(&lc))
		resolved, err := filepath.EvalSymlinks(target)
		require.NoError(t, err)
		assert.Equal(t, resolved, lc.path)
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		var lc loaderConfig
		err := WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))(&lc)
		assert.ErrorContains(t, err, "failed to evaluate symlinks")
	})
}
