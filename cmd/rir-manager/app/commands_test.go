package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipam-rir/rir-manager/internal/versions"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	t.Parallel()
	cmd := NewRootCmd()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "sync", "version", "migrate", "config"})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versions.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	tests := []struct {
		name       string
		constraint string
		wantErr    bool
	}{
		{name: "development builds satisfy any constraint", constraint: ">= 1.0.0"},
		{name: "invalid constraint", constraint: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, "version", "--require", tt.constraint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSyncCommand(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "sync:\n  schedule: \"@hourly\"\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no configs to sync", args: []string{"sync", "--config", path}},
		{
			name:    "unknown config",
			args:    []string{"sync", "--config", path, "--config-id", "42", "--user-id", "1"},
			wantErr: "failed to load registry config 42",
		},
		{
			name:    "config id without user",
			args:    []string{"sync", "--config", path, "--config-id", "42"},
			wantErr: "user-id",
		},
		{
			name:    "bad scope",
			args:    []string{"sync", "--config", path, "--scopes", "tickets"},
			wantErr: "unknown sync scope",
		},
		{name: "missing config flag", args: []string{"sync"}, wantErr: "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, tt.args...)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "sync:\n  disabled: true\n")

	_, err := execute(t, "migrate", "up", "--config", path, "--yes")
	require.ErrorContains(t, err, "database configuration is required")

	_, err = execute(t, "migrate", "down", "--config", path, "--yes", "--num-steps", "1")
	require.ErrorContains(t, err, "database configuration is required")
}

func TestConfirm(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "y", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "Continue?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Continue? (yes/no): ", out.String())
	}
}

func TestConfigValidateCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantOut []string
		wantErr string
	}{
		{
			name: "memory config",
			content: `sync:
  schedule: "@hourly"
registries:
  - name: arin-prod
    rir: ARIN
    orgHandle: EXMPL
`,
			wantOut: []string{"Valid configuration", "Storage: memory", "Queue: memory", "Auth: header", "Sync: @hourly", "Registry: arin-prod (ARIN, EXMPL, 0 credentials)"},
		},
		{
			name: "postgres with jwt",
			content: `database:
  host: db
  port: 5432
  user: rir
  database: rir
sync:
  disabled: true
auth:
  mode: jwt
`,
			wantOut: []string{"Storage: postgres (db:5432/rir)", "Auth: jwt", "Sync: disabled"},
		},
		{
			name:    "unknown auth mode",
			content: "auth:\n  mode: oauth\n",
			wantErr: "auth",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, "config", "validate", "--config", writeConfig(t, tt.content))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}
