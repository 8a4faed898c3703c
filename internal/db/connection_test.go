package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipam-rir/rir-manager/internal/config"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte(`it's\secret`), 0600))

	tests := []struct {
		name    string
		cfg     *config.DatabaseConfig
		want    string
		wantErr string
	}{
		{
			name:    "nil config",
			wantErr: "database configuration is required",
		},
		{
			name:    "missing host",
			cfg:     &config.DatabaseConfig{Port: 5432, User: "rir", Database: "rir"},
			wantErr: "database host is required",
		},
		{
			name:    "missing port",
			cfg:     &config.DatabaseConfig{Host: "db", User: "rir", Database: "rir"},
			wantErr: "database port is required",
		},
		{
			name: "password is quoted",
			cfg: &config.DatabaseConfig{
				Host: "db", Port: 5432, User: "rir", Database: "rir_manager",
				SSLMode: "disable", PasswordFile: passwordFile,
			},
			want: `host=db port=5432 user=rir password='it\'s\\secret' dbname=rir_manager sslmode=disable connect_timeout=10`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DSN(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNilConnection(t *testing.T) {
	t.Parallel()

	c := &Connection{}
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
