package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store/memory"
)

func writeKey(t *testing.T, key string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api-key")
	require.NoError(t, os.WriteFile(path, []byte(key+"\n"), 0o600))
	return path
}

func TestSeedRegistries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()

	cfg := &config.Config{Registries: []config.RegistrySeed{
		{
			Name:      "arin-prod",
			RIR:       "ARIN",
			APIURL:    "https://reg.arin.net",
			OrgHandle: "EXMPL",
			Credentials: []config.CredentialSeed{
				{UserID: 1, APIKeyFile: writeKey(t, "key-one")},
				{UserID: 2, APIKeyFile: writeKey(t, "key-two")},
			},
		},
		{
			Name:        "arin-ote",
			RIR:         "ARIN",
			OrgHandle:   "EXMPL",
			Inactive:    true,
			Credentials: []config.CredentialSeed{{UserID: 1, APIKeyFile: writeKey(t, "ote")}},
		},
	}}

	require.NoError(t, SeedRegistries(ctx, cfg, st))

	active, err := st.ListActiveConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	prod := active[0]
	assert.Equal(t, "arin-prod", prod.Name)
	assert.Equal(t, "https://reg.arin.net", prod.APIURL)

	creds, err := st.ListCredentials(ctx, prod.ID)
	require.NoError(t, err)
	require.Len(t, creds, 2)

	cred, err := st.FindCredential(ctx, 2, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "key-two", cred.APIKey)

	// A second run adds the new credential and leaves existing ones alone.
	cfg.Registries[0].Credentials = append(cfg.Registries[0].Credentials,
		config.CredentialSeed{UserID: 3, APIKeyFile: writeKey(t, "key-three")})
	cfg.Registries[0].Credentials[0].APIKeyFile = writeKey(t, "rotated")
	require.NoError(t, SeedRegistries(ctx, cfg, st))

	creds, err = st.ListCredentials(ctx, prod.ID)
	require.NoError(t, err)
	assert.Len(t, creds, 3)
	cred, err = st.FindCredential(ctx, 1, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "key-one", cred.APIKey)
}

func TestSeedRegistries_Errors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Registries: []config.RegistrySeed{{
		Name:        "arin",
		RIR:         "ARIN",
		OrgHandle:   "EXMPL",
		Credentials: []config.CredentialSeed{{UserID: 1, APIKeyFile: "/nonexistent/key"}},
	}}}
	err := SeedRegistries(context.Background(), cfg, memory.New())
	require.ErrorContains(t, err, "failed to read API key for user 1")
}

func TestSeedRegistries_Empty(t *testing.T) {
	t.Parallel()
	require.NoError(t, SeedRegistries(context.Background(), &config.Config{}, memory.New()))
}

func TestFindConfig(t *testing.T) {
	t.Parallel()
	configs := []models.RegistryConfig{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	require.NotNil(t, findConfig(configs, "b"))
	assert.Equal(t, int64(2), findConfig(configs, "b").ID)
	assert.Nil(t, findConfig(configs, "c"))
}
