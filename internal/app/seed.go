package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ipam-rir/rir-manager/internal/config"
	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// SeedRegistries creates the registry configs and credentials listed in the
// configuration. Records that already exist are left untouched.
func SeedRegistries(ctx context.Context, cfg *config.Config, st store.Store) error {
	if len(cfg.Registries) == 0 {
		return nil
	}

	var existing []models.RegistryConfig
	for _, seed := range cfg.Registries {
		rc := &models.RegistryConfig{
			RIR:       seed.RIR,
			Name:      seed.Name,
			APIURL:    seed.APIURL,
			OrgHandle: seed.OrgHandle,
			IsActive:  !seed.Inactive,
		}

		err := st.CreateConfig(ctx, rc)
		switch {
		case err == nil:
			slog.Info("Registry config created", "name", rc.Name, "rir", rc.RIR, "id", rc.ID)
		case errors.Is(err, store.ErrConflict):
			if existing == nil {
				existing, err = st.ListActiveConfigs(ctx)
				if err != nil {
					return fmt.Errorf("failed to list registry configs: %w", err)
				}
			}
			found := findConfig(existing, seed.Name)
			if found == nil {
				slog.Info("Registry config exists and is inactive, skipping credentials", "name", seed.Name)
				continue
			}
			slog.Debug("Registry config already exists", "name", seed.Name, "id", found.ID)
			rc = found
		default:
			return fmt.Errorf("failed to create registry config %s: %w", seed.Name, err)
		}

		if err := seedCredentials(ctx, st, rc, seed.Credentials); err != nil {
			return err
		}
	}
	return nil
}

func seedCredentials(ctx context.Context, st store.Store, rc *models.RegistryConfig, seeds []config.CredentialSeed) error {
	for _, seed := range seeds {
		key, err := seed.GetAPIKey()
		if err != nil {
			return fmt.Errorf("failed to read API key for user %d on %s: %w", seed.UserID, rc.Name, err)
		}
		cred := &models.UserCredential{UserID: seed.UserID, ConfigID: rc.ID, APIKey: key}
		err = st.CreateCredential(ctx, cred)
		switch {
		case err == nil:
			slog.Info("Credential created", "config", rc.Name, "user_id", seed.UserID)
		case errors.Is(err, store.ErrConflict):
			slog.Debug("Credential already exists", "config", rc.Name, "user_id", seed.UserID)
		default:
			return fmt.Errorf("failed to create credential for user %d on %s: %w", seed.UserID, rc.Name, err)
		}
	}
	return nil
}

func findConfig(configs []models.RegistryConfig, name string) *models.RegistryConfig {
	for i := range configs {
		if configs[i].Name == name {
			return &configs[i]
		}
	}
	return nil
}
