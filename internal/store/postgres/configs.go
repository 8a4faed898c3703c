package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ipam-rir/rir-manager/internal/models"
	"github.com/ipam-rir/rir-manager/internal/store"
)

const configColumns = `id, rir, name, api_url, org_handle, is_active, last_sync`

func scanConfig(row scanner) (*models.RegistryConfig, error) {
	var (
		cfg      models.RegistryConfig
		lastSync sql.NullTime
	)
	if err := row.Scan(&cfg.ID, &cfg.RIR, &cfg.Name, &cfg.APIURL, &cfg.OrgHandle, &cfg.IsActive, &lastSync); err != nil {
		return nil, err
	}
	cfg.LastSync = timePtr(lastSync)
	return &cfg, nil
}

// CreateConfig implements store.Store
func (s *Store) CreateConfig(ctx context.Context, cfg *models.RegistryConfig) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO registry_configs (rir, name, api_url, org_handle, is_active, last_sync)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		cfg.RIR, cfg.Name, cfg.APIURL, cfg.OrgHandle, cfg.IsActive, nullTime(cfg.LastSync),
	).Scan(&cfg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create registry config: %w", err)
	}
	return nil
}

// GetConfig implements store.Store
func (s *Store) GetConfig(ctx context.Context, id int64) (*models.RegistryConfig, error) {
	cfg, err := scanConfig(s.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM registry_configs WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return cfg, nil
}

// ListActiveConfigs implements store.Store
func (s *Store) ListActiveConfigs(ctx context.Context) ([]models.RegistryConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM registry_configs WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry configs: %w", err)
	}
	defer rows.Close()

	var out []models.RegistryConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registry config: %w", err)
		}
		out = append(out, *cfg)
	}
	return out, rows.Err()
}

// TouchLastSync implements store.Store
func (s *Store) TouchLastSync(ctx context.Context, configID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE registry_configs SET last_sync = $2 WHERE id = $1`, configID, at)
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	return expectAffected(res)
}

const credentialColumns = `id, user_id, config_id, api_key, created_at`

func (s *Store) scanCredential(row scanner) (*models.UserCredential, error) {
	var cred models.UserCredential
	if err := row.Scan(&cred.ID, &cred.UserID, &cred.ConfigID, &cred.APIKey, &cred.CreatedAt); err != nil {
		return nil, err
	}
	if s.cipher != nil {
		key, err := s.cipher.Decrypt(cred.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credential %d: %w", cred.ID, err)
		}
		cred.APIKey = key
	}
	return &cred, nil
}

// CreateCredential implements store.Store
func (s *Store) CreateCredential(ctx context.Context, cred *models.UserCredential) error {
	key := cred.APIKey
	if s.cipher != nil {
		sealed, err := s.cipher.Encrypt(key)
		if err != nil {
			return fmt.Errorf("failed to encrypt credential: %w", err)
		}
		key = sealed
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_credentials (user_id, config_id, api_key)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		cred.UserID, cred.ConfigID, key,
	).Scan(&cred.ID, &cred.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// GetCredential implements store.Store
func (s *Store) GetCredential(ctx context.Context, id int64) (*models.UserCredential, error) {
	cred, err := s.scanCredential(s.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM user_credentials WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return cred, nil
}

// FindCredential implements store.Store
func (s *Store) FindCredential(ctx context.Context, userID, configID int64) (*models.UserCredential, error) {
	cred, err := s.scanCredential(s.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM user_credentials WHERE user_id = $1 AND config_id = $2`,
		userID, configID))
	if err != nil {
		return nil, notFound(err)
	}
	return cred, nil
}

// ListCredentials implements store.Store
func (s *Store) ListCredentials(ctx context.Context, configID int64) ([]models.UserCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM user_credentials WHERE config_id = $1 ORDER BY id`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var out []models.UserCredential
	for rows.Next() {
		cred, err := s.scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cred)
	}
	return out, rows.Err()
}

// ListSyncedBy implements store.Store
func (s *Store) ListSyncedBy(ctx context.Context, configID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT synced_by FROM organizations WHERE config_id = $1 AND synced_by IS NOT NULL
		UNION
		SELECT synced_by FROM contacts WHERE config_id = $1 AND synced_by IS NOT NULL
		UNION
		SELECT synced_by FROM networks WHERE config_id = $1 AND synced_by IS NOT NULL
		ORDER BY 1`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list syncing credentials: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
