package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"temp_regulator/internal/settings"
)

// SettingsSQLite keeps the persistent settings record in the config_blob row.
type SettingsSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db, now: time.Now}
}

var _ settings.Store = (*SettingsSQLite)(nil)

const (
	configBlobRowID = 1

	upsertBlobSQL = `
		INSERT INTO config_blob (id, version, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version=excluded.version,
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectBlobSQL = `SELECT body FROM config_blob WHERE id=?`

	deleteBlobSQL = `DELETE FROM config_blob WHERE id=?`
)

// Save overwrites the row with the encoded record.
func (r *SettingsSQLite) Save(ctx context.Context, s settings.Settings) error {
	_, err := r.db.ExecContext(ctx, upsertBlobSQL,
		configBlobRowID,
		settings.Version,
		settings.Marshal(s),
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Load decodes the row. A missing row is settings.ErrNotFound; a row written
// by another layout version comes back as defaults with ErrVersionMismatch.
func (r *SettingsSQLite) Load(ctx context.Context) (settings.Settings, error) {
	var body string
	err := r.db.QueryRowContext(ctx, selectBlobSQL, configBlobRowID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settings.Defaults(), settings.ErrNotFound
		}
		return settings.Defaults(), fmt.Errorf("load settings: %w", err)
	}
	return settings.Unmarshal(body)
}

func (r *SettingsSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteBlobSQL, configBlobRowID); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}
