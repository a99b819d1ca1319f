package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	tr "temp_regulator"
	"temp_regulator/internal/profile"
)

type ProfileSQLite struct {
	db *sql.DB
}

func NewProfileSQLite(db *sql.DB) *ProfileSQLite { return &ProfileSQLite{db: db} }

var _ profile.Store = (*ProfileSQLite)(nil)

const (
	upsertProfileSQL = `
		INSERT INTO profiles (slot, name, visible, kp, ki, kd, tc_slope, tc_offset, steps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			name=excluded.name,
			visible=excluded.visible,
			kp=excluded.kp,
			ki=excluded.ki,
			kd=excluded.kd,
			tc_slope=excluded.tc_slope,
			tc_offset=excluded.tc_offset,
			steps=excluded.steps
	`

	selectProfilesSQL = `
		SELECT slot, name, visible, kp, ki, kd, tc_slope, tc_offset, steps
		FROM profiles ORDER BY slot ASC
	`

	deleteProfileSQL = `DELETE FROM profiles WHERE slot=?`
)

// Save writes p into its slot; steps are stored as a JSON array.
func (r *ProfileSQLite) Save(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	steps := p.Steps
	if steps == nil {
		steps = []profile.Step{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal steps of slot %d: %w", p.Slot, err)
	}
	_, err = r.db.ExecContext(ctx, upsertProfileSQL,
		p.Slot, p.Name, p.Visible,
		p.PID.Kp, p.PID.Ki, p.PID.Kd,
		p.Thermocouple.Slope, p.Thermocouple.Offset,
		string(b),
	)
	if err != nil {
		return fmt.Errorf("save profile %d: %w", p.Slot, err)
	}
	return nil
}

// List returns stored slots in ascending order. Empty slots are absent.
func (r *ProfileSQLite) List(ctx context.Context) ([]profile.Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfilesSQL)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]profile.Profile, 0, profile.Slots)
	for rows.Next() {
		var (
			p     profile.Profile
			pid   tr.PIDCoefficients
			steps string
		)
		if err := rows.Scan(&p.Slot, &p.Name, &p.Visible, &pid.Kp, &pid.Ki, &pid.Kd,
			&p.Thermocouple.Slope, &p.Thermocouple.Offset, &steps); err != nil {
			return nil, err
		}
		p.PID = pid
		if err := json.Unmarshal([]byte(steps), &p.Steps); err != nil {
			return nil, fmt.Errorf("decode steps of slot %d: %w", p.Slot, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProfileSQLite) Clear(ctx context.Context, slot int) error {
	if slot < 1 || slot > profile.Slots {
		return fmt.Errorf("%w: %d", profile.ErrBadSlot, slot)
	}
	if _, err := r.db.ExecContext(ctx, deleteProfileSQL, slot); err != nil {
		return fmt.Errorf("clear profile %d: %w", slot, err)
	}
	return nil
}
