package repository

import (
	"context"
	"database/sql"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/settings"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*tr.Operator, error)
}

type EventRepo interface {
	Append(ctx context.Context, e tr.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]tr.DeviceEvent, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	Settings  settings.Store
	Profiles  profile.Store
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings:  NewSettingsSQLite(db),
		Profiles:  NewProfileSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewOperatorRepository(db),
	}
}
