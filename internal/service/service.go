package service

import (
	"context"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/config"
	"temp_regulator/internal/device"
	"temp_regulator/internal/logger"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control turns remote requests into regulator commands.
type Control interface {
	Dispatch(ctx context.Context, event string) error
	Coefficient(ctx context.Context, p CoefficientParams) error
	Setpoint(ctx context.Context, p SetpointParams) error
	SelectProfile(ctx context.Context, slot int) error
	StoreProfile(ctx context.Context, p profile.Profile) error
	Heat(ctx context.Context, on bool) error
	AckAlarm(ctx context.Context) error
	Calibration(ctx context.Context, p WizardParams) error
	Autotune(ctx context.Context, p WizardParams) error
	Touch(ctx context.Context, action string) error
	Wipe(ctx context.Context) error
}

// Monitoring exposes read-only telemetry.
type Monitoring interface {
	GetState(ctx context.Context) (tr.Telemetry, error)
	Profiles(ctx context.Context) ([]profile.Profile, error)
}

// EventLog exposes the device event history.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]tr.DeviceEvent, error)
	Prune(ctx context.Context, keep time.Duration) (int64, error)
}

// Runner drives the regulator main loop. Stop it by cancelling ctx.
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// Device is the regulator as seen by the services.
type Device interface {
	Submit(ctx context.Context, c device.Command) error
	Snapshot() tr.Telemetry
	Tick(ctx context.Context, now time.Time)
	Halt(now time.Time)
}

type Service struct {
	Control
	Monitoring
	EventLog
	Runner
	Authorization
}

func NewService(repos *repository.Repository, dev Device, auth config.AuthConfig, log *logger.Logger) *Service {
	return &Service{
		Control:       NewControlService(dev),
		Monitoring:    NewMonitoringService(dev, repos.Profiles),
		EventLog:      NewEventLogService(repos.EventRepo),
		Runner:        NewRunnerService(dev, log),
		Authorization: NewAuthService(repos.Auth, auth.SigningKey, auth.TokenTTL),
	}
}
