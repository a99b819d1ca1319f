package service

import (
	"context"
	"fmt"

	tr "temp_regulator"
	"temp_regulator/internal/profile"
)

type MonitoringService struct {
	dev      Device
	profiles profile.Store
}

func NewMonitoringService(dev Device, profiles profile.Store) *MonitoringService {
	return &MonitoringService{dev: dev, profiles: profiles}
}

// GetState returns the telemetry published by the last tick.
func (s *MonitoringService) GetState(ctx context.Context) (tr.Telemetry, error) {
	if err := ctx.Err(); err != nil {
		return tr.Telemetry{}, err
	}
	st := s.dev.Snapshot()
	if !st.UpdatedAt.IsZero() {
		st.UpdatedAt = st.UpdatedAt.UTC()
	}
	return st, nil
}

// Profiles lists all ten slots; slots never stored come back empty.
func (s *MonitoringService) Profiles(ctx context.Context) ([]profile.Profile, error) {
	if s.profiles == nil {
		return profile.NewBook(profile.Defaults()).All(), nil
	}
	ps, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profile.NewBook(ps).All(), nil
}
