package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "temp_regulator/docs"
	"temp_regulator/internal/config"
	"temp_regulator/internal/device"
	"temp_regulator/internal/encoder"
	"temp_regulator/internal/hal"
	"temp_regulator/internal/handlers"
	"temp_regulator/internal/logger"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/repository"
	"temp_regulator/internal/repository/db"
	"temp_regulator/internal/server"
	"temp_regulator/internal/service"
	"temp_regulator/internal/settings"
)

const shutdownTimeout = 10 * time.Second

// @title           Temperature regulator API
// @version         1.0
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("config_load_failed", "err", err)
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("sqlite_init_failed", "err", err, "path", cfg.DBPath)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("sqlite_close_failed", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	if cfg.Store.Driver == config.StoreFile {
		repos.Settings = settings.NewFileStore(cfg.Store.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedProfiles(ctx, cfg.ProfilesSeed, repos.Profiles, log)

	hw, err := openHardware(cfg.Hardware, log)
	if err != nil {
		log.Fatalw("hardware_open_failed", "err", err, "driver", cfg.Hardware.Driver)
	}
	defer func() {
		if cerr := hw.Close(); cerr != nil {
			log.Errorw("hardware_close_failed", "err", cerr)
		}
	}()

	knob := encoder.New()
	hw.Attach(knob)

	reg := device.New(hw, device.Options{
		Tick:     cfg.ControlTick,
		Settings: repos.Settings,
		Profiles: repos.Profiles,
		Events:   repos.EventRepo,
		Knob:     knob,
		Log:      log,
	})
	reg.Boot(ctx, time.Now())

	services := service.NewService(repos, reg, cfg.Auth, log)
	pruneEvents(ctx, services, cfg.EventRetention, log)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Runner.Run(ctx, cfg.ControlTick)
	}()

	srv := &server.Server{}
	apiHandler := handlers.NewHandler(services, log)
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("server_start_failed", "err", err)
		}
	}()
	log.Infow("regulator_started", "port", cfg.Port, "hardware", cfg.Hardware.Driver, "store", cfg.Store.Driver)

	waitForShutdown(cancel, srv, log)
	<-loopDone
}

type hardware interface {
	device.Hardware
	Attach(sink hal.EncoderSink)
	Close() error
}

func openHardware(cfg config.HardwareConfig, log *logger.Logger) (hardware, error) {
	if cfg.Driver == config.DriverSerial {
		return hal.OpenSerial(cfg.Port, cfg.Baud, log)
	}
	log.Infow("hardware_simulated")
	return hal.NewSim(), nil
}

// seedProfiles loads the YAML seed into slots that have never been stored.
func seedProfiles(ctx context.Context, path string, store profile.Store, log *logger.Logger) {
	if path == "" {
		return
	}
	seed, err := profile.LoadSeed(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infow("profile_seed_missing", "path", path)
			return
		}
		log.Errorw("profile_seed_failed", "err", err, "path", path)
		return
	}
	stored, err := store.List(ctx)
	if err != nil {
		log.Errorw("profile_list_failed", "err", err)
		return
	}
	taken := make(map[int]bool, len(stored))
	for _, p := range stored {
		taken[p.Slot] = true
	}
	for _, p := range seed {
		if taken[p.Slot] {
			continue
		}
		if err := store.Save(ctx, p); err != nil {
			log.Errorw("profile_seed_save_failed", "err", err, "slot", p.Slot)
		}
	}
}

func pruneEvents(ctx context.Context, services *service.Service, keep time.Duration, log *logger.Logger) {
	if keep <= 0 {
		return
	}
	n, err := services.EventLog.Prune(ctx, keep)
	if err != nil {
		log.Errorw("event_prune_failed", "err", err)
		return
	}
	if n > 0 {
		log.Infow("events_pruned", "count", n, "keep", keep.String())
	}
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutdown_started")

	// stops the control loop, which opens the relay
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server_shutdown_forced", "err", err)
	}
}
