package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clickquest/clickquest/internal/api"
	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/health"
	"github.com/clickquest/clickquest/internal/infra/sqlite"
)

// Daemon is the clickquest runtime. It wires together all services.
type Daemon struct {
	Config Config
	Log    *zap.Logger
	Clock  domain.Clock
	DB     *sqlite.DB

	Locks        *engagement.PlayerLocks
	Achievements *engagement.AchievementService
	Recorder     *engagement.Recorder
	Challenges   *engagement.ChallengeService
	Sweeper      *engagement.Sweeper
	Health       *health.Checker
	Server       *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	return NewFromHome(clickquestHome())
}

// NewFromHome loads the config found in home and wires a Daemon from it.
func NewFromHome(home string) (*Daemon, error) {
	cfg, err := LoadConfigFrom(home)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, log)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, log *zap.Logger) (*Daemon, error) {
	if log == nil {
		log = zap.NewNop()
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("engagement settings: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	dbLog := log.Named("sqlite")
	db.SetRetryHook(func(err error, wait time.Duration) {
		dbLog.Debug("retrying busy transaction", zap.Duration("wait", wait), zap.Error(err))
	})

	d := &Daemon{
		Config: cfg,
		Log:    log,
		Clock:  domain.SystemClock{},
		DB:     db,
		Locks:  engagement.NewPlayerLocks(),
	}

	d.Achievements = engagement.NewAchievementService(db, log)
	d.Recorder = engagement.NewRecorder(db, d.Achievements, d.Locks, settings, log)
	d.Challenges = engagement.NewChallengeService(db, d.Achievements, d.Locks, settings, log)
	d.Sweeper = engagement.NewSweeper(db, d.Locks, settings, log)
	d.Health = health.NewChecker(db, cfg.Storage.Dir, log)

	srv := api.NewServer(d.Recorder, d.Challenges, d.Sweeper, d.Achievements, log)
	srv.SetHealth(d.Health)
	srv.SetClock(d.Clock)
	if len(cfg.API.CORSOrigins) > 0 {
		srv.SetCORSOrigins(cfg.API.CORSOrigins)
	}
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and background loops, and blocks until
// shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	go d.Health.Run(ctx)
	go d.Sweeper.Run(ctx, d.Config.Decay.SweepInterval, d.Clock)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.Log.Info("shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.Log.Warn("http shutdown", zap.Error(err))
		}
	}()

	d.Log.Info("clickquest serving",
		zap.String("addr", "http://"+addr),
		zap.String("data_dir", d.Config.Storage.Dir),
		zap.Duration("sweep_interval", d.Config.Decay.SweepInterval),
		zap.Bool("metrics", d.Config.Telemetry.Prometheus))

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		_ = d.Log.Sync()
	}
}
