package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	fastinginadapter "fastflow/internal/modules/fasting/adapter/in"
	fastingoutadapter "fastflow/internal/modules/fasting/adapter/out"
	fastingout "fastflow/internal/modules/fasting/port/out"
	fastingservice "fastflow/internal/modules/fasting/service"
	fastingusecase "fastflow/internal/modules/fasting/usecase"
	"fastflow/internal/platform/clock"
	"fastflow/internal/platform/config"
	"fastflow/internal/platform/id"
	"fastflow/internal/platform/logging"
	uiapp "fastflow/internal/ui/app"
)

const closeTimeout = 5 * time.Second

type App struct {
	FastingCLI fastinginadapter.CLIHandler
	Config     config.Config
	Logger     zerolog.Logger

	svc   *fastingservice.FastingService
	store fastingout.BlobStore
}

// New wires the application and hydrates the store. Logs go to logOut.
func New(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, logOut)

	store, err := openBlobStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	bootLog := logging.Component(logger, "bootstrap")
	bootLog.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("data_dir", cfg.DataDir).
		Msg("blob store opened")

	clk := clock.SystemClock{Location: cfg.Location()}
	svc := fastingservice.NewFastingService(
		clk,
		id.UUID{},
		fastingoutadapter.NewBlobRepository(store),
		logging.Component(logger, "fasting"),
	)
	uc := fastingusecase.NewInteractor(svc, clk, cfg.Stats.StreakMinHours)
	if err := uc.Init(ctx); err != nil {
		svc.Close()
		_ = store.Close()
		return nil, fmt.Errorf("hydrate store: %w", err)
	}

	return &App{
		FastingCLI: fastinginadapter.NewCLIHandler(uc),
		Config:     cfg,
		Logger:     logger,
		svc:        svc,
		store:      store,
	}, nil
}

func openBlobStore(cfg config.Config) (fastingout.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		return fastingoutadapter.NewBoltBlobStore(cfg.BoltPath())
	case config.BackendFile:
		return fastingoutadapter.NewFileBlobStore(cfg.SlotDir())
	case config.BackendSQLite:
		return fastingoutadapter.NewSQLiteBlobStore(cfg.SQLitePath())
	case config.BackendRedis:
		return fastingoutadapter.NewRedisBlobStore(fastingoutadapter.RedisOptions{
			Addr:      cfg.Storage.Redis.Addr,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		})
	case config.BackendMemory:
		return fastingoutadapter.NewMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// Close waits for pending writes, then releases the store.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.svc.Flush(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("pending writes not flushed")
	}
	a.svc.Close()
	if failures := a.svc.PersistFailures(); failures > 0 {
		a.Logger.Warn().Int64("failures", failures).Msg("some writes were not persisted")
	}
	return a.store.Close()
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.FastingCLI, app.Config.UI.RefreshInterval)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
