package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"content-mover/internal/config"
	"content-mover/internal/dependency"
	"content-mover/internal/idctx"
	"content-mover/internal/idtypes"
	"content-mover/internal/logger"
	"content-mover/internal/model"
	"content-mover/internal/store"
)

// app holds what every command needs: configuration and logging.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	log      *zap.Logger
	messages *idctx.Messages
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader(nil).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		if _, err := logger.ParseLevel(a.logLevel); err != nil {
			return err
		}

		cfg.Log.Level = a.logLevel
	}

	a.cfg = cfg
	a.log = logger.New(cfg.Log.Level, logger.Format(cfg.Log.Format), cmd.ErrOrStderr())

	a.messages, err = cfg.Messages()
	if err != nil {
		return err
	}

	logger.For(a.log, logger.ComponentConfig).Debugw("configuration loaded",
		"lock", cfg.Lock.Backend,
		"locale", a.messages.Locale().String())

	return nil
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) sugar(component string) *zap.SugaredLogger {
	return logger.For(a.log, component)
}

func (a *app) engine() *idtypes.Engine {
	return idtypes.NewEngine(a.cfg.Tables(), a.messages, a.sugar(logger.ComponentDiscovery))
}

// resolver builds a dependency resolver over the store at dir.
func (a *app) resolver(src *store.DirStore, engine *idtypes.Engine) *dependency.Resolver {
	return dependency.NewResolver(
		dependency.NewRegistry(src, engine),
		dependency.DefaultConfig(),
		a.sugar(logger.ComponentResolver),
	)
}

func openStore(dir string) (*store.DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("open store: %s is not a directory", dir)
	}

	return store.NewDirStore(dir), nil
}

func parseIDs(args []string) ([]model.DependencyID, error) {
	ids := make([]model.DependencyID, 0, len(args))

	for _, arg := range args {
		id, err := model.ParseDependencyID(arg)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}
