package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"content-mover/internal/config"
	"content-mover/internal/idctx"
	"content-mover/internal/idmap"
	"content-mover/internal/install"
	"content-mover/internal/lock"
	"content-mover/internal/logger"
	"content-mover/internal/pkgfile"
	"content-mover/internal/store"
	"content-mover/internal/transform"
)

func installCmd(a *app) *cobra.Command {
	var (
		targetDir   string
		idmapPath   string
		reserveNew  bool
		logPath     string
		metricsPath string
		parallelism int
		enabled     bool
		logging     bool
		tracing     bool
	)

	cmd := &cobra.Command{
		Use:   "install PACKAGE_DIR",
		Short: "Install a package into a target store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()

			if flags.Changed("reserve-new") {
				cfg.Install.ReserveNew = reserveNew
			}

			if logPath != "" {
				cfg.Install.TransactionLog = logPath
			}

			if metricsPath != "" {
				cfg.Install.MetricsFile = metricsPath
			}

			if parallelism > 0 {
				cfg.Install.Parallelism = parallelism
			}

			var overrides install.Overrides
			if flags.Changed("enabled") {
				overrides.Enabled = &enabled
			}

			if flags.Changed("logging") {
				overrides.Logging = &logging
			}

			if flags.Changed("tracing") {
				overrides.Tracing = &tracing
			}

			p, err := pkgfile.Load(args[0], idctx.NewRegistry())
			if err != nil {
				return err
			}

			m, err := idmap.LoadFile(idmapPath)

			switch {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist) && cfg.Install.ReserveNew:
				m = idmap.New(p.Manifest.Source, "")
			default:
				return err
			}

			locker, closeLocker, err := newLocker(cfg.Lock)
			if err != nil {
				return err
			}
			defer closeLocker()

			target := store.NewDirStore(targetDir)
			registry := prometheus.NewRegistry()

			opts := install.Options{
				Locker: locker,
				Transform: transform.NewEngine(transform.Options{
					ReserveNew: cfg.Install.ReserveNew,
					Allocator:  idmap.NewSequenceAllocator(target.MaxIDs()),
				}, a.messages, a.sugar(logger.ComponentTransform)),
				Metrics:     install.NewMetrics(registry),
				Log:         a.sugar(logger.ComponentInstall),
				Parallelism: cfg.Install.Parallelism,
			}

			if cfg.Install.TransactionLog != "" {
				lw, err := install.OpenLog(cfg.Install.TransactionLog)
				if err != nil {
					return err
				}
				defer lw.Close()

				opts.LogWriter = lw
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			known, reserved := m.Len(), len(m.Reserved())

			ictx := install.NewImportContext(m, overrides)
			batch := install.NewInstaller(target, opts).InstallLevels(ctx, p.Levels(), ictx)

			out := cmd.OutOrStdout()
			for _, id := range batch.Committed {
				if t := batch.Targets[id]; t != id {
					fmt.Fprintf(out, "committed %s as %s\n", id, t)

					continue
				}

				fmt.Fprintf(out, "committed %s\n", id)
			}

			for _, f := range batch.Aborted {
				fmt.Fprintf(out, "aborted   %s: %v\n", f.Object, f.Err)
			}

			if m.Len() > known {
				if err := idmap.WriteFile(m, idmapPath); err != nil {
					return err
				}

				fmt.Fprintf(out, "recorded %d id(s), %d reserved, in %s\n", m.Len()-known, len(m.Reserved())-reserved, idmapPath)
			}

			if cfg.Install.MetricsFile != "" {
				if err := prometheus.WriteToTextfile(cfg.Install.MetricsFile, registry); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}

			return batch.Err()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&targetDir, "target", "t", "", "Target store directory")
	flags.StringVarP(&idmapPath, "idmap", "m", "idmap.yaml", "Id map file")
	flags.BoolVar(&reserveNew, "reserve-new", false, "Mint target ids for unmapped source ids")
	flags.StringVar(&logPath, "log", "", "Transaction log file (JSON lines)")
	flags.StringVar(&metricsPath, "metrics", "", "Write install metrics to this file")
	flags.IntVar(&parallelism, "parallelism", 0, "Concurrent installs per dependency level")
	flags.BoolVar(&enabled, "enabled", false, "Override the enabled flag of installed objects")
	flags.BoolVar(&logging, "logging", false, "Override the logging flag of installed objects")
	flags.BoolVar(&tracing, "tracing", false, "Override the tracing flag of installed objects")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newLocker(cfg config.LockConfig) (lock.Locker, func(), error) {
	if cfg.Backend != config.LockRedis {
		return lock.NewMemoryLocker(cfg.Wait), func() {}, nil
	}

	rl, err := lock.NewRedisLocker(lock.RedisOptions{
		URL:    cfg.RedisURL,
		Prefix: cfg.Prefix,
		TTL:    cfg.TTL,
		Wait:   cfg.Wait,
	})
	if err != nil {
		return nil, nil, err
	}

	return rl, func() { _ = rl.Close() }, nil
}
