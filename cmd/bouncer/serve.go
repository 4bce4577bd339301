package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sable-ops/bouncer/internal/adminapi"
	"github.com/sable-ops/bouncer/internal/bans"
	"github.com/sable-ops/bouncer/internal/childproc"
	"github.com/sable-ops/bouncer/internal/config"
	"github.com/sable-ops/bouncer/internal/dashboard"
	"github.com/sable-ops/bouncer/internal/eventbus"
	"github.com/sable-ops/bouncer/internal/hotreload"
	"github.com/sable-ops/bouncer/internal/opcontrol"
	"github.com/sable-ops/bouncer/internal/shutdown"
	"github.com/sable-ops/bouncer/internal/supervisor"
	"github.com/sable-ops/bouncer/internal/votes"
)

// shutdownTimeout bounds how long serve waits for every component to tear
// down once a shutdown signal arrives.
const shutdownTimeout = 15 * time.Second

// runServe is the body of `bouncer serve`: it wires every component
// together and blocks until the process is told to stop.
func runServe(cmd *cobra.Command, args []string, logLevel *slog.LevelVar) error {
	serverCommand := args[0]

	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Child.Command = serverCommand

	if len(args) > 1 {
		// `bouncer serve <serverCommand> <port>` shorthand.
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		cfg.HTTP.Port = port
	}
	if cmd.Flags().Changed(FlagPort) {
		cfg.HTTP.Port = viper.GetInt(FlagPort)
	}
	if cmd.Flags().Changed(FlagDataDir) {
		rewriteDataDir(cfg, viper.GetString(FlagDataDir))
	}
	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Log.File = viper.GetString(FlagLogFile)
	}
	if cmd.Flags().Changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if viper.GetBool(FlagVerbose) {
		logLevel.Set(slog.LevelDebug)
	}

	daemonMode := viper.GetBool(FlagDaemon)
	projectRoot := opcontrol.FindProjectRoot("")
	dirs := []string{
		cfg.Paths.DataDir, cfg.Paths.UploadDir,
		filepath.Dir(cfg.Paths.Socket), filepath.Dir(cfg.Log.File),
		filepath.Dir(cfg.Paths.OpsFile), filepath.Dir(cfg.Paths.ForbiddenList),
	}
	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", dir, err)
			}
		}
	}

	pidFile := opcontrol.NewPIDFile(cfg.Paths.PID)
	pidFile.CleanupStale(cfg.Paths.Socket)

	if daemonMode && !opcontrol.IsDaemonized() {
		shouldExit, _, err := opcontrol.Daemonize(cfg.Paths.Socket)
		if err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() { _ = pidFile.Remove() }()

	logger := newLogger(cfg.Log, logLevel)
	logger.Info("bouncer starting", "version", version, "server_command", serverCommand, "http_port", cfg.HTTP.Port, "daemon", daemonMode)

	controlInfo := &opcontrol.ControlInfo{
		SocketPath: cfg.Paths.Socket,
		PIDPath:    cfg.Paths.PID,
		LogPath:    cfg.Log.File,
		StartTime:  time.Now(),
		PID:        os.Getpid(),
	}
	if err := opcontrol.WriteControlInfo(opcontrol.ControlInfoPath(projectRoot), controlInfo); err != nil {
		logger.Warn("failed to write control info", "error", err)
	}
	defer func() { _ = opcontrol.RemoveControlInfo(opcontrol.ControlInfoPath(projectRoot)) }()

	router := eventbus.NewRouter(logger, eventbus.DefaultBufferSize)
	defer router.Close()

	child := childproc.New(logger, cfg.Child.Command)
	registry, err := bans.New(logger, child, cfg.Paths.PlayersFile(), cfg.Paths.BannedFile(), nil)
	if err != nil {
		return fmt.Errorf("create ban registry: %w", err)
	}
	registry.SetRouter(router)

	reloader, err := hotreload.NewWatcher(logger, cfg.Paths.OpsFile, cfg.Paths.ForbiddenList, registry.SetRules)
	if err != nil {
		return fmt.Errorf("create hot reload watcher: %w", err)
	}
	registry.SetRules(reloader.Forbidden().Rules())

	sup := supervisor.New(logger, child, registry)
	sup.SetRouter(router)

	executor := &childExecutor{log: logger, child: child}
	engine, err := votes.New(logger, executor, cfg.Vote.Threshold, cfg.Paths.RequestsFile(), cfg.Paths.UploadDir)
	if err != nil {
		return fmt.Errorf("create vote engine: %w", err)
	}
	engine.SetRouter(router)
	gate := newVoteGate(engine)

	adminSrv := adminapi.New(logger, sup, registry, gate, reloader.Ops(), cfg.HTTP.StaticDir)
	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTP.Port), Handler: adminSrv}

	target := &controlTarget{child: child, registry: registry, gate: gate}
	controlSrv := opcontrol.NewServer(target, cfg.Paths.Socket, logger)

	var dash *dashboard.Dashboard
	if cfg.Dashboard.Enabled && (!cfg.Dashboard.AutoDetect || dashboard.AutoEnable(daemonMode)) {
		dashEvents := router.SubscribeBuffered(1000)
		// Quitting the dashboard is the foreground UI's only exit gesture,
		// so treat it the same as Ctrl-C: signal the process to shut down
		// through the ordinary graceful-shutdown path rather than tearing
		// components down directly from here.
		dash = dashboard.New(dashEvents, registry, gate, dashboard.WithOnQuit(func() {
			_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
		}))
	}

	if err := child.Run(); err != nil {
		return fmt.Errorf("start child process: %w", err)
	}
	defer func() { _ = child.Stop() }()
	target.onStop = func(force bool) {
		if force {
			_ = child.Kill()
		} else {
			_ = child.Stop()
		}
	}

	sup.Start()
	registry.Start()
	engine.Start()
	reloader.Start()

	runner := func(ctx context.Context) error {
		errCh := make(chan error, 2)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("http server: %w", err)
				return
			}
			errCh <- nil
		}()
		go func() {
			errCh <- controlSrv.Start(ctx)
		}()

		if dash != nil {
			go func() {
				if err := dash.Run(); err != nil {
					logger.Warn("dashboard exited with error", "error", err)
				}
			}()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-child.Done():
			logger.Info("child process exited, shutting down")
			return nil
		case err := <-errCh:
			return err
		}
	}

	teardown := func(ctx context.Context) error {
		reloader.Shutdown()
		engine.Shutdown()
		_ = httpSrv.Shutdown(ctx)
		_ = controlSrv.Shutdown()
		sup.Shutdown()
		registry.Shutdown()
		return nil
	}

	return shutdown.RunWithGracefulShutdown(cmd.Context(), logger, shutdownTimeout, runner, teardown)
}

// rewriteDataDir relocates every per-record file under dir, preserving
// their base names, for the --data-dir override.
func rewriteDataDir(cfg *config.Config, dir string) {
	cfg.Paths.DataDir = dir
	cfg.Paths.UploadDir = filepath.Join(dir, "uploads")
}
