package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/config"
	"github.com/Mshel/lightcycle/internal/game"
	"github.com/Mshel/lightcycle/internal/judge"
	"github.com/Mshel/lightcycle/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const sshShutdownTimeout = 30 * time.Second

var serveFlags struct {
	noSSH    bool
	noHTTP   bool
	matchTTL time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the judge server and the ssh spectator",
	Long: `Run the judge API (POST /move, GET /ws, /healthz, /metrics) and an ssh
server where every session watches the engine play live.

The config file, if given, is watched: engine settings apply to the next
match or judge connection, log level changes apply immediately.

Examples:
  lightcycle serve
  lightcycle serve --config lightcycle.yaml
  lightcycle serve --no-ssh`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveFlags.noSSH, "no-ssh", false, "do not start the ssh spectator")
	serveCmd.Flags().BoolVar(&serveFlags.noHTTP, "no-http", false, "do not start the judge server")
	serveCmd.Flags().DurationVar(&serveFlags.matchTTL, "match-ttl", judge.DefaultMatchTTL, "drop ?match= history idle for this long (0 keeps it until DELETE)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	current := func() *config.File { return cfg }
	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, cfg)
		if err != nil {
			return err
		}
		watcher.OnChange(func(next *config.File) {
			log.SetLevel(next.Level())
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error("Configuration watcher stopped", "error", err)
			}
		}()
		current = watcher.Current
	}
	engine := func() game.Config { return current().Engine }

	store, err := arena.OpenResultStore(cfg.Arena.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	retention := arena.NewRetention(store, cfg.Arena.PruneSchedule, cfg.Arena.RetentionAge())
	if err := retention.Start(ctx); err != nil {
		return err
	}
	defer retention.Stop()

	errCh := make(chan error, 2)
	running := 0

	if !serveFlags.noHTTP {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		server := judge.NewServer(engine, registry, judge.WithMatchTTL(serveFlags.matchTTL))

		running++
		go func() { errCh <- server.ListenAndServe(ctx, cfg.Server.HTTPAddress) }()
	}

	if !serveFlags.noSSH {
		sshServer, err := newSSHServer(spectatorDeps(engine, store))
		if err != nil {
			return err
		}

		running++
		go func() { errCh <- serveSSH(ctx, sshServer) }()
	}

	if running == 0 {
		return errors.New("nothing to serve: both --no-ssh and --no-http are set")
	}

	var firstErr error
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			stop()
		}
	}
	return firstErr
}

func newSSHServer(deps ui.Deps) (*ssh.Server, error) {
	limiter := newConnectionLimiter(cfg.Server.MaxConnectionsPerIP)

	viewHandler := func(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := sshSession.Pty()
		controllerModel := ui.NewControllerModel(deps, pty.Window.Width, pty.Window.Height)
		return controllerModel, []tea.ProgramOption{tea.WithAltScreen()}
	}

	return wish.NewServer(
		wish.WithAddress(cfg.Server.SSHAddress),
		wish.WithHostKeyPath(cfg.Server.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(viewHandler),
			logging.Middleware(),
			activeterm.Middleware(),
			limiter.Middleware,
		),
	)
}

func serveSSH(ctx context.Context, sshServer *ssh.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting SSH server", "address", sshServer.Addr)
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error("Could not start server", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Stopping SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sshShutdownTimeout)
	defer cancel()
	if err := sshServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error("Could not stop server", "error", err)
		return err
	}
	return nil
}
