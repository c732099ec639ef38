// Package serve implements the `serve` subcommand: it constructs every
// collaborator the Task Orchestration Engine owns outright (task
// registry, download pool, watchdog, restart coordinator, notification
// dispatcher, HTTP control API) and runs until a termination signal
// arrives.
//
// The chat transport, the torrent RPC client, the tweet resolver, and
// the persistent quota/admin store are all external collaborators with
// no in-repo implementation; this command wires everything it can
// build from Settings alone and leaves those as nil-safe optional
// fields on engine.Engine, set by an embedding integration that links
// this package in rather than by this CLI itself.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/f2lnk/f2lnk-go/internal/conf"
	"github.com/f2lnk/f2lnk-go/internal/download"
	"github.com/f2lnk/f2lnk-go/internal/engine"
	"github.com/f2lnk/f2lnk-go/internal/events"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/notify"
	"github.com/f2lnk/f2lnk-go/internal/restart"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/watchdog"
)

var logger = logging.ForService("serve")

// Command builds the `serve` subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task orchestration engine",
		Long:  "Starts the watchdog, restart coordinator, and HTTP control API, and blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}
}

func run(ctx context.Context, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := events.Initialize(events.DefaultConfig())
	if err != nil {
		return fmt.Errorf("serve: initializing event bus: %w", err)
	}
	defer bus.Shutdown(5 * time.Second)

	registry := task.NewRegistry()
	pool := download.New(time.Duration(settings.Download.StaggerSeconds) * time.Second)

	var dispatcher *notify.Dispatcher
	if settings.Notify.WebhookURL != "" {
		dispatcher, err = notify.NewDispatcher(settings.Notify.WebhookURL)
		if err != nil {
			return fmt.Errorf("serve: building notify dispatcher: %w", err)
		}
		if err := bus.RegisterConsumer(notify.NewConsumer(dispatcher)); err != nil {
			return fmt.Errorf("serve: registering notify consumer: %w", err)
		}
	}

	// Gate, Admin, Transport, TorrentClient, and TweetClient all need a
	// real persistent store or chat transport supplied by whatever
	// embeds this engine; serve only wires what it can build from
	// Settings alone and leaves the rest nil-safe (see engine.Engine's
	// own nil checks around e.Gate/e.Admin/e.Transport).
	eng := engine.New(registry, nil, nil, pool)
	eng.Dispatcher = dispatcher
	eng.IsOwner = settings.IsOwner

	coordinator := restart.New(registry, nil, dispatcher, settings.Transport.OwnerIDs, []string{
		settings.Storage.TasksRoot,
		settings.Storage.DownloadRoot,
	})

	wd := watchdog.New(watchdog.Config{
		Interval:     time.Duration(settings.Watchdog.IntervalSeconds) * time.Second,
		StartupGrace: time.Duration(settings.Watchdog.StartupGraceSeconds) * time.Second,
		CPUThreshold: settings.Watchdog.CPUThresholdPct,
		RAMThreshold: settings.Watchdog.RAMThresholdPct,
		IdleTimeout:  time.Duration(settings.Watchdog.IdleTimeoutHours) * time.Hour,
	}, registry, bus, func(reason string) {
		coordinator.Trigger(ctx, reason, 0)
	})
	eng.Watchdog = wd

	go wd.Run(ctx)

	srv := eng.NewHTTPServer()
	addr := fmt.Sprintf("%s:%d", settings.Server.BindAddress, settings.Server.BindPort)
	go func() {
		logger.Info("serve: control API listening", "addr", addr)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("serve: control API stopped", "error", err)
		}
	}()

	logger.Info("serve: engine running, waiting for interrupt")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("serve: control API shutdown error", "error", err)
	}
	logger.Info("serve: shutdown complete")
	return nil
}
