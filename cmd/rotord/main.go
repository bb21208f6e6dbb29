// Package main provides the rotor scheduler daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/rotor/internal/api/httpadmin"
	"github.com/osa030/rotor/internal/app/filter"
	"github.com/osa030/rotor/internal/app/sched"
	"github.com/osa030/rotor/internal/domain/candidate"
	"github.com/osa030/rotor/internal/infra/config"
	"github.com/osa030/rotor/internal/infra/logger"
	"github.com/osa030/rotor/internal/infra/playlist"
	"github.com/osa030/rotor/internal/infra/resolver"
)

var (
	app        = kingpin.New("rotord", "rotor playlist scheduler daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/rotord.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the daemon (default)").Default()
}

func main() {
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Level: "info", Output: "stdout"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// The config log section applies unless CLI flags override it.
	if !*verbose && *logfile == "" {
		if err := logger.Init(logger.Config{
			Level:  cfg.Log.Level,
			Output: cfg.Log.Output,
			File:   cfg.Log.File,
		}); err != nil {
			zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. A separate function ensures defers
// run even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	gateway, err := resolver.NewMuxFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create resolvers: %w", err)
	}

	chain, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}

	candidates, err := playlist.LoadFile(cfg.Playlist.Path)
	if err != nil {
		return fmt.Errorf("failed to load playlist: %w", err)
	}

	mode, err := sched.ParseMode(cfg.Scheduler.Mode)
	if err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}

	scheduler, err := sched.New(gateway, candidates, sched.Options{
		Mode:           mode,
		Loop:           cfg.Scheduler.Loop,
		MaxFail:        cfg.Scheduler.MaxFail,
		PrefetchDepth:  cfg.Scheduler.PrefetchDepth,
		ResolveTimeout: cfg.Scheduler.ResolveTimeout(),
		Cooldown:       cfg.Scheduler.Cooldown(),
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.SetAccepts(chain.Accepts)
	scheduler.SetHooks(sched.Hooks{
		OnLoop: func() {
			zlog.Debug().Msg("pass exhausted, looping")
		},
		OnDone: func() {
			zlog.Info().Msg("playlist exhausted, scheduler stopped")
		},
		OnFail: func() []string {
			if cfg.Playlist.FallbackPath == "" {
				return nil
			}
			cs, err := playlist.LoadFile(cfg.Playlist.FallbackPath)
			if err != nil {
				zlog.Error().Msgf("Failed to load fallback playlist: %v", err)
				return nil
			}
			uris := make([]string, len(cs))
			for i, c := range cs {
				uris[i] = c.URI
			}
			return uris
		},
	})

	adminOpts := []httpadmin.Option{
		httpadmin.WithReloadSource(func() ([]candidate.Candidate, error) {
			return playlist.LoadFile(cfg.Playlist.Path)
		}),
	}

	var prefetcher *sched.Prefetcher
	if cfg.Scheduler.PrefetchDepth > 0 {
		prefetcher = sched.NewPrefetcher(scheduler, cfg.Scheduler.PrefetchDepth)
		defer prefetcher.Close()
		adminOpts = append(adminOpts, httpadmin.WithPrefetcher(prefetcher))
	}

	if cfg.Playlist.Watch {
		watcher, err := playlist.NewWatcher(cfg.Playlist.Path, func() {
			cs, err := playlist.LoadFile(cfg.Playlist.Path)
			if err != nil {
				zlog.Error().Msgf("Failed to reload playlist: %v", err)
				return
			}
			scheduler.Reload(cs, true)
		})
		if err != nil {
			return fmt.Errorf("failed to watch playlist: %w", err)
		}
		defer watcher.Close()
	}

	admin := httpadmin.New(cfg.Server, scheduler, adminOpts...)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(admin.Handler(), &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting admin server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	scheduler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Daemon stopped")
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-20s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}
