package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reconly/reconly/core/logx"
	"github.com/reconly/reconly/internal/api"
	"github.com/reconly/reconly/internal/builtin"
	"github.com/reconly/reconly/internal/config"
	"github.com/reconly/reconly/internal/digest"
	"github.com/reconly/reconly/internal/metrics"
	"github.com/reconly/reconly/internal/pipeline"
	"github.com/reconly/reconly/internal/registry"
	"github.com/reconly/reconly/internal/runstate"
	"github.com/reconly/reconly/internal/scheduler"
	"github.com/reconly/reconly/internal/server"
	"github.com/reconly/reconly/internal/settings"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")

	var cfg config.ServerConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	// An explicit --config must be honored before the file is loaded, so
	// scan for it ahead of flag.Parse.
	for i, arg := range os.Args[1:] {
		if arg == "--config" || arg == "-config" {
			if i+2 <= len(os.Args[1:]) {
				cfg.ConfigFile = os.Args[i+2]
			}
		} else if v, ok := cutFlag(arg, "config"); ok {
			cfg.ConfigFile = v
		}
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	cfg.ApplyEnv()
	cfg.BindFlagsFromCurrent()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "reconly version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("reconly version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	logx.Configure(cfg.LogLevel)
	log := logx.Component("main")

	settingsStore, err := settings.Open(filepath.Join(cfg.DataDir, "settings.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open settings store")
	}
	defer func() { _ = settingsStore.Close() }()

	store, err := digest.Open(filepath.Join(cfg.DataDir, "digests.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open digest store")
	}
	defer func() { _ = store.Close() }()

	reg := registry.New()
	if err := builtin.Init(reg, nil); err != nil {
		log.Fatal().Err(err).Msg("register components")
	}
	for _, d := range reg.Failures() {
		log.Warn().Str("kind", string(d.Kind)).Str("name", d.Name).Str("error", d.LoadError).Msg("component unavailable")
	}

	resolver := settings.NewResolver(settingsStore, reg)
	if err := resolver.RegisterCategory("agent", []registry.ConfigFieldSpec{
		{Key: "search_provider", Type: registry.FieldString, Label: "Search provider", Editable: true},
		{Key: "summary_language", Type: registry.FieldString, Label: "Summary language", Editable: true},
		{Key: "max_concurrent_fetches", Type: registry.FieldInteger, Label: "Max concurrent fetches", Default: "2", Editable: true},
	}); err != nil {
		log.Fatal().Err(err).Msg("register agent settings")
	}

	var runs runstate.Store
	if cfg.RedisAddr != "" {
		runs, err = runstate.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis run state")
	} else {
		runs = runstate.NewMemoryStore()
	}

	preg := prometheus.NewRegistry()
	preg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(preg)
	m.SetBuildInfo(version, buildSHA, buildDate)

	pipe := pipeline.New(reg, store, resolver, runs, m, pipeline.NewBroker())
	sched := scheduler.New(store, scheduler.RunnerFunc(func(ctx context.Context, sourceID int64) error {
		_, err := pipe.RunSource(ctx, sourceID)
		return err
	}))
	if err := sched.Reload(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("load schedules")
	}
	sched.Start()
	defer sched.Stop()

	a := &api.API{
		Reg:      reg,
		Resolver: resolver,
		Store:    store,
		Pipe:     pipe,
		Runs:     runs,
		Sched:    sched,
		Build:    api.BuildInfo{Version: version, SHA: buildSHA, Date: buildDate},
	}
	handler := server.New(cfg, a, preg)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: handler}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != fmt.Sprintf(":%d", cfg.Port) {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("termination requested")
		cancel()
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("metrics server shutdown")
			}
		}
	}()

	if cfg.APIKey != "" {
		log.Info().Msg("API key auth enabled")
	}
	if metricsSrv != nil {
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}
	log.Info().Int("port", cfg.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

// cutFlag extracts the value from a --name=value argument.
func cutFlag(arg, name string) (string, bool) {
	for _, prefix := range []string{"--" + name + "=", "-" + name + "="} {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):], true
		}
	}
	return "", false
}
