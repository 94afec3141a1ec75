// Command hrive-authd serves the HRive login functions and the guarded
// portal routes.
//
// Run against a local Redis, or with --dev-redis to use an in-process one:
//
//	HRIVE_JWT_SECRET=... hrive-authd --config hrive.yaml --seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/hrive/hriveauth"
	"github.com/hrive/hriveauth/internal/settings"
)

type config struct {
	ConfigPath string
	Listen     string
	RedisAddr  string
	DevRedis   bool
	Seed       bool
	AuditLog   bool
	LogLevel   string
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("hrive-authd: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("hrive-authd stopped with error: %v", err)
	}
	log.Println("hrive-authd stopped cleanly")
}

func parseConfig(args []string) (config, error) {
	fs := pflag.NewFlagSet("hrive-authd", pflag.ContinueOnError)

	var cfg config
	fs.StringVarP(&cfg.ConfigPath, "config", "c", os.Getenv("HRIVE_CONFIG"), "path to a YAML config file")
	fs.StringVar(&cfg.Listen, "listen", "", "HTTP listen address (overrides the config file)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address (overrides the config file)")
	fs.BoolVar(&cfg.DevRedis, "dev-redis", envOrBool("HRIVE_DEV_REDIS", false), "use an in-process Redis when no address is configured")
	fs.BoolVar(&cfg.Seed, "seed", false, "create the configured test users on boot")
	fs.BoolVar(&cfg.AuditLog, "audit-log", false, "write audit events as JSON lines to stdout")
	fs.StringVar(&cfg.LogLevel, "log-level", envOrDefault("HRIVE_LOG_LEVEL", "info"), "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg config) error {
	file, err := settings.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Listen != "" {
		file.Listen = cfg.Listen
	}
	if cfg.RedisAddr != "" {
		file.Redis.Addr = cfg.RedisAddr
	}
	if cfg.AuditLog {
		file.Audit.Enabled = true
	}

	engineCfg, err := file.EngineConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	client, cleanup, err := openRedis(file.Redis, cfg.DevRedis)
	if err != nil {
		return err
	}
	defer cleanup()

	// /metrics is always served, so counters are always on.
	builder := hriveauth.New().
		WithConfig(engineCfg).
		WithMetricsEnabled(true).
		WithRedis(client).
		WithLogger(logger)
	if cfg.AuditLog {
		builder = builder.WithAuditSink(hriveauth.NewJSONWriterSink(os.Stdout))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	rtt, err := engine.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	log.Printf("hrive-authd booting (listen=%s redis=%s rtt=%s mode=%s)",
		file.ListenAddr(), redisLabel(file.Redis.Addr), rtt.Round(time.Microsecond), modeLabel(engineCfg.ValidationMode))

	if cfg.Seed {
		res, err := engine.SeedTestUsers(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Printf("seeded test users (created=%d existing=%d)", len(res.Created), len(res.Existing))
	}

	return serve(ctx, file.ListenAddr(), newRouter(engine, logger))
}

func openRedis(r settings.Redis, dev bool) (redis.UniversalClient, func(), error) {
	if r.Addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{r.Addr},
			Password: r.Password,
			DB:       r.DB,
		})
		return client, func() { _ = client.Close() }, nil
	}
	if !dev {
		return nil, nil, errors.New("no redis address configured; pass --redis-addr or --dev-redis")
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start in-process redis: %w", err)
	}
	log.Printf("using in-process redis at %s; data is lost on exit", mr.Addr())
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received; draining server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func redisLabel(addr string) string {
	if addr == "" {
		return "in-process"
	}
	return addr
}

func modeLabel(m hriveauth.ValidationMode) string {
	if m == hriveauth.ModeJWTOnly {
		return "jwt-only"
	}
	return "strict"
}
