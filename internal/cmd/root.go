// Package cmd holds the hrivectl command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hrive/hriveauth"
	"github.com/hrive/hriveauth/internal/settings"
)

var (
	configPath string
	redisAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "hrivectl",
	Short: "Operate the HRive portal auth store",
	Long: `hrivectl seeds portal users, revokes sessions, and explains how the
portal route guard treats a given role and path.

Commands that touch Redis read the same YAML file and HRIVE_* environment
variables as hrive-authd.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the hrive YAML config file")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "Redis address (overrides the config file)")
}

// openEngine builds an engine against the configured Redis. The returned
// func releases it.
func openEngine(ctx context.Context) (*hriveauth.Engine, func(), error) {
	file, err := settings.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if redisAddr != "" {
		file.Redis.Addr = redisAddr
	}
	if file.Redis.Addr == "" {
		return nil, nil, errors.New("no redis address configured; pass --redis-addr or set " + settings.EnvRedisAddr)
	}

	cfg, err := file.EngineConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{file.Redis.Addr},
		Password: file.Redis.Password,
		DB:       file.Redis.DB,
	})
	engine, err := hriveauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := engine.Ping(pingCtx); err != nil {
		engine.Close()
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", file.Redis.Addr, err)
	}

	return engine, func() {
		engine.Close()
		_ = client.Close()
	}, nil
}
