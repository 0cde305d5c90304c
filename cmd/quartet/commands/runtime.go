package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/quartet/internal/config"
	"github.com/dyluth/quartet/internal/engine"
	"github.com/dyluth/quartet/internal/instance"
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/pkg/lesson"
)

// runtime is what every command builds from quartet.yml and the global flags.
type runtime struct {
	cfg      *config.QuartetConfig
	cfgFound bool
	log      *logger.Logger
	archive  *lesson.Client
}

// loadRuntime reads the configuration and applies global flag overrides.
func loadRuntime() (*runtime, error) {
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s or regenerate it:\n  quartet init --force", configPath)},
		)
	}

	if seedOverride != 0 {
		cfg.Seed = seedOverride
	}
	if logLevel != "" {
		cfg.Log.Mode = logLevel
	}
	if redisURLFlag != "" {
		cfg.History.RedisURL = redisURLFlag
	}
	if instanceFlag != "" {
		cfg.History.Instance = instanceFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid flags", err.Error(), nil)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log.Debug("configuration loaded", "path", configPath, "found", found, "seed", cfg.Seed)

	return &runtime{cfg: cfg, cfgFound: found, log: log}, nil
}

func (r *runtime) engine() (*engine.Engine, error) {
	eng, err := engine.NewDefault(r.cfg, r.log)
	if err != nil {
		return nil, printer.Error(
			"failed to load content",
			err.Error(),
			[]string{"Check content.dir in quartet.yml points at a readable directory"},
		)
	}
	return eng, nil
}

// hasArchive reports whether an archive is configured.
func (r *runtime) hasArchive() bool {
	return r.cfg.History.RedisURL != ""
}

// openArchive connects to the configured archive and verifies it responds.
func (r *runtime) openArchive(ctx context.Context) (*lesson.Client, error) {
	if r.archive != nil {
		return r.archive, nil
	}
	if !r.hasArchive() {
		return nil, printer.Error(
			"no archive configured",
			"This command needs a Redis archive but history.redis_url is not set.",
			[]string{
				fmt.Sprintf("Add it to %s:\n  history:\n    redis_url: redis://localhost:%d", configPath, instance.DefaultRedisPort),
				"Or pass it for one command:\n  --redis-url redis://localhost:6379",
			},
		)
	}

	opts, err := instance.RedisOptions(r.cfg.History.RedisURL)
	if err != nil {
		return nil, err
	}
	client, err := lesson.NewClient(opts, r.cfg.History.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", r.cfg.History.RedisURL),
			map[string]string{"Instance": r.cfg.History.Instance},
			[]string{
				"Start a local Redis:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Or generate without archiving by dropping --save",
			},
		)
	}

	r.log.Debug("archive connected", "instance", r.cfg.History.Instance)
	r.archive = client
	return client, nil
}

func (r *runtime) Close() {
	if r.archive != nil {
		r.archive.Close()
	}
	r.log.Sync()
}
