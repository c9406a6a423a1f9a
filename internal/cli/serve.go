package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"

	"github.com/enderxdxd/botflow"
	"github.com/enderxdxd/botflow/internal/logging"
	"github.com/enderxdxd/botflow/pkg/adapters/delivery"
	"github.com/enderxdxd/botflow/pkg/adapters/file"
	botflowhttp "github.com/enderxdxd/botflow/pkg/adapters/http"
	"github.com/enderxdxd/botflow/pkg/adapters/memory"
	redisadapter "github.com/enderxdxd/botflow/pkg/adapters/redis"
	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/observability"
	"github.com/enderxdxd/botflow/pkg/ports"
)

// Serve wires the engine from config and blocks serving the webhook API.
func Serve(cfg *Config) error {
	logger := logging.New(parseLevel(cfg.LogLevel))

	flows, err := file.Open(cfg.FlowsDir)
	if err != nil {
		return err
	}

	directory := memory.NewOperatorDirectory()
	for _, dep := range cfg.Departments {
		operators := make([]domain.Operator, 0, len(dep.Operators))
		for _, op := range dep.Operators {
			operators = append(operators, domain.Operator{ID: op.ID, Name: op.Name})
		}
		directory.SetDepartment(domain.Department{ID: dep.ID, Name: dep.Name, Strategy: dep.Strategy}, operators...)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)

	opts := []botflow.Option{
		botflow.WithLogger(logger),
		botflow.WithMetrics(metrics),
		botflow.WithDelivery(delivery.NewLogGateway(logger)),
		botflow.WithTemplates(botflow.Templates{
			Retry:      cfg.Templates.Retry,
			Unexpected: cfg.Templates.Unexpected,
			Fallback:   cfg.Templates.Fallback,
		}),
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, botflow.WithMaxSteps(cfg.MaxSteps))
	}

	var sessions ports.SessionStore
	if cfg.Redis.Addr != "" {
		ttl, err := cfg.Redis.ParseSessionTTL()
		if err != nil {
			return err
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = redisadapter.NewFromClient(client, redisadapter.WithTTL(ttl))
		opts = append(opts,
			botflow.WithLocker(redisadapter.NewLocker(client, "botflow:")),
			botflow.WithCursorStore(redisadapter.NewCursorStore(client, "botflow:")),
		)
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		sessions = memory.NewSessionStore()
		logger.Info("using in-memory session store")
	}

	engine := botflow.New(flows, sessions, directory, opts...)

	handler := botflowhttp.NewHandler(engine, flows,
		botflowhttp.WithLogger(logger),
		botflowhttp.WithMetrics(registry),
	)

	logger.Info("bot-flow engine listening", "addr", cfg.Listen, "flows_dir", cfg.FlowsDir)
	if err := http.ListenAndServe(cfg.Listen, handler); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
