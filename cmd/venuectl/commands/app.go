package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/venue-shards-go/config"
	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/features/shell/observable"
	"github.com/AntonStoeckl/venue-shards-go/internal/printer"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/oteladapters"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/postgresengine"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/venuelock"
)

const (
	loggerName    = "venuectl"
	lockKeyPrefix = "venuectl:lock:"
)

var errStoreMismatch = errors.New("partition store does not provide the required operations")

// app is the wiring of one venuectl invocation.
type app struct {
	flags            *globalFlags
	cfg              config.Config
	set              partition.Set
	printer          *printer.Printer
	logger           *slog.Logger
	telemetry        *config.Telemetry
	metricsCollector venuestore.MetricsCollector
	tracingCollector venuestore.TracingCollector
	contextualLogger venuestore.ContextualLogger
	stores           []*postgresengine.Store
	locker           venuelock.Locker
	closers          []func() error
}

// loadApp reads the configuration without opening any connection.
func loadApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	p, err := newPrinter(cmd, flags)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, p.Error("Invalid configuration", err.Error(),
			"Check the file given with --config", "Check the VENUES_* environment variables")
	}

	set, err := partition.NewSet(cfg.Descriptors())
	if err != nil {
		return nil, p.Error("Invalid partitions", err.Error())
	}

	return &app{
		flags:   flags,
		cfg:     cfg,
		set:     set,
		printer: p,
		logger:  cfg.Log.NewLogger(cmd.ErrOrStderr()),
	}, nil
}

// openApp loads the configuration and opens telemetry, the partition stores, and the locker.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return nil, err
	}

	if err = a.open(cmd.Context()); err != nil {
		a.close()
		return nil, a.printer.Error("Startup failed", err.Error())
	}

	return a, nil
}

func (a *app) open(ctx context.Context) error {
	telemetry, err := config.NewTelemetry(ctx, a.cfg.Telemetry)
	if err != nil {
		return err
	}

	a.telemetry = telemetry
	a.closers = append(a.closers, telemetry.Shutdown)

	if telemetry.Enabled() {
		a.metricsCollector = oteladapters.NewMetricsCollector(telemetry.Meter)
		a.tracingCollector = oteladapters.NewTracingCollector(telemetry.Tracer)
		a.contextualLogger = oteladapters.NewSlogBridgeLogger(loggerName)
	}

	for _, d := range a.set.Descriptors() {
		store, openErr := a.openStore(ctx, d)
		if openErr != nil {
			return fmt.Errorf("partition %s: %w", d.Label(), openErr)
		}

		a.stores = append(a.stores, store)
	}

	return a.openLocker(ctx)
}

func (a *app) openStore(ctx context.Context, d partition.Descriptor) (*postgresengine.Store, error) {
	options := []postgresengine.Option{
		postgresengine.WithPartitionName(d.Label()),
		postgresengine.WithLogger(a.logger),
	}

	if a.metricsCollector != nil {
		options = append(options,
			postgresengine.WithMetrics(a.metricsCollector),
			postgresengine.WithTracing(a.tracingCollector),
			postgresengine.WithContextualLogger(a.contextualLogger),
		)
	}

	switch a.cfg.Adapter {
	case config.AdapterSQLDB:
		db, err := config.NewSQLDB(d.DSN, a.cfg.Pool)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		return postgresengine.NewStoreFromSQLDB(db, options...)

	case config.AdapterSQLX:
		db, err := config.NewSQLX(d.DSN, a.cfg.Pool)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		return postgresengine.NewStoreFromSQLX(db, options...)

	default:
		db, err := config.NewPGXPool(ctx, d.DSN, a.cfg.Pool)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func() error { db.Close(); return nil })

		return postgresengine.NewStoreFromPGXPool(db, options...)
	}
}

func (a *app) openLocker(ctx context.Context) error {
	switch a.cfg.Lock.Backend {
	case config.LockBackendLocal:
		a.locker = venuelock.NewLocalLocker()

	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Lock.RedisAddr})
		a.closers = append(a.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", a.cfg.Lock.RedisAddr, err)
		}

		locker, err := venuelock.NewRedisLocker(client,
			venuelock.WithTTL(a.cfg.Lock.TTL),
			venuelock.WithKeyPrefix(lockKeyPrefix),
		)
		if err != nil {
			return err
		}

		a.locker = locker
	}

	return nil
}

// close releases everything in reverse opening order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resource failed", "error", err.Error())
		}
	}

	a.closers = nil
}

// retryOptions instruments the retry of transient conflicts for one command type.
func (a *app) retryOptions(commandType string) []shell.RetryOption {
	if a.metricsCollector == nil {
		return nil
	}

	return []shell.RetryOption{shell.WithRetryMetrics(a.metricsCollector, commandType)}
}

// engine builds the fan-out engine over all stores.
// With --precheck, partitions that do not answer a ping are skipped without waiting for the timeout.
func (a *app) engine(ctx context.Context) (*fanout.Engine, error) {
	targets := make([]fanout.Target, 0, len(a.stores))
	pingers := make(map[partition.ID]partition.Pinger, len(a.stores))

	for i, store := range a.stores {
		id := partition.ID(i)
		targets = append(targets, fanout.Target{ID: id, Name: store.PartitionName(), Reader: store})
		pingers[id] = store
	}

	options := []fanout.Option{
		fanout.WithPartitionTimeout(a.cfg.PartitionTimeout),
		fanout.WithLogger(a.logger),
	}

	if a.metricsCollector != nil {
		options = append(options,
			fanout.WithMetrics(a.metricsCollector),
			fanout.WithTracing(a.tracingCollector),
			fanout.WithContextualLogger(a.contextualLogger),
		)
	}

	if a.flags.precheck {
		monitor, err := a.healthMonitor(pingers, partition.WithMaxFailures(1))
		if err != nil {
			return nil, err
		}

		monitor.CheckNow(ctx)
		options = append(options, fanout.WithHealth(monitor))
	}

	return fanout.NewEngine(targets, options...)
}

func (a *app) healthMonitor(pingers map[partition.ID]partition.Pinger, extra ...partition.HealthOption) (*partition.HealthMonitor, error) {
	options := []partition.HealthOption{
		partition.WithCheckInterval(a.cfg.HealthInterval),
		partition.WithCheckTimeout(a.cfg.PartitionTimeout),
		partition.WithMaxFailures(a.cfg.HealthMaxFailures),
		partition.WithHealthLogger(a.logger),
	}

	return partition.NewHealthMonitor(pingers, append(options, extra...)...)
}

// resolverFor exposes the stores as T, one per partition.
func resolverFor[T any](a *app) (partition.Resolver[T], error) {
	targets := make([]T, 0, len(a.stores))

	for _, store := range a.stores {
		target, ok := any(store).(T)
		if !ok {
			return partition.Resolver[T]{}, errStoreMismatch
		}

		targets = append(targets, target)
	}

	return partition.NewResolver(a.set.Router(), targets)
}

func commandOptions[C shell.Command, R shell.CommandResult](a *app) []observable.CommandOption[C, R] {
	options := []observable.CommandOption[C, R]{observable.WithCommandLogging[C, R](a.logger)}

	if a.metricsCollector != nil {
		options = append(options,
			observable.WithCommandMetrics[C, R](a.metricsCollector),
			observable.WithCommandTracing[C, R](a.tracingCollector),
			observable.WithCommandContextualLogging[C, R](a.contextualLogger),
		)
	}

	return options
}

func queryOptions[Q shell.Query, R any](a *app) []observable.QueryOption[Q, R] {
	options := []observable.QueryOption[Q, R]{observable.WithQueryLogging[Q, R](a.logger)}

	if a.metricsCollector != nil {
		options = append(options,
			observable.WithQueryMetrics[Q, R](a.metricsCollector),
			observable.WithQueryTracing[Q, R](a.tracingCollector),
			observable.WithQueryContextualLogging[Q, R](a.contextualLogger),
		)
	}

	return options
}
