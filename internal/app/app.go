package app

import (
	"context"
	"fmt"

	"triaged/internal/sweeper"
	"triaged/pkg/banner"
	"triaged/pkg/config"
	"triaged/pkg/engine"
	"triaged/pkg/events"
	"triaged/pkg/ingest"
	"triaged/pkg/logger"
	"triaged/pkg/store"
)

// App owns the wiring of the triage service: store, decision engine,
// processing lanes, optional Kafka transport, background sweeper and the
// HTTP surface. Run blocks until the context is cancelled.
type App struct {
	cfg     *config.Config
	source  string
	version string

	producer      *events.Producer
	lanes         *ingest.Lanes
	consumer      *ingest.Consumer
	sweeperCancel context.CancelFunc
}

// New constructs an App from a loaded config. source describes where the
// config came from (file path or "defaults") and is only used for display.
func New(cfg *config.Config, source, version string) *App {
	return &App{cfg: cfg, source: source, version: version}
}

// Run starts every component and serves until ctx is cancelled, then shuts
// the pipeline down back to front so in-flight interactions drain.
func (a *App) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger.Init(a.cfg.Logging.Level)
	if a.cfg.Logging.AuditDir != "" {
		if err := logger.AttachAuditFileSink(a.cfg.Logging.AuditDir); err != nil {
			return fmt.Errorf("failed to attach audit sink: %w", err)
		}
	}

	if err := store.Open(a.cfg.Server.DBPath); err != nil {
		return fmt.Errorf("failed to open store at %s: %w", a.cfg.Server.DBPath, err)
	}
	defer store.Close()

	if a.cfg.Kafka.Enabled {
		a.producer = events.NewProducer(
			a.cfg.Kafka.Brokers,
			a.cfg.Kafka.DecisionsTopic,
			a.cfg.Kafka.EscalationsTopic,
			a.cfg.Kafka.DLQTopic,
		)
		defer a.producer.Close()
	}

	eng := engine.New(a.cfg, nil, a.producer)

	a.lanes = ingest.NewLanes(eng, a.cfg.Lanes.Workers, a.cfg.Lanes.QueueCapacity)
	a.lanes.Start(ctx)
	defer a.lanes.Close()

	if a.cfg.Kafka.Enabled {
		a.consumer = ingest.NewConsumer(
			a.cfg.Kafka.Brokers,
			a.cfg.Kafka.InteractionsTopic,
			a.cfg.Kafka.GroupID,
			a.lanes,
			a.producer,
		)
		go func() {
			if err := a.consumer.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("kafka_consumer_stopped", "error", err)
			}
		}()
		defer a.consumer.Close()
	}

	cancelSweep, err := sweeper.Start(ctx, a.cfg, eng)
	if err != nil {
		return err
	}
	a.sweeperCancel = cancelSweep
	defer a.sweeperCancel()

	banner.Print(a.cfg, a.source, a.version)

	return a.serveHTTP(ctx)
}
