package sweeper

// Background maintenance: auto-resolve idle conversations and redeliver
// pending handoffs on a cron schedule.

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"triaged/pkg/config"
	"triaged/pkg/engine"
	"triaged/pkg/logger"
	"triaged/pkg/memory"
	"triaged/pkg/store"
)

// Start launches the sweeper scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config, eng *engine.Engine) (context.CancelFunc, error) {
	if !cfg.Sweeper.Enabled {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Sweeper.Cron
	if cronExpr == "" {
		cronExpr = "*/10 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, eng, cronExpr)
	logger.Info("sweeper_started", "cron", cronExpr,
		"idle_resolve_after", cfg.Sweeper.IdleResolveAfter.Duration().String())
	return cancel, nil
}

// runScheduler computes the next tick with gronx and sleeps until it.
func runScheduler(ctx context.Context, cfg *config.Config, eng *engine.Engine, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(ctx, cfg, eng); err != nil {
				logger.Error("sweeper_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep. Exported so an admin trigger or test can
// invoke it directly.
func RunOnce(ctx context.Context, cfg *config.Config, eng *engine.Engine) error {
	resolved, err := resolveIdle(cfg)
	if err != nil {
		return err
	}
	redelivered, err := eng.RedeliverPending(ctx)
	if err != nil {
		return err
	}
	if resolved > 0 || redelivered > 0 {
		logger.Info("sweep_complete", "idle_resolved", resolved, "handoffs_redelivered", redelivered)
	}
	return nil
}

// resolveIdle auto-resolves open conversations with no activity inside the
// idle window. Escalated conversations are owned by a human and are never
// touched. Each candidate is re-read and re-checked under its customer
// stripe lock, since a lane worker may have touched it since the scan.
func resolveIdle(cfg *config.Config) (int, error) {
	idle := cfg.Sweeper.IdleResolveAfter.Duration()
	if idle <= 0 {
		return 0, nil
	}
	convs, err := store.ListConversations()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-idle).UnixNano()
	n := 0
	for _, c := range convs {
		if !c.Status.Active() || c.UpdatedTS > cutoff {
			continue
		}
		err := memory.WithCustomer(c.CustomerID, func() error {
			cur, err := store.GetConversation(c.ID)
			if err != nil {
				return err
			}
			if !cur.Status.Active() || cur.UpdatedTS > cutoff {
				return nil
			}
			if err := memory.Resolve(&cur, time.Now().UTC().UnixNano()); err != nil {
				return err
			}
			n++
			logger.Info("conversation_resolved", "conversation", cur.ID, "via", "idle_sweep")
			return nil
		})
		if err != nil {
			logger.Warn("idle_resolve_failed", "conversation", c.ID, "error", err)
		}
	}
	return n, nil
}
