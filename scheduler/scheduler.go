// Package scheduler runs the periodic status snapshot: an hourly log line
// per monitored channel with its claim count. Purely observational; the
// sticky resend policy deliberately has no timer and piggybacks on message
// traffic instead.
package scheduler

import (
	"context"
	"time"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/robfig/cron/v3"

	"ClaimRelay/db"
)

var logger = log15.New("module", "scheduler")

// StatusSource is the read-only store slice the snapshot needs.
type StatusSource interface {
	ListChannelConfigs(ctx context.Context) ([]db.ChannelConfig, error)
	CountClaims(ctx context.Context, channelID string) (int64, error)
}

// Start schedules the hourly snapshot and returns the running cron so the
// caller can stop it on shutdown.
func Start(store StatusSource) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		Snapshot(ctx, store)
	})
	c.Start()
	logger.Info("status snapshot scheduled", "interval", "1h")
	return c
}

// Snapshot logs the active configuration count and per-channel claim totals.
func Snapshot(ctx context.Context, store StatusSource) {
	configs, err := store.ListChannelConfigs(ctx)
	if err != nil {
		logger.Error("snapshot: failed to list configs", "err", err)
		return
	}

	logger.Info("status snapshot", "active_configs", len(configs))
	for _, cfg := range configs {
		count, err := store.CountClaims(ctx, cfg.ChannelID)
		if err != nil {
			logger.Error("snapshot: failed to count claims", "channel", cfg.ChannelID, "err", err)
			continue
		}
		logger.Info("channel snapshot", "channel", cfg.ChannelID, "pattern", cfg.URLPattern, "claims", count)
	}
}
