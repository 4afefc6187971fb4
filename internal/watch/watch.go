// Package watch keeps the engine's resolved metadata fresh without a
// restart: a robfig/cron schedule re-reads the metadata document
// periodically, and a franz-go consumer on an invalidation topic triggers
// an immediate reload when an authoring tool publishes a change. Both
// deps were declared in the teacher's go.mod but unexercised by any
// teacher package; this is their home.
package watch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/config"
)

// ReloadFunc re-reads metadata, re-resolves it, and invalidates any
// cached role schemas. Supplied by cmd/engine, which owns the resolved
// state the watcher otherwise has no visibility into.
type ReloadFunc func(ctx context.Context) error

// Watcher drives ReloadFunc on a schedule and/or on an external signal.
type Watcher struct {
	cfg    config.Config
	reload ReloadFunc
	logger *zap.Logger

	cron   *cron.Cron
	client *kgo.Client
}

func New(cfg config.Config, reload ReloadFunc, logger *zap.Logger) *Watcher {
	return &Watcher{cfg: cfg, reload: reload, logger: logger}
}

// Start schedules the periodic reload and, if invalidation brokers are
// configured, begins consuming the invalidation topic in the background.
// It returns once both are running. Cancelling ctx ends only the consumer
// loop; Stop halts both the cron schedule and the consumer.
func (w *Watcher) Start(ctx context.Context) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.cfg.MetadataReloadCron, func() {
		if err := w.reload(ctx); err != nil {
			w.logger.Error("scheduled metadata reload failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("scheduling metadata reload %q: %w", w.cfg.MetadataReloadCron, err)
	}
	w.cron.Start()

	if len(w.cfg.InvalidationBrokers) == 0 {
		return nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(w.cfg.InvalidationBrokers...),
		kgo.ConsumerGroup(w.cfg.InvalidationGroupID),
		kgo.ConsumeTopics(w.cfg.InvalidationTopic),
	)
	if err != nil {
		w.cron.Stop()
		return fmt.Errorf("connecting invalidation consumer: %w", err)
	}
	w.client = client

	go w.consumeLoop(ctx)
	return nil
}

func (w *Watcher) consumeLoop(ctx context.Context) {
	for {
		fetches := w.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			w.logger.Error("invalidation consumer fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		sawRecord := false
		fetches.EachRecord(func(*kgo.Record) { sawRecord = true })
		if sawRecord {
			if err := w.reload(ctx); err != nil {
				w.logger.Error("invalidation-triggered metadata reload failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
	if w.client != nil {
		w.client.Close()
	}
}
