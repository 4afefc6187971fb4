package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/config"
)

func TestStartRunsCronWithoutInvalidationBrokers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MetadataReloadCron = "@every 10ms"

	var calls int32
	reload := func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	w := New(cfg, reload, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if atomic.LoadInt32(&calls) == 0 {
		t.Fatalf("expected at least one scheduled reload call")
	}
}

func TestStartRejectsInvalidCronSchedule(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MetadataReloadCron = "not a cron schedule"

	w := New(cfg, func(context.Context) error { return nil }, zap.NewNop())
	if err := w.Start(context.Background()); err == nil {
		t.Fatalf("expected an error for an invalid cron schedule")
	}
}
