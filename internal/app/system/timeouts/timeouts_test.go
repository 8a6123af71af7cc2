package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Fetch: 3 * time.Second})

	if Fetch() != 3*time.Second {
		t.Errorf("Fetch() = %v, want 3s", Fetch())
	}
	if Ping() != DefaultPing {
		t.Errorf("zero field changed Ping to %v", Ping())
	}

	Reset()
	if got := Current(); got != (Config{DefaultPing, DefaultFetch, DefaultRender, DefaultExport}) {
		t.Errorf("Current() after Reset = %+v", got)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "fetch Alcance")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "fetch Alcance" {
		t.Errorf("operation = %v", op)
	}

	_, cancel = WithTimeout(context.Background(), time.Hour, log, "quick")
	cancel()
	if logs.Len() != 1 {
		t.Error("cancel before the deadline must not log")
	}
}
