package observability

import (
	"context"
	"testing"
	"time"
)

type countingChartHooks struct {
	NoopChartHooks
	starts int
}

func (h *countingChartHooks) OnFetchStart(context.Context, string) { h.starts++ }

func TestSetChartHooks(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingChartHooks{}
	SetChartHooks(h)
	Chart().OnFetchStart(context.Background(), "https://example.com")
	Chart().OnFetchComplete(context.Background(), "https://example.com", 3, time.Millisecond, nil)

	if h.starts != 1 {
		t.Errorf("starts = %d, want 1", h.starts)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingChartHooks{}
	SetChartHooks(h)
	SetChartHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)

	if Chart() != ChartHooks(h) {
		t.Error("SetChartHooks(nil) should keep the registered hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
}

func TestReset(t *testing.T) {
	SetChartHooks(&countingChartHooks{})
	Reset()
	if _, ok := Chart().(NoopChartHooks); !ok {
		t.Errorf("Chart() after Reset = %T, want NoopChartHooks", Chart())
	}
}
