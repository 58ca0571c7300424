package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	overrides "github.com/goliatone/go-overrides"
)

func TestCollectorRecordsInitAndResolution(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector("test", reg)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	c.ObserveInit("automod", 3, 2*time.Millisecond, nil)
	c.ObserveInit("automod", 0, time.Millisecond, errors.New("bad"))
	c.ObserveResolution("automod", 2, time.Microsecond, nil)
	c.ObserveResolution("automod", 1, time.Microsecond, nil)
	c.ObserveResolution("automod", 0, time.Microsecond, errors.New("criterion"))

	if got := testutil.ToFloat64(c.overrideCount.WithLabelValues("automod")); got != 3 {
		t.Fatalf("expected override gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(c.overridesApplied.WithLabelValues("automod")); got != 3 {
		t.Fatalf("expected 3 applied overrides, got %v", got)
	}
	if got := testutil.CollectAndCount(c.initDuration); got != 2 {
		t.Fatalf("expected ok and error init series, got %d", got)
	}
	if got := testutil.CollectAndCount(c.resolutionDuration); got != 2 {
		t.Fatalf("expected ok and error resolution series, got %d", got)
	}
}

func TestNewCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector("", reg)
	if err != nil {
		t.Fatalf("first collector: %v", err)
	}
	second, err := NewCollector("", reg)
	if err != nil {
		t.Fatalf("second collector: %v", err)
	}
	if first.overridesApplied != second.overridesApplied {
		t.Fatalf("expected registered counter to be reused")
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveInit("p", 1, time.Millisecond, nil)
	c.ObserveResolution("p", 1, time.Millisecond, nil)
}

func TestCollectorAsManagerObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := MustNewCollector("manager", reg)

	manager := overrides.NewManager("slowmode", overrides.PluginOptions{
		Config: overrides.ConfigTree{"limit": 5},
		Overrides: []overrides.Override{{
			Criteria: overrides.Criteria{Channel: overrides.IDList{"C7"}},
			Config:   overrides.ConfigTree{"limit": 10},
		}},
	}, nil, overrides.WithObserver(c))

	ctx := context.Background()
	if err := manager.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := manager.MatchingConfig(ctx, overrides.ResolutionRequest{ChannelID: "C7"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := testutil.ToFloat64(c.overrideCount.WithLabelValues("slowmode")); got != 1 {
		t.Fatalf("expected one override recorded, got %v", got)
	}
	if got := testutil.ToFloat64(c.overridesApplied.WithLabelValues("slowmode")); got != 1 {
		t.Fatalf("expected one applied override, got %v", got)
	}
}
