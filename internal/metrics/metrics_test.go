package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEnumerationMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"EnumerationsTotal", EnumerationsTotal},
		{"EnumerationChunksTotal", EnumerationChunksTotal},
		{"EnumerationItemsTotal", EnumerationItemsTotal},
		{"EnumerationDuration", EnumerationDuration},
		{"OrientationReadFailures", OrientationReadFailures},
		{"EnumerationItemsSkipped", EnumerationItemsSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestRenderMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ThumbnailRendersTotal", ThumbnailRendersTotal},
		{"ThumbnailRenderDuration", ThumbnailRenderDuration},
		{"ThumbnailSubsampleFactor", ThumbnailSubsampleFactor},
		{"ImageDecodeByFormat", ImageDecodeByFormat},
		{"PhotoRetrievalsTotal", PhotoRetrievalsTotal},
		{"RenderWorkersBusy", RenderWorkersBusy},
		{"RenderMemoryUsageRatio", RenderMemoryUsageRatio},
		{"RenderMemoryPaused", RenderMemoryPaused},
		{"RenderMemoryPauses", RenderMemoryPauses},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics("test", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("test", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}

	// Pre-populated series exist at zero
	if n := testutil.CollectAndCount(EnumerationChunksTotal); n < 3 {
		t.Errorf("EnumerationChunksTotal series = %d, want at least 3", n)
	}
	if n := testutil.CollectAndCount(PhotoRetrievalsTotal); n < 3 {
		t.Errorf("PhotoRetrievalsTotal series = %d, want at least 3", n)
	}
}

type fakeStats struct {
	stats Stats
	err   error
}

func (f fakeStats) Stats(context.Context) (Stats, error) { return f.stats, f.err }

func TestCollectorCollect(t *testing.T) {
	c := NewCollector(fakeStats{stats: Stats{Items: 42, Albums: 3}}, time.Minute)
	c.collect()

	if got := testutil.ToFloat64(LibraryItems); got != 42 {
		t.Errorf("LibraryItems = %v, want 42", got)
	}
	if got := testutil.ToFloat64(LibraryAlbums); got != 3 {
		t.Errorf("LibraryAlbums = %v, want 3", got)
	}

	// A failing provider leaves the gauges untouched
	c = NewCollector(fakeStats{err: errors.New("boom")}, time.Minute)
	c.collect()
	if got := testutil.ToFloat64(LibraryItems); got != 42 {
		t.Errorf("LibraryItems after failure = %v, want 42", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Minute)
	c.collect() // must not panic
}

func TestCollectorStartStop(t *testing.T) {
	c := NewCollector(fakeStats{stats: Stats{Items: 1}}, 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}
