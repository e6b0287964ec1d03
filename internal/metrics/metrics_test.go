package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/noriskclient/launcherd/internal/metrics"
)

func TestLaunchLifecycleMetrics(t *testing.T) {
	active := testutil.ToFloat64(metrics.ActiveLaunches)
	started := testutil.ToFloat64(metrics.LaunchesStartedTotal)
	crashed := testutil.ToFloat64(metrics.LaunchesFinishedTotal.WithLabelValues(metrics.OutcomeCrashed))

	metrics.RecordLaunchStarted()
	if got := testutil.ToFloat64(metrics.ActiveLaunches); got != active+1 {
		t.Fatalf("active launches = %v, want %v", got, active+1)
	}

	metrics.RecordLaunchFinished(metrics.OutcomeCrashed, 3)
	if got := testutil.ToFloat64(metrics.ActiveLaunches); got != active {
		t.Errorf("active launches = %v, want %v", got, active)
	}
	if got := testutil.ToFloat64(metrics.LaunchesStartedTotal); got != started+1 {
		t.Errorf("started = %v, want %v", got, started+1)
	}
	if got := testutil.ToFloat64(metrics.LaunchesFinishedTotal.WithLabelValues(metrics.OutcomeCrashed)); got != crashed+1 {
		t.Errorf("crashed = %v, want %v", got, crashed+1)
	}
}

func TestRecordEventDropped_EmptyType(t *testing.T) {
	before := testutil.ToFloat64(metrics.EventsDroppedTotal.WithLabelValues("unknown"))
	metrics.RecordEventDropped("")
	if got := testutil.ToFloat64(metrics.EventsDroppedTotal.WithLabelValues("unknown")); got != before+1 {
		t.Errorf("dropped = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesLauncherMetrics(t *testing.T) {
	metrics.RecordEventPublished("launching_minecraft")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `launcher_events_published_total{event_type="launching_minecraft"}`) {
		t.Error("expected published events counter in scrape output")
	}
}
