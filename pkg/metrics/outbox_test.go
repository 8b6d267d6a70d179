package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Inc("order_created", OutboxPublished)
	m.Inc("order_created", OutboxPublished)
	m.Inc("order_refunded", OutboxDeadLettered)
	m.ObserveBatch(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "bookstore_outbox_events_total", "outcome", OutboxPublished); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "bookstore_outbox_events_total", "event_type", "order_refunded"); err != nil {
		t.Fatalf("fetch dead lettered: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dead_lettered=1, got %f", got)
	}
	if findMetricFamily(mfs, "bookstore_outbox_batch_size") == nil {
		t.Fatalf("expected batch size histogram")
	}
}

func TestOutboxMetricsNilReceiverIsNoop(t *testing.T) {
	var m *OutboxMetrics
	m.Inc("order_created", OutboxRetried)
	m.ObserveBatch(1)
}
