package psu

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	mt := newMockTransport("01230056\rOK\r")
	c := newTestClient(t, mt)

	if _, err := c.Reading(context.Background()); err != nil {
		t.Fatalf("Reading error: %v", err)
	}

	col := NewCollector(c, "bench")

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(col); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// three error kinds share one family
	if n := testutil.CollectAndCount(col); n != 11 {
		t.Fatalf("expected 11 series, got %d", n)
	}
	if n := testutil.CollectAndCount(col, "bench_psu_errors_total"); n != 3 {
		t.Fatalf("expected 3 error series, got %d", n)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "bench_psu_answered_total" {
			continue
		}
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
			t.Fatalf("expected 1 answered exchange, got %v", got)
		}
		return
	}
	t.Fatal("bench_psu_answered_total not gathered")
}
