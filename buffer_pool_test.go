package psu

import "testing"

func TestBufferPool(t *testing.T) {
	bp := NewBufferPool(16)

	buf := bp.Get()
	if len(buf) != 0 || cap(buf) != 16 {
		t.Fatalf("expected empty buffer with cap 16, got len %d cap %d", len(buf), cap(buf))
	}

	buf = append(buf, "OK\r"...)
	bp.Put(buf)

	// wrong capacity is not pooled
	bp.Put(make([]byte, 0, 8))

	stats := bp.Stats()
	if stats.Gets != 1 || stats.Puts != 1 || stats.Creates != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.HitRatio() != 0 {
		t.Fatalf("expected zero hit ratio, got %v", stats.HitRatio())
	}

	again := bp.Get()
	if len(again) != 0 {
		t.Fatalf("expected pooled buffer to be empty, got %q", again)
	}
}

func BenchmarkBufferPool(b *testing.B) {
	bp := NewBufferPool(MaxLineSize)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := bp.Get()
		buf = append(buf, "01230056\r"...)
		bp.Put(buf)
	}
}
