package services

import (
	"context"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/ports"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubProber struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *stubProber) Probe(ctx context.Context, src coordinate.TileSource) ports.ProbeResult {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}

	// Vary completion order.
	time.Sleep(time.Duration(10-len(src.Key)) * time.Millisecond)
	return ports.ProbeResult{Source: src.Key, Name: src.Name, Success: src.Key != coordinate.Baidu}
}

func TestProbeAllKeepsCatalogOrder(t *testing.T) {
	p := &stubProber{}
	svc := NewTileService(p, 2, nil)

	results := svc.ProbeAll(context.Background())
	sources := coordinate.Sources()

	if len(results) != len(sources) {
		t.Fatalf("got %d results, want %d", len(results), len(sources))
	}
	for i, src := range sources {
		if results[i].Source != src.Key {
			t.Errorf("results[%d].Source = %q, want %q", i, results[i].Source, src.Key)
		}
	}
	if results[1].Success {
		t.Errorf("baidu result = %+v, want failure passed through", results[1])
	}
	if peak := p.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

type recordingProber struct {
	mu   sync.Mutex
	urls map[coordinate.MapSource]string
}

func (p *recordingProber) Probe(_ context.Context, src coordinate.TileSource) ports.ProbeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls[src.Key] = src.TileURL(1, 2, 3)
	return ports.ProbeResult{Source: src.Key, Success: true}
}

func TestTiandituKeyApplied(t *testing.T) {
	p := &recordingProber{urls: map[coordinate.MapSource]string{}}
	svc := NewTileService(p, 1, map[coordinate.MapSource]string{coordinate.Tianditu: "abc123"})

	svc.ProbeAll(context.Background())

	if got := p.urls[coordinate.Tianditu]; !strings.HasSuffix(got, "&TILECOL=1&tk=abc123") {
		t.Fatalf("tianditu probe url = %q, want tk=abc123 appended", got)
	}
	for _, src := range svc.Sources() {
		if src.Key == coordinate.Tianditu && !strings.HasSuffix(src.URLTemplate, "&tk=abc123") {
			t.Fatalf("tianditu template = %q", src.URLTemplate)
		}
		if src.Key != coordinate.Tianditu && strings.Contains(src.URLTemplate, "tk=") {
			t.Fatalf("%s template = %q, want no key", src.Key, src.URLTemplate)
		}
	}
}
