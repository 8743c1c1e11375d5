package services

import (
	"context"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/ports"
	"sync"
)

type indexedProbe struct {
	idx int
	res ports.ProbeResult
}

// TileService reports on the reachability of the tile catalog.
type TileService struct {
	prober      ports.TileProber
	sources     []coordinate.TileSource
	concurrency int
}

// NewTileService builds the service over the tile catalog. keys holds API
// keys per provider and may be nil.
func NewTileService(prober ports.TileProber, concurrency int, keys map[coordinate.MapSource]string) *TileService {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &TileService{prober: prober, sources: coordinate.SourcesWithKeys(keys), concurrency: concurrency}
}

func (s *TileService) Sources() []coordinate.TileSource {
	out := make([]coordinate.TileSource, len(s.sources))
	copy(out, s.sources)
	return out
}

// ProbeAll probes every source concurrently and returns results in catalog order.
func (s *TileService) ProbeAll(ctx context.Context) []ports.ProbeResult {
	sem := make(chan struct{}, s.concurrency)
	resultsCh := make(chan indexedProbe, len(s.sources))
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		go func(idx int, src coordinate.TileSource) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			resultsCh <- indexedProbe{idx: idx, res: s.prober.Probe(ctx, src)}
		}(i, src)
	}

	wg.Wait()
	close(resultsCh)

	out := make([]ports.ProbeResult, len(s.sources))
	for r := range resultsCh {
		out[r.idx] = r.res
	}
	return out
}
