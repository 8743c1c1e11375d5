package ports

import (
	"context"
	"location-tracker-service/internal/coordinate"
	"time"
)

// Outcome of fetching one sample tile from a provider.
type ProbeResult struct {
	Source   coordinate.MapSource
	Name     string
	URL      string
	Success  bool
	Error    string
	Duration time.Duration
}

// Contract for checking whether a tile provider is reachable.
type TileProber interface {
	Probe(ctx context.Context, source coordinate.TileSource) ProbeResult
}
