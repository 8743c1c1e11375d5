// Package tiles checks that map tile providers are reachable.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/platform/metrics"
	"location-tracker-service/internal/ports"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Sample tile requested from every provider.
const (
	ProbeZ = 10
	ProbeX = 512
	ProbeY = 512
)

type Options struct {
	Timeout     time.Duration // per probe, across all attempts
	MaxAttempts int
	Backoff     time.Duration
	// Consecutive failures that open a source's breaker.
	TripAfter uint32
	// How long an open breaker rejects probes before trying again.
	CooldownPeriod time.Duration
	Client         *http.Client
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 200 * time.Millisecond
	}
	if o.TripAfter == 0 {
		o.TripAfter = 3
	}
	if o.CooldownPeriod <= 0 {
		o.CooldownPeriod = time.Minute
	}
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	return o
}

// HTTPTileProber implements ports.TileProber over HTTP, with one circuit
// breaker per source so a dead provider is not hammered.
type HTTPTileProber struct {
	session     *http.Client
	userAgent   string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	tripAfter   uint32
	cooldown    time.Duration

	mu       sync.Mutex
	breakers map[coordinate.MapSource]*gobreaker.CircuitBreaker[int64]
}

func NewHTTPTileProber(opts Options) *HTTPTileProber {
	opts = opts.withDefaults()
	return &HTTPTileProber{
		session:     opts.Client,
		userAgent:   "location-tracker-service/1.0",
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		tripAfter:   opts.TripAfter,
		cooldown:    opts.CooldownPeriod,
		breakers:    make(map[coordinate.MapSource]*gobreaker.CircuitBreaker[int64]),
	}
}

func (p *HTTPTileProber) breaker(key coordinate.MapSource) *gobreaker.CircuitBreaker[int64] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[key]; ok {
		return cb
	}

	name := "tiles-" + string(key)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     p.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= p.tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("tile breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	p.breakers[key] = cb
	return cb
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Probe fetches the sample tile of src. Failures are reported in the
// result, never as a panic or error return.
func (p *HTTPTileProber) Probe(ctx context.Context, src coordinate.TileSource) ports.ProbeResult {
	url := src.TileURL(ProbeX, ProbeY, ProbeZ)
	res := ports.ProbeResult{Source: src.Key, Name: src.Name, URL: url}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	_, err := p.breaker(src.Key).Execute(func() (int64, error) {
		return p.fetchWithRetry(ctx, url)
	})
	res.Duration = time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("circuit open for %s: %w", src.Key, err)
		}
		res.Error = err.Error()
		logging.Ctx(ctx).Warn().Str("source", string(src.Key)).Str("url", url).Err(err).Msg("tile probe failed")
	} else {
		res.Success = true
	}

	metrics.RecordTileProbe(string(src.Key), res.Success)
	return res
}
