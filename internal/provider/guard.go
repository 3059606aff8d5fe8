package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"match_bot/internal/metrics"
	"match_bot/internal/model"
)

// Guard wraps a DataSource with a per-call timeout and a circuit breaker.
// Breaker rejections surface as ErrUpstream so callers keep a single taxonomy.
type Guard struct {
	next    DataSource
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	metrics *metrics.Metrics
}

// GuardConfig configures NewGuard.
type GuardConfig struct {
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// NewGuard wraps next. Zero config fields fall back to defaults.
func NewGuard(next DataSource, cfg GuardConfig, m *metrics.Metrics, log *slog.Logger) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 2 * time.Minute
	}

	name := next.Name()
	m.SetBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "source", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, stateToFloat(to))
		},
		// An unknown player is a valid answer, not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &Guard{next: next, cb: cb, timeout: cfg.Timeout, metrics: m}
}

// Name returns the wrapped provider's name.
func (g *Guard) Name() string { return g.next.Name() }

// State returns the current breaker state.
func (g *Guard) State() gobreaker.State { return g.cb.State() }

func (g *Guard) execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.cb.Execute(func() (any, error) { return fn(ctx) })

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = fmt.Errorf("%s %s: %w: %w", g.Name(), op, ErrUpstream, err)
	default:
		result = "error"
		err = Upstream(g.Name()+" "+op, err)
	}
	g.metrics.IncSourceCall(g.Name(), op, result)
	return res, err
}

// FetchProfile calls the wrapped provider.
func (g *Guard) FetchProfile(ctx context.Context, name string, groupID int64) (*model.Player, error) {
	res, err := g.execute(ctx, "profile", func(ctx context.Context) (any, error) {
		return g.next.FetchProfile(ctx, name, groupID)
	})
	if err != nil {
		return nil, err
	}
	return castResult[*model.Player](res)
}

// FetchRecentMatches calls the wrapped provider.
func (g *Guard) FetchRecentMatches(ctx context.Context, playerID string) ([]model.Match, error) {
	res, err := g.execute(ctx, "matches", func(ctx context.Context) (any, error) {
		return g.next.FetchRecentMatches(ctx, playerID)
	})
	if err != nil {
		return nil, err
	}
	return castResult[[]model.Match](res)
}

// FetchLiveMatch calls the wrapped provider.
func (g *Guard) FetchLiveMatch(ctx context.Context, playerID, playerName string) (*model.LiveMatch, error) {
	res, err := g.execute(ctx, "live", func(ctx context.Context) (any, error) {
		return g.next.FetchLiveMatch(ctx, playerID, playerName)
	})
	if err != nil {
		return nil, err
	}
	return castResult[*model.LiveMatch](res)
}

func castResult[T any](res any) (T, error) {
	typed, ok := res.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
