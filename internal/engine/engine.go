// Package engine keeps the tracked roster in sync with the data source and
// emits each new match or live game exactly once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"match_bot/internal/metrics"
	"match_bot/internal/model"
	"match_bot/internal/provider"
	"match_bot/internal/storage"
)

var (
	// ErrDelivery wraps a failure of the notification sink.
	ErrDelivery = errors.New("delivery failed")
	// ErrStorage wraps any persistence failure surfaced to a command caller.
	ErrStorage = errors.New("storage failure")
)

// EventKind distinguishes the notifications the engine emits.
type EventKind string

// Supported event kinds.
const (
	EventMatchResult EventKind = "match"
	EventLiveMatch   EventKind = "live"
)

// Event is the payload handed to a Sink.
type Event struct {
	Kind          EventKind
	PlayerName    string
	PlayerIconURL string
	// Rank snapshot of the player at delivery time.
	Tier     *string
	Division *string
	Points   *int64

	Outcome       model.Outcome
	PointsDelta   *int64
	PromotionText *string
	Champion      string
	Role          string
	Mode          string
	Kills         int64
	Deaths        int64
	Assists       int64
	StartedAt     time.Time
	URL           string
}

// Sink delivers an event to a destination channel.
type Sink interface {
	Deliver(ctx context.Context, destination int64, ev Event) error
}

// Engine owns the store and the data source. It keeps no in-memory state
// between calls; every cycle re-reads the store.
type Engine struct {
	store       storage.Storage
	source      provider.DataSource
	sink        Sink
	metrics     *metrics.Metrics
	log         *slog.Logger
	concurrency int
}

// New creates an Engine. concurrency caps the per-player fan-out of
// reconciliation and fetch cycles.
func New(store storage.Storage, source provider.DataSource, sink Sink, m *metrics.Metrics, log *slog.Logger, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		store:       store,
		source:      source,
		sink:        sink,
		metrics:     m,
		log:         log,
		concurrency: concurrency,
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// forEachPlayer runs fn for every player with bounded concurrency. A failing
// player never cancels the others; all failures are joined.
func (e *Engine) forEachPlayer(ctx context.Context, players []model.Player, fn func(context.Context, model.Player) error) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(e.concurrency)

	for _, p := range players {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := fn(ctx, p); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("player %s: %w", p.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// storeBaseline records matches as already notified.
func (e *Engine) storeBaseline(ctx context.Context, playerID string, matches []model.Match) error {
	for _, m := range matches {
		m.PlayerID = playerID
		m.Notified = true
		if err := e.store.UpsertMatch(ctx, &m); err != nil {
			return err
		}
	}
	return nil
}

// diag appends a diagnostic entry. Failures are only logged.
func (e *Engine) diag(ctx context.Context, severity model.Severity, format string, args ...any) {
	entry := model.LogEntry{Message: fmt.Sprintf(format, args...), Severity: severity}
	if err := e.store.AppendLog(ctx, &entry); err != nil {
		e.log.Error("append diagnostic log", "message", entry.Message, "error", err)
	}
}

func matchEvent(p *model.Player, m model.Match) Event {
	return Event{
		Kind:          EventMatchResult,
		PlayerName:    p.Name,
		PlayerIconURL: p.IconURL,
		Tier:          p.Tier,
		Division:      p.Division,
		Points:        p.Points,
		Outcome:       m.Outcome,
		PointsDelta:   m.PointsDelta,
		PromotionText: m.PromotionText,
		Champion:      m.Champion,
		Mode:          m.Mode,
		Kills:         m.Kills,
		Deaths:        m.Deaths,
		Assists:       m.Assists,
		StartedAt:     m.Started(),
		URL:           m.URL,
	}
}

func liveEvent(p *model.Player, l model.LiveMatch) Event {
	return Event{
		Kind:          EventLiveMatch,
		PlayerName:    p.Name,
		PlayerIconURL: p.IconURL,
		Tier:          p.Tier,
		Division:      p.Division,
		Points:        p.Points,
		Champion:      l.Champion,
		Role:          l.Role,
		Mode:          l.Mode,
		StartedAt:     l.Started(),
		URL:           l.URL,
	}
}
