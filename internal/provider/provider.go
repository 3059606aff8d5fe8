// Package provider defines the data source capability the sync engine polls,
// its error taxonomy, and a guard adding timeouts and a circuit breaker.
package provider

import (
	"context"
	"errors"
	"fmt"

	"match_bot/internal/model"
)

var (
	// ErrNotFound means the provider has no player under the requested name.
	ErrNotFound = errors.New("player not found")
	// ErrUpstream covers network, status and parse failures.
	ErrUpstream = errors.New("upstream failure")
)

// DataSource fetches player state from one external provider.
type DataSource interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// FetchProfile resolves a human-entered name to a player snapshot.
	FetchProfile(ctx context.Context, name string, groupID int64) (*model.Player, error)
	// FetchRecentMatches returns the provider's recent match window. Callers
	// treat it as a set keyed by match id.
	FetchRecentMatches(ctx context.Context, playerID string) ([]model.Match, error)
	// FetchLiveMatch returns nil without error when the player is not in a game.
	FetchLiveMatch(ctx context.Context, playerID, playerName string) (*model.LiveMatch, error)
}

// Getter downloads a URL. *fetcher.Fetcher implements it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Upstream wraps err with ErrUpstream unless it already carries a taxonomy error.
func Upstream(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// ParseError reports a page that no longer matches the expected structure.
func ParseError(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrUpstream, fmt.Sprintf(format, args...))
}
