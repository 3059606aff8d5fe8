// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"match_bot/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
//
// Every method is a single atomic statement except DeletePlayer, which
// cascades inside one transaction.
type Storage interface {
	UpsertGroup(ctx context.Context, g *model.Group) error
	GetGroup(ctx context.Context, id int64) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)

	UpsertPlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]model.Player, error)
	ListPlayersByGroup(ctx context.Context, groupID int64) ([]model.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	// InsertMatch stores m unless a match with the same id exists. It reports
	// whether a row was written.
	InsertMatch(ctx context.Context, m *model.Match) (bool, error)
	UpsertMatch(ctx context.Context, m *model.Match) error
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	ListMatchesByPlayer(ctx context.Context, playerID string) ([]model.Match, error)
	ListUnnotifiedMatches(ctx context.Context, playerID string) ([]model.Match, error)
	MarkMatchNotified(ctx context.Context, id string) error
	MarkAllMatchesNotified(ctx context.Context) (int64, error)

	InsertLiveMatch(ctx context.Context, l *model.LiveMatch) (bool, error)
	UpsertLiveMatch(ctx context.Context, l *model.LiveMatch) error
	GetLiveMatch(ctx context.Context, id string) (*model.LiveMatch, error)
	ListUnnotifiedLiveMatches(ctx context.Context) ([]model.LiveMatch, error)
	MarkLiveMatchNotified(ctx context.Context, id string) error

	AppendLog(ctx context.Context, e *model.LogEntry) error
	ListLogs(ctx context.Context, limit int) ([]model.LogEntry, error)

	Close() error
}
