package engine

import (
	"context"
	"errors"
	"fmt"

	"match_bot/internal/model"
	"match_bot/internal/storage"
)

// AddPlayer resolves name at the data source and starts tracking it for the
// group. The player's current match history is stored as already notified so
// only matches discovered later produce notifications.
//
// Errors wrap provider.ErrNotFound, provider.ErrUpstream or ErrStorage. A
// failure to load the history after the player was stored is logged and does
// not fail the call.
func (e *Engine) AddPlayer(ctx context.Context, name string, groupID int64) (*model.Player, error) {
	p, err := e.source.FetchProfile(ctx, name, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %q: %w", name, err)
	}
	p.GroupID = groupID

	if err := e.store.UpsertPlayer(ctx, p); err != nil {
		return nil, storageErr("upsert player", err)
	}

	matches, err := e.source.FetchRecentMatches(ctx, p.ID)
	if err != nil {
		e.log.Warn("load match baseline", "player", p.Name, "error", err)
		e.diag(ctx, model.SeverityError, "add player %s: load match baseline: %v", p.Name, err)
		return p, nil
	}
	if err := e.storeBaseline(ctx, p.ID, matches); err != nil {
		e.log.Warn("store match baseline", "player", p.Name, "error", err)
		e.diag(ctx, model.SeverityError, "add player %s: store match baseline: %v", p.Name, err)
		return p, nil
	}

	e.log.Info("player added", "player", p.Name, "id", p.ID, "group_id", groupID, "baseline", len(matches))
	return p, nil
}

// RemovePlayer stops tracking the player with the given name and deletes its
// match records. It wraps storage.ErrNotFound when no such player is tracked.
func (e *Engine) RemovePlayer(ctx context.Context, name string) (*model.Player, error) {
	p, err := e.store.GetPlayerByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("remove player %q: %w", name, err)
		}
		return nil, storageErr("get player", err)
	}

	if err := e.store.DeletePlayer(ctx, p.ID); err != nil {
		return nil, storageErr("delete player", err)
	}

	e.log.Info("player removed", "player", p.Name, "id", p.ID)
	return p, nil
}

// ReconcileGroup creates or updates a group. A nil channel leaves the stored
// destination untouched.
func (e *Engine) ReconcileGroup(ctx context.Context, id int64, channel *int64, name string) error {
	g := model.Group{ID: id, ChannelID: channel, Name: name}
	if err := e.store.UpsertGroup(ctx, &g); err != nil {
		return storageErr("upsert group", err)
	}
	return nil
}

// StartupReconciliation marks every currently visible match as notified. It
// must complete before the workers start so a restart never replays history.
func (e *Engine) StartupReconciliation(ctx context.Context) error {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return storageErr("list players", err)
	}

	fetchErr := e.forEachPlayer(ctx, players, func(ctx context.Context, p model.Player) error {
		matches, err := e.source.FetchRecentMatches(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := e.storeBaseline(ctx, p.ID, matches); err != nil {
			return storageErr("store baseline", err)
		}
		return nil
	})

	n, err := e.store.MarkAllMatchesNotified(ctx)
	if err != nil {
		return errors.Join(fetchErr, storageErr("mark all matches notified", err))
	}

	e.log.Info("startup reconciliation finished", "players", len(players), "marked", n)
	if fetchErr != nil {
		return fmt.Errorf("startup reconciliation: %w", fetchErr)
	}
	return nil
}
