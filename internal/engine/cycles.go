package engine

import (
	"context"
	"errors"
	"fmt"

	"match_bot/internal/model"
	"match_bot/internal/storage"
)

// RefreshProfiles updates every player's rank snapshot and records new
// matches as unnotified. Known match ids are left untouched.
func (e *Engine) RefreshProfiles(ctx context.Context) error {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return storageErr("list players", err)
	}

	return e.forEachPlayer(ctx, players, func(ctx context.Context, p model.Player) error {
		var errs []error
		if err := e.refreshProfile(ctx, p); err != nil {
			errs = append(errs, err)
		}
		if err := e.ingestMatches(ctx, p); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
}

func (e *Engine) refreshProfile(ctx context.Context, p model.Player) error {
	fresh, err := e.source.FetchProfile(ctx, p.Name, p.GroupID)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	if fresh.ID != p.ID {
		e.log.Warn("provider returned a different player id", "player", p.Name, "stored", p.ID, "fetched", fresh.ID)
	}
	fresh.ID = p.ID
	fresh.GroupID = p.GroupID
	if err := e.store.UpsertPlayer(ctx, fresh); err != nil {
		return storageErr("upsert player", err)
	}
	return nil
}

func (e *Engine) ingestMatches(ctx context.Context, p model.Player) error {
	matches, err := e.source.FetchRecentMatches(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("fetch matches: %w", err)
	}

	added := 0
	for _, m := range matches {
		m.PlayerID = p.ID
		m.Notified = false
		inserted, err := e.store.InsertMatch(ctx, &m)
		if err != nil {
			return storageErr("insert match", err)
		}
		if inserted {
			added++
		}
	}
	if added > 0 {
		e.log.Info("new matches", "player", p.Name, "count", added)
	}
	return nil
}

// NotifyMatches delivers every unnotified match and marks it notified
// whether or not delivery succeeded.
func (e *Engine) NotifyMatches(ctx context.Context) error {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return storageErr("list players", err)
	}

	var errs []error
	for _, p := range players {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := e.notifyPlayerMatches(ctx, &p); err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) notifyPlayerMatches(ctx context.Context, p *model.Player) error {
	matches, err := e.store.ListUnnotifiedMatches(ctx, p.ID)
	if err != nil {
		return storageErr("list unnotified matches", err)
	}
	if len(matches) == 0 {
		return nil
	}

	group, err := e.group(ctx, p.GroupID)
	if err != nil {
		return err
	}

	for _, m := range matches {
		e.deliver(ctx, group, p, matchEvent(p, m), m.ID)
		if err := e.store.MarkMatchNotified(ctx, m.ID); err != nil {
			return storageErr("mark match notified", err)
		}
	}
	return nil
}

// DiscoverLiveMatches records the current live game of every player.
func (e *Engine) DiscoverLiveMatches(ctx context.Context) error {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return storageErr("list players", err)
	}

	return e.forEachPlayer(ctx, players, func(ctx context.Context, p model.Player) error {
		live, err := e.source.FetchLiveMatch(ctx, p.ID, p.Name)
		if err != nil {
			return fmt.Errorf("fetch live match: %w", err)
		}
		if live == nil {
			return nil
		}
		live.PlayerID = p.ID
		live.Notified = false
		inserted, err := e.store.InsertLiveMatch(ctx, live)
		if err != nil {
			return storageErr("insert live match", err)
		}
		if inserted {
			e.log.Info("live match found", "player", p.Name, "game_id", live.ID)
		}
		return nil
	})
}

// NotifyLiveMatches delivers every unnotified live match and marks it
// notified whether or not delivery succeeded.
func (e *Engine) NotifyLiveMatches(ctx context.Context) error {
	games, err := e.store.ListUnnotifiedLiveMatches(ctx)
	if err != nil {
		return storageErr("list unnotified live matches", err)
	}

	var errs []error
	for _, l := range games {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := e.notifyLiveMatch(ctx, l); err != nil {
			errs = append(errs, fmt.Errorf("live match %s: %w", l.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) notifyLiveMatch(ctx context.Context, l model.LiveMatch) error {
	p, err := e.store.GetPlayer(ctx, l.PlayerID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.log.Warn("live match without player", "game_id", l.ID, "player_id", l.PlayerID)
	case err != nil:
		return storageErr("get player", err)
	default:
		group, err := e.group(ctx, p.GroupID)
		if err != nil {
			return err
		}
		e.deliver(ctx, group, p, liveEvent(p, l), l.ID)
	}

	if err := e.store.MarkLiveMatchNotified(ctx, l.ID); err != nil {
		return storageErr("mark live match notified", err)
	}
	return nil
}

// group returns the owning group, or nil when it was never reconciled.
func (e *Engine) group(ctx context.Context, id int64) (*model.Group, error) {
	g, err := e.store.GetGroup(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get group", err)
	}
	return g, nil
}

// deliver sends ev when the group has a destination. Failures are recorded,
// never returned: the caller marks the record notified either way.
func (e *Engine) deliver(ctx context.Context, group *model.Group, p *model.Player, ev Event, recordID string) {
	kind := string(ev.Kind)
	if !group.HasDestination() {
		e.log.Info("no destination, notification suppressed", "kind", kind, "player", p.Name, "record", recordID, "group_id", p.GroupID)
		e.diag(ctx, model.SeverityInfo, "%s notification for %s suppressed: group %d has no destination", kind, p.Name, p.GroupID)
		e.metrics.IncNotification(kind, "suppressed")
		return
	}

	if err := e.sink.Deliver(ctx, *group.ChannelID, ev); err != nil {
		err = fmt.Errorf("%w: %w", ErrDelivery, err)
		e.log.Error("deliver notification", "kind", kind, "player", p.Name, "record", recordID, "channel_id", *group.ChannelID, "error", err)
		e.diag(ctx, model.SeverityError, "%s notification for %s: %v", kind, p.Name, err)
		e.metrics.IncNotification(kind, "failed")
		return
	}
	e.metrics.IncNotification(kind, "delivered")
}
