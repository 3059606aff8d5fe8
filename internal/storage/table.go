package storage

import (
	"context"
	"fmt"
	"strings"
)

// conflictRule decides what upsertByKey does with a column when the key
// already exists.
type conflictRule int

const (
	overwrite conflictRule = iota
	// keep retains the stored value.
	keep
	// raise stores MAX(old, new). Used for flags that only go 0 -> 1.
	raise
	// fill stores COALESCE(new, old), so a NULL write leaves the stored value.
	fill
)

type column struct {
	name string
	rule conflictRule
}

// table describes one entity for the generic write primitives. The first
// column is the key.
type table struct {
	name    string
	columns []column
}

func (t table) key() string { return t.columns[0].name }

func (t table) names() string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

func (t table) placeholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
}

func (t table) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO NOTHING",
		t.name, t.names(), t.placeholders(), t.key())
}

func (t table) upsertSQL() string {
	var sets []string
	for _, c := range t.columns[1:] {
		switch c.rule {
		case keep:
			continue
		case raise:
			sets = append(sets, fmt.Sprintf("%[1]s = MAX(%[2]s.%[1]s, excluded.%[1]s)", c.name, t.name))
		case fill:
			sets = append(sets, fmt.Sprintf("%[1]s = COALESCE(excluded.%[1]s, %[2]s.%[1]s)", c.name, t.name))
		default:
			sets = append(sets, fmt.Sprintf("%[1]s = excluded.%[1]s", c.name))
		}
	}
	if len(sets) == 0 {
		return t.insertSQL()
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		t.name, t.names(), t.placeholders(), t.key(), strings.Join(sets, ", "))
}

var (
	groupsTable = table{
		name: "chat_groups",
		columns: []column{
			{name: "id"},
			{name: "channel_id", rule: fill},
			{name: "name"},
			{name: "created_at", rule: keep},
			{name: "updated_at"},
		},
	}
	playersTable = table{
		name: "players",
		columns: []column{
			{name: "id"},
			{name: "name"},
			{name: "group_id"},
			{name: "queue_type"},
			{name: "tier"},
			{name: "division"},
			{name: "points"},
			{name: "icon_url"},
			{name: "created_at", rule: keep},
			{name: "updated_at"},
		},
	}
	matchesTable = table{
		name: "matches",
		columns: []column{
			{name: "id"},
			{name: "player_id"},
			{name: "started_at"},
			{name: "outcome"},
			{name: "kills"},
			{name: "deaths"},
			{name: "assists"},
			{name: "champion"},
			{name: "mode"},
			{name: "points_delta"},
			{name: "promotion_text"},
			{name: "url"},
			{name: "notified", rule: raise},
			{name: "created_at", rule: keep},
		},
	}
	liveMatchesTable = table{
		name: "live_matches",
		columns: []column{
			{name: "id"},
			{name: "player_id"},
			{name: "started_at"},
			{name: "champion"},
			{name: "role"},
			{name: "mode"},
			{name: "url"},
			{name: "notified", rule: raise},
			{name: "created_at", rule: keep},
		},
	}
)

// insertIfAbsent writes values unless the key exists and reports whether a
// row was inserted. values must follow the order of t.columns.
func (s *SQLite) insertIfAbsent(ctx context.Context, t table, values ...any) (bool, error) {
	if len(values) != len(t.columns) {
		return false, fmt.Errorf("insert %s: got %d values for %d columns", t.name, len(values), len(t.columns))
	}
	res, err := s.db.ExecContext(ctx, t.insertSQL(), values...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// upsertByKey writes values, resolving a key conflict per column rule.
func (s *SQLite) upsertByKey(ctx context.Context, t table, values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("upsert %s: got %d values for %d columns", t.name, len(values), len(t.columns))
	}
	if _, err := s.db.ExecContext(ctx, t.upsertSQL(), values...); err != nil {
		return fmt.Errorf("upsert %s: %w", t.name, err)
	}
	return nil
}
