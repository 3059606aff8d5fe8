package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"match_bot/internal/model"
	"match_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// UpsertGroup creates the group or updates its name. A nil ChannelID keeps
// the stored destination.
func (s *SQLite) UpsertGroup(ctx context.Context, g *model.Group) error {
	ts := now()
	return s.upsertByKey(ctx, groupsTable, g.ID, nullable(g.ChannelID), g.Name, ts, ts)
}

// GetGroup returns a single group by its ID.
func (s *SQLite) GetGroup(ctx context.Context, id int64) (*model.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, name, created_at, updated_at FROM chat_groups WHERE id = ?`, id,
	)
	return scanGroup(row)
}

// ListGroups returns every known group.
func (s *SQLite) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, name, created_at, updated_at FROM chat_groups ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// UpsertPlayer creates the player or refreshes its profile snapshot.
func (s *SQLite) UpsertPlayer(ctx context.Context, p *model.Player) error {
	ts := now()
	return s.upsertByKey(ctx, playersTable,
		p.ID, p.Name, p.GroupID, nullable(p.QueueType), nullable(p.Tier), nullable(p.Division),
		nullable(p.Points), p.IconURL, ts, ts,
	)
}

const playerColumns = `id, name, group_id, queue_type, tier, division, points, icon_url, created_at, updated_at`

// GetPlayer returns a single player by its provider id.
func (s *SQLite) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

// GetPlayerByName returns the player with the given display name, ignoring case.
func (s *SQLite) GetPlayerByName(ctx context.Context, name string) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE name = ? COLLATE NOCASE ORDER BY created_at LIMIT 1`, name,
	)
	return scanPlayer(row)
}

// ListPlayers returns every tracked player.
func (s *SQLite) ListPlayers(ctx context.Context) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanPlayers(rows)
}

// ListPlayersByGroup returns the players owned by the given group.
func (s *SQLite) ListPlayersByGroup(ctx context.Context, groupID int64) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE group_id = ? ORDER BY name`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanPlayers(rows)
}

// DeletePlayer removes a player and its match and live match records.
func (s *SQLite) DeletePlayer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE player_id = ?`, id); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM live_matches WHERE player_id = ?`, id); err != nil {
		return fmt.Errorf("delete live_matches: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete player %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func matchValues(m *model.Match) []any {
	return []any{
		m.ID, m.PlayerID, m.StartedAt, string(m.Outcome), m.Kills, m.Deaths, m.Assists,
		m.Champion, m.Mode, nullable(m.PointsDelta), nullable(m.PromotionText), m.URL, boolToInt(m.Notified), now(),
	}
}

// InsertMatch stores m unless its id is already known.
func (s *SQLite) InsertMatch(ctx context.Context, m *model.Match) (bool, error) {
	return s.insertIfAbsent(ctx, matchesTable, matchValues(m)...)
}

// UpsertMatch stores m, overwriting result fields. The notified flag is never
// cleared.
func (s *SQLite) UpsertMatch(ctx context.Context, m *model.Match) error {
	return s.upsertByKey(ctx, matchesTable, matchValues(m)...)
}

const matchColumns = `id, player_id, started_at, outcome, kills, deaths, assists,
	champion, mode, points_delta, promotion_text, url, notified`

// GetMatch returns a single match by its id.
func (s *SQLite) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	return scanMatch(row)
}

// ListMatchesByPlayer returns every stored match of a player, oldest first.
func (s *SQLite) ListMatchesByPlayer(ctx context.Context, playerID string) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE player_id = ? ORDER BY started_at, id`, playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMatches(rows)
}

// ListUnnotifiedMatches returns the matches of a player still awaiting notification.
func (s *SQLite) ListUnnotifiedMatches(ctx context.Context, playerID string) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE player_id = ? AND notified = 0 ORDER BY started_at, id`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnotified matches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMatches(rows)
}

// MarkMatchNotified sets the notified flag of a match.
func (s *SQLite) MarkMatchNotified(ctx context.Context, id string) error {
	return s.markNotified(ctx, "matches", id)
}

// MarkAllMatchesNotified sets the notified flag on every match and returns
// how many rows changed.
func (s *SQLite) MarkAllMatchesNotified(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE matches SET notified = 1 WHERE notified = 0`)
	if err != nil {
		return 0, fmt.Errorf("mark all matches notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func liveMatchValues(l *model.LiveMatch) []any {
	return []any{
		l.ID, l.PlayerID, l.StartedAt, l.Champion, l.Role, l.Mode, l.URL, boolToInt(l.Notified), now(),
	}
}

// InsertLiveMatch stores l unless its game id is already known.
func (s *SQLite) InsertLiveMatch(ctx context.Context, l *model.LiveMatch) (bool, error) {
	return s.insertIfAbsent(ctx, liveMatchesTable, liveMatchValues(l)...)
}

// UpsertLiveMatch stores l, overwriting its fields. The notified flag is never
// cleared.
func (s *SQLite) UpsertLiveMatch(ctx context.Context, l *model.LiveMatch) error {
	return s.upsertByKey(ctx, liveMatchesTable, liveMatchValues(l)...)
}

const liveMatchColumns = `id, player_id, started_at, champion, role, mode, url, notified`

// GetLiveMatch returns a single live match by its game id.
func (s *SQLite) GetLiveMatch(ctx context.Context, id string) (*model.LiveMatch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+liveMatchColumns+` FROM live_matches WHERE id = ?`, id)
	return scanLiveMatch(row)
}

// ListUnnotifiedLiveMatches returns live matches still awaiting notification.
func (s *SQLite) ListUnnotifiedLiveMatches(ctx context.Context) ([]model.LiveMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+liveMatchColumns+` FROM live_matches WHERE notified = 0 ORDER BY started_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnotified live matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.LiveMatch
	for rows.Next() {
		l, err := scanLiveMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// MarkLiveMatchNotified sets the notified flag of a live match.
func (s *SQLite) MarkLiveMatchNotified(ctx context.Context, id string) error {
	return s.markNotified(ctx, "live_matches", id)
}

func (s *SQLite) markNotified(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark %s notified: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark %s %s notified: %w", table, id, ErrNotFound)
	}
	return nil
}

// AppendLog inserts a diagnostic entry and populates its ID and CreatedAt.
func (s *SQLite) AppendLog(ctx context.Context, e *model.LogEntry) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (message, severity, created_at) VALUES (?, ?, ?)`,
		e.Message, string(e.Severity), ts,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	e.CreatedAt, _ = time.Parse(timeLayout, ts)
	return nil
}

// ListLogs returns up to limit diagnostic entries, newest first.
func (s *SQLite) ListLogs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, severity, created_at FROM logs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var severity, created string
		if err := rows.Scan(&e.ID, &e.Message, &severity, &created); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.Severity = model.Severity(severity)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullable turns an optional field into a driver value, nil meaning NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

func scanGroup(row scannable) (*model.Group, error) {
	var g model.Group
	var channel sql.NullInt64
	var created, updated string
	if err := row.Scan(&g.ID, &channel, &g.Name, &created, &updated); err != nil {
		return nil, notFound(err, "group")
	}
	if channel.Valid {
		v := channel.Int64
		g.ChannelID = &v
	}
	g.CreatedAt, _ = time.Parse(timeLayout, created)
	g.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &g, nil
}

func scanPlayer(row scannable) (*model.Player, error) {
	var p model.Player
	var queue, tier, division sql.NullString
	var points sql.NullInt64
	var created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.GroupID, &queue, &tier, &division, &points, &p.IconURL, &created, &updated)
	if err != nil {
		return nil, notFound(err, "player")
	}
	p.QueueType = nullString(queue)
	p.Tier = nullString(tier)
	p.Division = nullString(division)
	if points.Valid {
		v := points.Int64
		p.Points = &v
	}
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &p, nil
}

func scanPlayers(rows *sql.Rows) ([]model.Player, error) {
	var players []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func scanMatch(row scannable) (*model.Match, error) {
	var m model.Match
	var outcome string
	var delta sql.NullInt64
	var promotion sql.NullString
	var notified int
	err := row.Scan(&m.ID, &m.PlayerID, &m.StartedAt, &outcome, &m.Kills, &m.Deaths, &m.Assists,
		&m.Champion, &m.Mode, &delta, &promotion, &m.URL, &notified)
	if err != nil {
		return nil, notFound(err, "match")
	}
	m.Outcome = model.Outcome(outcome)
	if delta.Valid {
		v := delta.Int64
		m.PointsDelta = &v
	}
	m.PromotionText = nullString(promotion)
	m.Notified = notified == 1
	return &m, nil
}

func scanMatches(rows *sql.Rows) ([]model.Match, error) {
	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func scanLiveMatch(row scannable) (*model.LiveMatch, error) {
	var l model.LiveMatch
	var notified int
	err := row.Scan(&l.ID, &l.PlayerID, &l.StartedAt, &l.Champion, &l.Role, &l.Mode, &l.URL, &notified)
	if err != nil {
		return nil, notFound(err, "live match")
	}
	l.Notified = notified == 1
	return &l, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
