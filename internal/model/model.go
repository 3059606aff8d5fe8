// Package model defines the domain types used across the application.
package model

import "time"

// Group is a chat that owns tracked players and optionally receives notifications.
type Group struct {
	ID int64
	// ChannelID is the destination chat. Nil suppresses delivery but not ingestion.
	ChannelID *int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDestination reports whether notifications for the group can be delivered.
func (g *Group) HasDestination() bool {
	return g != nil && g.ChannelID != nil
}

// Player is a roster entry polled on a schedule.
type Player struct {
	ID        string
	Name      string
	GroupID   int64
	QueueType *string
	Tier      *string
	Division  *string
	Points    *int64
	IconURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome is the result of a completed match.
type Outcome string

// Supported outcomes.
const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Match is one completed match of one player. ID is the dedup key.
type Match struct {
	ID            string
	PlayerID      string
	StartedAt     int64
	Outcome       Outcome
	Kills         int64
	Deaths        int64
	Assists       int64
	Champion      string
	Mode          string
	PointsDelta   *int64
	PromotionText *string
	URL           string
	Notified      bool
}

// Started returns the provider-reported start time.
func (m Match) Started() time.Time {
	return time.Unix(m.StartedAt, 0).UTC()
}

// LiveMatch is an in-progress match observation, keyed by provider game id.
type LiveMatch struct {
	ID        string
	PlayerID  string
	StartedAt int64
	Champion  string
	Role      string
	Mode      string
	URL       string
	Notified  bool
}

// Started returns the provider-reported start time.
func (l LiveMatch) Started() time.Time {
	return time.Unix(l.StartedAt, 0).UTC()
}

// Severity of a diagnostic log entry.
type Severity string

// Supported severities.
const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// LogEntry is an append-only diagnostic record.
type LogEntry struct {
	ID        int64
	Message   string
	Severity  Severity
	CreatedAt time.Time
}
