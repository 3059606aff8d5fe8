package bot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"match_bot/internal/engine"
	"match_bot/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestParseNameArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "single word", args: "Faker", want: "Faker"},
		{name: "with spaces", args: "  Hide on   bush ", want: "Hide on bush"},
		{name: "empty", args: "", wantErr: true},
		{name: "whitespace only", args: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNameArg(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	started := time.Unix(1700000000, 0).UTC()

	tests := []struct {
		name string
		ev   engine.Event
		want string
	}{
		{
			name: "ranked win",
			ev: engine.Event{
				Kind: engine.EventMatchResult, PlayerName: "Faker",
				Tier: ptr("Gold"), Division: ptr("II"), Points: ptr[int64](54),
				Outcome: model.OutcomeWin, PointsDelta: ptr[int64](18),
				Champion: "Ahri", Mode: "Ranked Solo", Kills: 10, Deaths: 2, Assists: 8,
				StartedAt: started, URL: "https://example.com/m1",
			},
			want: "Victory - Faker (Gold II, 54 LP)\nAhri | Ranked Solo | 10/2/8\n+18 LP\n2023-11-14 22:13 UTC\n\nhttps://example.com/m1",
		},
		{
			name: "loss with demotion and no link",
			ev: engine.Event{
				Kind: engine.EventMatchResult, PlayerName: "Faker",
				Tier: ptr("Silver"), Division: ptr("I"), Points: ptr[int64](75),
				Outcome: model.OutcomeLoss, PointsDelta: ptr[int64](-25), PromotionText: ptr("Silver I"),
				Champion: "Zed", Mode: "Ranked Solo", Kills: 1, Deaths: 9, Assists: 0,
				StartedAt: started,
			},
			want: "Defeat - Faker (Silver I, 75 LP)\nZed | Ranked Solo | 1/9/0\n-25 LP\nDemoted: Silver I\n2023-11-14 22:13 UTC",
		},
		{
			name: "unranked normal game",
			ev: engine.Event{
				Kind: engine.EventMatchResult, PlayerName: "Faker",
				Outcome: model.OutcomeWin, Champion: "Lux", Mode: "ARAM",
				Kills: 3, Deaths: 4, Assists: 20, StartedAt: started,
			},
			want: "Victory - Faker (Unranked)\nLux | ARAM | 3/4/20\n2023-11-14 22:13 UTC",
		},
		{
			name: "live match",
			ev: engine.Event{
				Kind: engine.EventLiveMatch, PlayerName: "Faker",
				Champion: "Ahri", Role: "Mid", Mode: "Ranked Solo",
				StartedAt: started, URL: "https://porofessor.gg/spectate",
			},
			want: "Faker is in game (Unranked)\nAhri (Mid) | Ranked Solo\nStarted 2023-11-14 22:13 UTC\n\nhttps://porofessor.gg/spectate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatEvent(tt.ev)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRank(t *testing.T) {
	tests := []struct {
		name     string
		tier     *string
		division *string
		points   *int64
		want     string
	}{
		{name: "unranked", want: "Unranked"},
		{name: "empty tier", tier: ptr(""), want: "Unranked"},
		{name: "full", tier: ptr("Gold"), division: ptr("II"), points: ptr[int64](54), want: "Gold II, 54 LP"},
		{name: "apex tier without division", tier: ptr("Master"), points: ptr[int64](120), want: "Master, 120 LP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatRank(tt.tier, tt.division, tt.points)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPromotionLine(t *testing.T) {
	tests := []struct {
		name    string
		outcome model.Outcome
		text    *string
		want    string
	}{
		{name: "none", outcome: model.OutcomeWin},
		{name: "blank", outcome: model.OutcomeWin, text: ptr("  ")},
		{name: "win promotes", outcome: model.OutcomeWin, text: ptr("Gold IV"), want: "Promoted: Gold IV"},
		{name: "loss demotes", outcome: model.OutcomeLoss, text: ptr("Silver I"), want: "Demoted: Silver I"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, PromotionLine(tt.outcome, tt.text)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatPlayerList(t *testing.T) {
	tests := []struct {
		name    string
		players []model.Player
		want    string
	}{
		{
			name: "empty",
			want: "No players tracked yet. Use /add <name> to add one.",
		},
		{
			name: "ranked and unranked",
			players: []model.Player{
				{Name: "Faker", Tier: ptr("Challenger"), Points: ptr[int64](1200), QueueType: ptr("Soloqueue")},
				{Name: "Newbie"},
			},
			want: "Tracked players:\n\nFaker - Challenger, 1200 LP [Soloqueue]\nNewbie - Unranked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatPlayerList(tt.players)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatLogs(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	got := FormatLogs([]model.LogEntry{
		{Message: "match-notifier: boom", Severity: model.SeverityError, CreatedAt: at},
		{Message: "no destination", Severity: model.SeverityInfo, CreatedAt: at},
	})
	want := "Recent diagnostics:\n\n2026-01-02 03:04 UTC [error] match-notifier: boom\n2026-01-02 03:04 UTC [info] no destination"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("No diagnostic entries.", FormatLogs(nil)); diff != "" {
		t.Errorf("empty mismatch (-want +got):\n%s", diff)
	}
}
