package bot

import (
	"fmt"
	"strings"

	"match_bot/internal/engine"
	"match_bot/internal/model"
)

const timeFormat = "2006-01-02 15:04 UTC"

// FormatEvent formats an engine event as a Telegram notification message.
func FormatEvent(ev engine.Event) string {
	if ev.Kind == engine.EventLiveMatch {
		return formatLive(ev)
	}
	return formatMatch(ev)
}

func formatMatch(ev engine.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s (%s)\n", outcomeLabel(ev.Outcome), ev.PlayerName, FormatRank(ev.Tier, ev.Division, ev.Points))
	fmt.Fprintf(&b, "%s | %s | %d/%d/%d\n", ev.Champion, modeLabel(ev.Mode), ev.Kills, ev.Deaths, ev.Assists)
	if s := PointsDeltaText(ev.PointsDelta); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	if s := PromotionLine(ev.Outcome, ev.PromotionText); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString(ev.StartedAt.UTC().Format(timeFormat))
	if ev.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(ev.URL)
	}
	return b.String()
}

func formatLive(ev engine.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is in game (%s)\n", ev.PlayerName, FormatRank(ev.Tier, ev.Division, ev.Points))
	b.WriteString(ev.Champion)
	if ev.Role != "" {
		fmt.Fprintf(&b, " (%s)", ev.Role)
	}
	fmt.Fprintf(&b, " | %s\n", modeLabel(ev.Mode))
	fmt.Fprintf(&b, "Started %s", ev.StartedAt.UTC().Format(timeFormat))
	if ev.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(ev.URL)
	}
	return b.String()
}

func outcomeLabel(o model.Outcome) string {
	switch o {
	case model.OutcomeWin:
		return "Victory"
	case model.OutcomeLoss:
		return "Defeat"
	default:
		return "Finished"
	}
}

func modeLabel(mode string) string {
	if mode == "" {
		return "Unknown mode"
	}
	return mode
}

// FormatRank renders a rank snapshot, e.g. "Gold II, 54 LP".
func FormatRank(tier, division *string, points *int64) string {
	if tier == nil || *tier == "" {
		return "Unranked"
	}
	s := *tier
	if division != nil && *division != "" {
		s += " " + *division
	}
	if points != nil {
		s += fmt.Sprintf(", %d LP", *points)
	}
	return s
}

// PointsDeltaText renders a signed points change, e.g. "+18 LP" or "-15 LP".
func PointsDeltaText(delta *int64) string {
	if delta == nil {
		return ""
	}
	return fmt.Sprintf("%+d LP", *delta)
}

// PromotionLine describes a rank change carried by a match. Promotion text
// on a loss is reported as a demotion.
func PromotionLine(outcome model.Outcome, text *string) string {
	if text == nil || strings.TrimSpace(*text) == "" {
		return ""
	}
	t := strings.TrimSpace(*text)
	if outcome == model.OutcomeLoss {
		return "Demoted: " + t
	}
	return "Promoted: " + t
}

// FormatPlayer formats one tracked player with its rank snapshot.
func FormatPlayer(p model.Player) string {
	s := fmt.Sprintf("%s - %s", p.Name, FormatRank(p.Tier, p.Division, p.Points))
	if p.QueueType != nil && *p.QueueType != "" {
		s += " [" + *p.QueueType + "]"
	}
	return s
}

// FormatPlayerList formats the players tracked by a chat.
func FormatPlayerList(players []model.Player) string {
	if len(players) == 0 {
		return "No players tracked yet. Use /add <name> to add one."
	}
	var b strings.Builder
	b.WriteString("Tracked players:\n")
	for _, p := range players {
		b.WriteString("\n")
		b.WriteString(FormatPlayer(p))
	}
	return b.String()
}

// FormatLogs formats diagnostic entries, newest first.
func FormatLogs(entries []model.LogEntry) string {
	if len(entries) == 0 {
		return "No diagnostic entries."
	}
	var b strings.Builder
	b.WriteString("Recent diagnostics:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s [%s] %s", e.CreatedAt.UTC().Format(timeFormat), e.Severity, e.Message)
	}
	return b.String()
}
