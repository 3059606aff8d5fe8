package leagueofgraphs

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"match_bot/internal/fetcher"
	"match_bot/internal/model"
	"match_bot/internal/provider"
)

type mockGetter map[string]string

func (m mockGetter) Get(_ context.Context, url string) ([]byte, error) {
	body, ok := m[url]
	if !ok {
		return nil, &fetcher.StatusError{URL: url, Code: http.StatusNotFound}
	}
	return []byte(body), nil
}

func ptr[T any](v T) *T { return &v }

const profileHTML = `<html><body>
<div class="pageBanner"><div class="img"><img src="//cdn.example.com/icons/1.png" title="Ada"></div></div>
<div class="best-league">
  <div class="leagueTier"> Gold II </div>
  <div class="queueLine"><span class="queue">Soloqueue</span></div>
  <div class="league-points"><span class="leaguePoints">55</span></div>
</div>
<div class="recentGamesBox"><table class="recentGamesTable"><tbody>
<tr>
  <td><a href="/match/na/4001#participant3"><div class="championContainer"><img title="Ahri"></div></a></td>
  <td>
    <div class="victoryDefeatText">Victory</div>
    <div class="gameMode" tooltip="Ranked Solo/Duo">Soloqueue <span class="lpChange">+18 LP</span></div>
    <script>var d = new Date(1700000000000);</script>
  </td>
  <td><div class="kda"><span class="kills">10</span>/<span class="deaths">2</span>/<span class="assists">7</span></div></td>
</tr>
<tr><td colspan="3">advertisement</td></tr>
<tr>
  <td><a href="/match/na/4002#participant1"><div class="championContainer"><img title="Garen"></div></a></td>
  <td>
    <div class="victoryDefeatText">Defeat</div>
    <div class="gameMode" tooltip="ARAM">ARAM</div>
    <script>var d = new Date(1699990000500);</script>
  </td>
  <td><div class="kda"><span class="kills">3</span>/<span class="deaths">9</span>/<span class="assists">21</span></div></td>
</tr>
<tr>
  <td><a href="/match/na/4003#participant8"><div class="championContainer"><img title="Lux"></div></a></td>
  <td>
    <div class="victoryDefeatText">Victory</div>
    <div class="gameMode" tooltip="Ranked Flex">Flex <span class="lpChange">+21 LP <div class="lpChangePromoteContainer requireTooltip" tooltip="Promoted to Gold I"></div></span></div>
    <script>var d = new Date(1699980000000);</script>
  </td>
  <td><div class="kda"><span class="kills">5</span>/<span class="deaths">1</span>/<span class="assists">12</span></div></td>
</tr>
</tbody></table></div>
</body></html>`

const unrankedHTML = `<html><body>
<div class="pageBanner"><div class="img"><img src="https://cdn.example.com/icons/2.png" title="Bob"></div></div>
</body></html>`

const brokenRankedHTML = `<html><body>
<div class="recentGamesBox"><table class="recentGamesTable"><tbody>
<tr>
  <td><a href="/match/na/5001"><div class="championContainer"><img title="Ahri"></div></a></td>
  <td>
    <div class="victoryDefeatText">Victory</div>
    <div class="gameMode" tooltip="Ranked Solo/Duo">Soloqueue</div>
    <script>var d = new Date(1700000000000);</script>
  </td>
  <td><div class="kda"><span class="kills">1</span>/<span class="deaths">1</span>/<span class="assists">1</span></div></td>
</tr>
</tbody></table></div>
</body></html>`

const liveHTML = `<html><body>
<div class="site-content-header"><h2>
  Ranked Solo/Duo <span>(12 min)</span></h2></div>
<div data-summonername="Bob"><div class="imgColumn-champion"><div><img alt="Zed"></div></div><div class="currentRole"><img alt="Top"></div></div>
<div data-summonername="Ada"><div class="imgColumn-champion"><div><img alt="Ahri"></div></div><div class="currentRole"><img alt="Mid"></div></div>
<button id="spectate_button" data-spectate-gameid="G77" data-spectate-link="https://porofessor.gg/spectate/G77">Spectate</button>
<div data-game-creation="1700000100000"></div>
</body></html>`

func TestFetchProfile(t *testing.T) {
	get := mockGetter{
		"https://www.leagueofgraphs.com/summoner/na/ada": profileHTML,
		"https://www.leagueofgraphs.com/summoner/na/Bob": unrankedHTML,
		"https://www.leagueofgraphs.com/summoner/na/Eve": `<html><body><p>no such summoner</p></body></html>`,
	}
	s := New(get, "na")

	tests := []struct {
		name    string
		input   string
		want    *model.Player
		wantErr error
	}{
		{
			name:  "ranked player resolves canonical name",
			input: "ada",
			want: &model.Player{
				ID: "Ada", Name: "Ada", GroupID: 42, IconURL: "https://cdn.example.com/icons/1.png",
				QueueType: ptr("Soloqueue"), Tier: ptr("Gold"), Division: ptr("II"), Points: ptr(int64(55)),
			},
		},
		{
			name:  "unranked player",
			input: "Bob",
			want:  &model.Player{ID: "Bob", Name: "Bob", GroupID: 42, IconURL: "https://cdn.example.com/icons/2.png"},
		},
		{name: "page without banner", input: "Eve", wantErr: provider.ErrNotFound},
		{name: "http 404", input: "Zoe", wantErr: provider.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FetchProfile(context.Background(), tt.input, 42)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("fetch profile: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchProfile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchRecentMatches(t *testing.T) {
	s := New(mockGetter{"https://www.leagueofgraphs.com/summoner/na/Ada": profileHTML}, "na")

	got, err := s.FetchRecentMatches(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("fetch matches: %v", err)
	}

	want := []model.Match{
		{
			ID: "/match/na/4001#participant3", PlayerID: "Ada", StartedAt: 1700000000,
			Outcome: model.OutcomeWin, Kills: 10, Deaths: 2, Assists: 7,
			Champion: "Ahri", Mode: "Ranked Solo/Duo", PointsDelta: ptr(int64(18)),
			URL: "https://www.leagueofgraphs.com/match/na/4001#participant3",
		},
		{
			ID: "/match/na/4002#participant1", PlayerID: "Ada", StartedAt: 1699990000,
			Outcome: model.OutcomeLoss, Kills: 3, Deaths: 9, Assists: 21,
			Champion: "Garen", Mode: "ARAM",
			URL: "https://www.leagueofgraphs.com/match/na/4002#participant1",
		},
		{
			ID: "/match/na/4003#participant8", PlayerID: "Ada", StartedAt: 1699980000,
			Outcome: model.OutcomeWin, Kills: 5, Deaths: 1, Assists: 12,
			Champion: "Lux", Mode: "Ranked Flex", PointsDelta: ptr(int64(21)),
			PromotionText: ptr("Promoted to Gold I"),
			URL:           "https://www.leagueofgraphs.com/match/na/4003#participant8",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchRecentMatches mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchRecentMatchesRankedWithoutPointsFails(t *testing.T) {
	s := New(mockGetter{"https://www.leagueofgraphs.com/summoner/na/Ada": brokenRankedHTML}, "na")

	got, err := s.FetchRecentMatches(context.Background(), "Ada")
	if !errors.Is(err, provider.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial result, got %d matches", len(got))
	}
}

func TestFetchRecentMatchesMissingTable(t *testing.T) {
	s := New(mockGetter{"https://www.leagueofgraphs.com/summoner/na/Bob": unrankedHTML}, "na")
	if _, err := s.FetchRecentMatches(context.Background(), "Bob"); !errors.Is(err, provider.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestFetchLiveMatch(t *testing.T) {
	get := mockGetter{
		"https://porofessor.gg/partial/live-partial/na/Ada": liveHTML,
		"https://porofessor.gg/partial/live-partial/na/Cid": `<html><body>The summoner is not in game.</body></html>`,
	}
	s := New(get, "na")

	tests := []struct {
		name   string
		player string
		want   *model.LiveMatch
	}{
		{
			name:   "in game",
			player: "Ada",
			want: &model.LiveMatch{
				ID: "G77", PlayerID: "id-Ada", StartedAt: 1700000100,
				Champion: "Ahri", Role: "Mid", Mode: "Ranked Solo/Duo",
				URL: "https://porofessor.gg/spectate/G77",
			},
		},
		{name: "not in game", player: "Cid"},
		{name: "404 means not in game", player: "Dee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FetchLiveMatch(context.Background(), "id-"+tt.player, tt.player)
			if err != nil {
				t.Fatalf("fetch live: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchLiveMatch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePointsDelta(t *testing.T) {
	tests := []struct {
		in   string
		want *int64
	}{
		{in: "+18 LP", want: ptr(int64(18))},
		{in: " -17 LP ", want: ptr(int64(-17))},
		{in: "0 LP", want: ptr(int64(0))},
		{in: "LP", want: nil},
		{in: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parsePointsDelta(tt.in)); diff != "" {
				t.Errorf("parsePointsDelta(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

var _ provider.DataSource = (*Source)(nil)
