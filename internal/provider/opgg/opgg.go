// Package opgg reads player data from the JSON endpoints behind op.gg.
package opgg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"match_bot/internal/fetcher"
	"match_bot/internal/model"
	"match_bot/internal/provider"
)

// Name is the DATA_SOURCE value selecting this provider.
const Name = "opgg"

const (
	defaultSiteURL = "https://www.op.gg"
	defaultAPIURL  = "https://op.gg/api/v1.0/internal/bypass"
)

// The site embeds a per-deploy build id in its script URLs; the data
// endpoints are namespaced by it.
var buildIDRe = regexp.MustCompile(`static/([^/]+?)/_buildManifest\.js`)

var romanDivisions = map[int64]string{1: "I", 2: "II", 3: "III", 4: "IV"}

// Source implements provider.DataSource over op.gg JSON.
type Source struct {
	get     provider.Getter
	region  string
	siteURL string
	apiURL  string
}

// New creates a Source for the given region, e.g. "na".
func New(get provider.Getter, region string) *Source {
	return &Source{
		get:     get,
		region:  region,
		siteURL: defaultSiteURL,
		apiURL:  defaultAPIURL,
	}
}

// Name returns the provider name.
func (s *Source) Name() string { return Name }

func (s *Source) buildID(ctx context.Context) (string, error) {
	body, err := s.get.Get(ctx, s.siteURL)
	if err != nil {
		return "", provider.Upstream("fetch build id", err)
	}
	m := buildIDRe.FindSubmatch(body)
	if m == nil {
		return "", provider.ParseError("fetch build id", "build manifest not referenced")
	}
	return string(m[1]), nil
}

func (s *Source) getJSON(ctx context.Context, op, endpoint string) (gjson.Result, error) {
	body, err := s.get.Get(ctx, endpoint)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, provider.ParseError(op, "invalid json from %s", endpoint)
	}
	return gjson.ParseBytes(body), nil
}

// FetchProfile resolves name through the summoner page data.
func (s *Source) FetchProfile(ctx context.Context, name string, groupID int64) (*model.Player, error) {
	const op = "fetch profile"
	id, err := s.buildID(ctx)
	if err != nil {
		return nil, err
	}

	escaped := url.PathEscape(name)
	endpoint := fmt.Sprintf("%s/_next/data/%s/en_US/summoners/%s/%s.json?region=%s&summoner=%s",
		s.siteURL, id, s.region, escaped, s.region, url.QueryEscape(name))
	doc, err := s.getJSON(ctx, op, endpoint)
	if err != nil {
		if fetcher.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%s: %w", op, provider.ErrNotFound)
		}
		return nil, provider.Upstream(op, err)
	}
	return parseProfile(doc.Get("pageProps.data"), name, groupID)
}

func parseProfile(data gjson.Result, name string, groupID int64) (*model.Player, error) {
	summonerID := data.Get("summoner_id").String()
	if summonerID == "" {
		return nil, fmt.Errorf("parse profile: %w", provider.ErrNotFound)
	}

	p := &model.Player{
		ID:      summonerID,
		Name:    name,
		GroupID: groupID,
		IconURL: data.Get("profile_image_url").String(),
	}
	if n := data.Get("name").String(); n != "" {
		p.Name = n
	}

	league := data.Get("league_stats.0")
	if tier := league.Get("tier_info.tier"); tier.Type == gjson.String && tier.String() != "" {
		v := tier.String()
		p.Tier = &v
	}
	if div := league.Get("tier_info.division"); div.Type == gjson.Number {
		if v, ok := romanDivisions[div.Int()]; ok {
			p.Division = &v
		}
	}
	if lp := league.Get("tier_info.lp"); lp.Type == gjson.Number {
		v := lp.Int()
		p.Points = &v
	}
	if q := league.Get("queue_info.game_type"); q.Type == gjson.String && q.String() != "" {
		v := q.String()
		p.QueueType = &v
	}
	return p, nil
}

// FetchRecentMatches reads the last 20 games of any queue.
func (s *Source) FetchRecentMatches(ctx context.Context, playerID string) ([]model.Match, error) {
	const op = "fetch matches"
	endpoint := fmt.Sprintf("%s/games/%s/summoners/%s?limit=20&hl=en_US&game_type=total",
		s.apiURL, s.region, url.PathEscape(playerID))
	doc, err := s.getJSON(ctx, op, endpoint)
	if err != nil {
		return nil, provider.Upstream(op, err)
	}

	games := doc.Get("data")
	if !games.IsArray() {
		return nil, provider.ParseError(op, "games array missing for %s", playerID)
	}

	var matches []model.Match
	for _, g := range games.Array() {
		m, err := parseGame(g, playerID)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func parseGame(g gjson.Result, playerID string) (model.Match, error) {
	const op = "parse match"
	m := model.Match{
		ID:       g.Get("id").String(),
		PlayerID: playerID,
		Kills:    g.Get("myData.stats.kill").Int(),
		Deaths:   g.Get("myData.stats.death").Int(),
		Assists:  g.Get("myData.stats.assist").Int(),
		Mode:     g.Get("queue_info.queue_translate").String(),
		Outcome:  model.OutcomeLoss,
	}
	if m.ID == "" {
		return m, provider.ParseError(op, "game id missing for %s", playerID)
	}
	if strings.EqualFold(g.Get("myData.stats.result").String(), "win") {
		m.Outcome = model.OutcomeWin
	}

	m.Champion = g.Get("myData.champion_name").String()
	if m.Champion == "" {
		m.Champion = "Champion " + strconv.FormatInt(g.Get("myData.champion_id").Int(), 10)
	}

	created, err := time.Parse(time.RFC3339, g.Get("created_at").String())
	if err != nil {
		return m, provider.ParseError(op, "created_at of %s: %v", m.ID, err)
	}
	m.StartedAt = created.Unix()

	if lp := g.Get("myData.tier_info.lp"); lp.Type == gjson.Number {
		v := lp.Int()
		m.PointsDelta = &v
	}
	gameType := g.Get("queue_info.game_type").String()
	if strings.Contains(strings.ToLower(gameType), "rank") && m.PointsDelta == nil {
		return m, provider.ParseError(op, "points missing from ranked game %s", m.ID)
	}
	return m, nil
}

// FetchLiveMatch reads the spectate endpoint. A 404 means not in game.
func (s *Source) FetchLiveMatch(ctx context.Context, playerID, playerName string) (*model.LiveMatch, error) {
	const op = "fetch live match"
	endpoint := fmt.Sprintf("%s/spectates/%s/%s", s.apiURL, s.region, url.PathEscape(playerID))
	doc, err := s.getJSON(ctx, op, endpoint)
	if err != nil {
		if fetcher.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, provider.Upstream(op, err)
	}
	return parseSpectate(doc.Get("data"), playerID, playerName)
}

func parseSpectate(data gjson.Result, playerID, playerName string) (*model.LiveMatch, error) {
	const op = "parse live match"
	if !data.Exists() {
		return nil, nil
	}

	l := &model.LiveMatch{
		ID:       data.Get("game_id").String(),
		PlayerID: playerID,
		Mode:     data.Get("queue_info.queue_translate").String(),
	}
	if l.ID == "" {
		return nil, provider.ParseError(op, "game id missing for %s", playerName)
	}
	if created, err := time.Parse(time.RFC3339, data.Get("created_at").String()); err == nil {
		l.StartedAt = created.Unix()
	}

	var found bool
	data.Get("participants").ForEach(func(_, p gjson.Result) bool {
		if p.Get("summoner.summoner_id").String() != playerID {
			return true
		}
		found = true
		l.Champion = p.Get("champion_name").String()
		if l.Champion == "" {
			l.Champion = "Champion " + strconv.FormatInt(p.Get("champion_id").Int(), 10)
		}
		l.Role = p.Get("position").String()
		return false
	})
	if !found {
		return nil, provider.ParseError(op, "%s not among participants of %s", playerName, l.ID)
	}
	return l, nil
}
