// Package leagueofgraphs scrapes player profiles and match history from
// leagueofgraphs.com and live games from porofessor.gg.
package leagueofgraphs

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"match_bot/internal/fetcher"
	"match_bot/internal/model"
	"match_bot/internal/provider"
)

// Name is the DATA_SOURCE value selecting this provider.
const Name = "leagueofgraphs"

const (
	defaultSiteURL = "https://www.leagueofgraphs.com"
	defaultLiveURL = "https://porofessor.gg"
)

var gameDateRe = regexp.MustCompile(`new Date\((\d+)\)`)

// Source implements provider.DataSource by scraping HTML.
type Source struct {
	get     provider.Getter
	region  string
	siteURL string
	liveURL string
}

// New creates a Source for the given region, e.g. "na".
func New(get provider.Getter, region string) *Source {
	return &Source{
		get:     get,
		region:  region,
		siteURL: defaultSiteURL,
		liveURL: defaultLiveURL,
	}
}

// Name returns the provider name.
func (s *Source) Name() string { return Name }

// ProfileURL returns the public profile page of a player.
func (s *Source) ProfileURL(name string) string {
	return fmt.Sprintf("%s/summoner/%s/%s", s.siteURL, s.region, url.PathEscape(name))
}

func (s *Source) document(ctx context.Context, op, pageURL string) (*goquery.Document, error) {
	body, err := s.get.Get(ctx, pageURL)
	if err != nil {
		if fetcher.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%s: %w", op, provider.ErrNotFound)
		}
		return nil, provider.Upstream(op, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, provider.Upstream(op, fmt.Errorf("parse html: %w", err))
	}
	return doc, nil
}

// FetchProfile loads the profile page and reads the best league entry.
func (s *Source) FetchProfile(ctx context.Context, name string, groupID int64) (*model.Player, error) {
	doc, err := s.document(ctx, "fetch profile", s.ProfileURL(name))
	if err != nil {
		return nil, err
	}
	return parseProfile(doc, groupID)
}

func parseProfile(doc *goquery.Document, groupID int64) (*model.Player, error) {
	banner := doc.Find(".pageBanner .img img").First()
	canonical := strings.TrimSpace(banner.AttrOr("title", ""))
	if canonical == "" {
		return nil, fmt.Errorf("parse profile: %w", provider.ErrNotFound)
	}

	icon := banner.AttrOr("src", "")
	if strings.HasPrefix(icon, "//") {
		icon = "https:" + icon
	}

	p := &model.Player{
		ID:      canonical,
		Name:    canonical,
		GroupID: groupID,
		IconURL: icon,
	}

	// Unranked players have no league block.
	league := doc.Find(".best-league").First()
	if league.Length() == 0 {
		return p, nil
	}

	fields := strings.Fields(league.Find(".leagueTier").First().Text())
	if len(fields) > 0 {
		p.Tier = &fields[0]
	}
	if len(fields) > 1 {
		p.Division = &fields[1]
	}
	if q := strings.TrimSpace(league.Find(".queueLine .queue").First().Text()); q != "" {
		p.QueueType = &q
	}
	if lp, err := strconv.ParseInt(strings.TrimSpace(league.Find(".league-points .leaguePoints").First().Text()), 10, 64); err == nil {
		p.Points = &lp
	}
	return p, nil
}

// FetchRecentMatches reads the recent games table of the profile page.
func (s *Source) FetchRecentMatches(ctx context.Context, playerID string) ([]model.Match, error) {
	doc, err := s.document(ctx, "fetch matches", s.ProfileURL(playerID))
	if err != nil {
		return nil, err
	}
	return s.parseMatches(doc, playerID)
}

func (s *Source) parseMatches(doc *goquery.Document, playerID string) ([]model.Match, error) {
	table := doc.Find(".recentGamesBox .recentGamesTable tbody").First()
	if table.Length() == 0 {
		return nil, provider.ParseError("parse matches", "recent games table missing for %s", playerID)
	}

	var (
		matches []model.Match
		rowErr  error
	)
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		// Ad and spacer rows carry no champion.
		if row.Find(".championContainer img").Length() == 0 {
			return true
		}
		m, err := s.parseMatchRow(row, playerID)
		if err != nil {
			rowErr = err
			return false
		}
		matches = append(matches, m)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return matches, nil
}

func (s *Source) parseMatchRow(row *goquery.Selection, playerID string) (model.Match, error) {
	const op = "parse match"
	m := model.Match{PlayerID: playerID}

	champion, ok := row.Find(".championContainer img").First().Attr("title")
	if !ok {
		return m, provider.ParseError(op, "champion title missing")
	}
	m.Champion = champion

	result := row.Find(".victoryDefeatText").First()
	if result.Length() == 0 {
		return m, provider.ParseError(op, "victoryDefeatText missing for %s", champion)
	}
	m.Outcome = model.OutcomeLoss
	if strings.Contains(result.Text(), "Victory") {
		m.Outcome = model.OutcomeWin
	}

	var err error
	if m.Kills, err = intText(row, ".kda .kills"); err != nil {
		return m, provider.ParseError(op, "kills: %v", err)
	}
	if m.Deaths, err = intText(row, ".kda .deaths"); err != nil {
		return m, provider.ParseError(op, "deaths: %v", err)
	}
	if m.Assists, err = intText(row, ".kda .assists"); err != nil {
		return m, provider.ParseError(op, "assists: %v", err)
	}

	mode, ok := row.Find(".gameMode").First().Attr("tooltip")
	if !ok {
		return m, provider.ParseError(op, "game mode missing for %s", champion)
	}
	m.Mode = mode

	if lp := row.Find(".gameMode .lpChange").First(); lp.Length() > 0 {
		m.PointsDelta = parsePointsDelta(lp.Text())
	}
	// A ranked game without points means the page layout changed.
	if strings.Contains(strings.ToLower(mode), "ranked") && m.PointsDelta == nil {
		return m, provider.ParseError(op, "points missing from ranked game: %s - %s", playerID, champion)
	}
	if promo, ok := row.Find(".lpChange .lpChangePromoteContainer.requireTooltip").First().Attr("tooltip"); ok {
		m.PromotionText = &promo
	}

	match := gameDateRe.FindStringSubmatch(row.Find("script").First().Text())
	if match == nil {
		return m, provider.ParseError(op, "game date missing for %s", champion)
	}
	ms, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return m, provider.ParseError(op, "game date: %v", err)
	}
	m.StartedAt = ms / 1000

	href, ok := row.Find("td a").First().Attr("href")
	if !ok || href == "" {
		return m, provider.ParseError(op, "match link missing for %s", champion)
	}
	m.ID = href
	m.URL = href
	if strings.HasPrefix(href, "/") {
		m.URL = s.siteURL + href
	}
	return m, nil
}

func intText(sel *goquery.Selection, selector string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(sel.Find(selector).First().Text()), 10, 64)
}

// parsePointsDelta reads "+18 LP" or "-17 LP".
func parsePointsDelta(text string) *int64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "+"), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FetchLiveMatch loads the porofessor live partial for the player.
func (s *Source) FetchLiveMatch(ctx context.Context, playerID, playerName string) (*model.LiveMatch, error) {
	pageURL := fmt.Sprintf("%s/partial/live-partial/%s/%s", s.liveURL, s.region, url.PathEscape(playerName))
	body, err := s.get.Get(ctx, pageURL)
	if err != nil {
		if fetcher.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, provider.Upstream("fetch live match", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, provider.Upstream("fetch live match", fmt.Errorf("parse html: %w", err))
	}
	return parseLiveMatch(doc, playerID, playerName)
}

func parseLiveMatch(doc *goquery.Document, playerID, playerName string) (*model.LiveMatch, error) {
	const op = "parse live match"

	var card *goquery.Selection
	doc.Find("div[data-summonername]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(sel.AttrOr("data-summonername", ""), playerName) {
			card = sel
			return false
		}
		return true
	})
	if card == nil {
		return nil, nil
	}

	l := &model.LiveMatch{PlayerID: playerID}

	var ok bool
	if l.Champion, ok = card.Find(".imgColumn-champion>div img").First().Attr("alt"); !ok {
		return nil, provider.ParseError(op, "champion missing for %s", playerName)
	}
	if l.Role, ok = card.Find("div.currentRole>img").First().Attr("alt"); !ok {
		return nil, provider.ParseError(op, "role missing for %s", playerName)
	}

	spectate := doc.Find("#spectate_button").First()
	if l.ID, ok = spectate.Attr("data-spectate-gameid"); !ok || l.ID == "" {
		return nil, provider.ParseError(op, "game id missing for %s", playerName)
	}
	if l.URL, ok = spectate.Attr("data-spectate-link"); !ok {
		return nil, provider.ParseError(op, "spectate link missing for %s", playerName)
	}

	doc.Find(".site-content-header>h2").First().Contents().EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if goquery.NodeName(n) != "#text" {
			return true
		}
		if text := strings.TrimSpace(n.Text()); text != "" {
			l.Mode = text
			return false
		}
		return true
	})
	if l.Mode == "" {
		return nil, provider.ParseError(op, "game mode missing for %s", playerName)
	}

	created, ok := doc.Find("[data-game-creation]").First().Attr("data-game-creation")
	if !ok {
		return nil, provider.ParseError(op, "game creation missing for %s", playerName)
	}
	ms, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return nil, provider.ParseError(op, "game creation: %v", err)
	}
	l.StartedAt = ms / 1000
	return l, nil
}
