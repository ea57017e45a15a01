package resource

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agentuity/hoopstats/api"
	"github.com/agentuity/hoopstats/cache"
	"github.com/agentuity/hoopstats/logger"
	"github.com/agentuity/hoopstats/normalize"
	"golang.org/x/sync/errgroup"
)

// DefaultLeague is the league search results are filtered to.
const DefaultLeague = "nba"

// Client fetches each resource kind through the store: a fresh cached value
// is returned without touching the network; otherwise the upstream is asked
// once and a successful result is cached under the kind's policy. Failures
// are logged and come back as an empty value, never an error.
type Client struct {
	store     *cache.Store
	fetcher   api.Fetcher
	policies  Policies
	endpoints Endpoints
	league    string
	logger    logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPolicies replaces the freshness table.
func WithPolicies(p Policies) Option {
	return func(c *Client) { c.policies = p.Clone() }
}

// WithEndpoints replaces the upstream URLs. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e.Merge(DefaultEndpoints()) }
}

// WithLeague sets the league search results are filtered to.
func WithLeague(league string) Option {
	return func(c *Client) {
		if league != "" {
			c.league = league
		}
	}
}

func New(store *cache.Store, fetcher api.Fetcher, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		store:     store,
		fetcher:   fetcher,
		policies:  DefaultPolicies(),
		endpoints: DefaultEndpoints(),
		league:    DefaultLeague,
		logger:    log.WithPrefix("[resource]"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policies returns a copy of the freshness table in use.
func (c *Client) Policies() Policies {
	return c.policies.Clone()
}

// RequestOption tunes a single request.
type RequestOption func(*request)

type request struct {
	force bool
}

// ForceRefresh skips the cache lookup. The fetched value still replaces the
// cached one.
func ForceRefresh() RequestOption {
	return func(r *request) { r.force = true }
}

func newRequest(opts []RequestOption) request {
	var r request
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (c *Client) fixed(kind Kind) cache.TTLFunc[json.RawMessage] {
	return cache.FixedTTL[json.RawMessage](c.policies.TTL(kind))
}

// document runs the cache-aside flow for a raw upstream document.
func (c *Client) document(ctx context.Context, kind Kind, key, url string, ttl cache.TTLFunc[json.RawMessage], opts []RequestOption) json.RawMessage {
	r := newRequest(opts)
	val, found, err := cache.Exec(ctx, c.store, cache.ExecConfig[json.RawMessage]{
		Key:   key,
		Force: r.force,
		TTL:   ttl,
	}, func(ctx context.Context) (json.RawMessage, error) {
		return c.fetcher.Fetch(ctx, url)
	})
	if err != nil {
		c.logger.Error("error fetching %s: %s", kind, err)
		return nil
	}
	if found {
		c.logger.Debug("%s served from cache", key)
	} else {
		c.logger.Debug("%s fetched from upstream", key)
	}
	return val
}

// Scoreboard returns today's games.
func (c *Client) Scoreboard(ctx context.Context, opts ...RequestOption) json.RawMessage {
	return c.document(ctx, Scoreboard, ScoreboardKey(), c.endpoints.scoreboardURL(), c.fixed(Scoreboard), opts)
}

// Standings returns the conference standings.
func (c *Client) Standings(ctx context.Context, opts ...RequestOption) json.RawMessage {
	return c.document(ctx, Standings, StandingsKey(), c.endpoints.standingsURL(), c.fixed(Standings), opts)
}

// News returns the league news feed.
func (c *Client) News(ctx context.Context, opts ...RequestOption) json.RawMessage {
	return c.document(ctx, News, NewsKey(), c.endpoints.newsURL(), c.fixed(News), opts)
}

// StatLeaders returns the raw leaders document. See Leaders for the shaped form.
func (c *Client) StatLeaders(ctx context.Context, opts ...RequestOption) json.RawMessage {
	return c.document(ctx, StatLeaders, StatLeadersKey(), c.endpoints.leadersURL(), c.fixed(StatLeaders), opts)
}

// Leaders returns the stat leaders shaped into display categories. The
// result is nil when the leaders are unavailable.
func (c *Client) Leaders(ctx context.Context, opts ...RequestOption) []normalize.LeaderCategory {
	raw := c.StatLeaders(ctx, opts...)
	if raw == nil {
		return nil
	}
	categories, err := normalize.Leaders(raw)
	if err != nil {
		c.logger.Error("error shaping stat leaders: %s", err)
		return nil
	}
	return categories
}

// PlayerDetails returns a player's bio. The id may be a plain numeric id or a
// composite uid.
func (c *Client) PlayerDetails(ctx context.Context, id string, opts ...RequestOption) json.RawMessage {
	id = normalize.ID(strings.TrimSpace(id))
	if id == "" {
		return nil
	}
	return c.document(ctx, PlayerDetails, PlayerDetailsKey(id), c.endpoints.athleteURL(id), c.fixed(PlayerDetails), opts)
}

// PlayerStats returns a player's season statistics.
func (c *Client) PlayerStats(ctx context.Context, id string, opts ...RequestOption) json.RawMessage {
	id = normalize.ID(strings.TrimSpace(id))
	if id == "" {
		return nil
	}
	return c.document(ctx, PlayerStats, PlayerStatsKey(id), c.endpoints.athleteStatsURL(id), c.fixed(PlayerStats), opts)
}

// PlayerGameLog returns a player's recent game log.
func (c *Client) PlayerGameLog(ctx context.Context, id string, opts ...RequestOption) json.RawMessage {
	id = normalize.ID(strings.TrimSpace(id))
	if id == "" {
		return nil
	}
	return c.document(ctx, PlayerGameLog, PlayerGameLogKey(id), c.endpoints.athleteGameLogURL(id), c.fixed(PlayerGameLog), opts)
}

// Profile bundles everything shown on a player page. Parts that could not be
// fetched are nil.
type Profile struct {
	ID      string          `json:"id"`
	Details json.RawMessage `json:"details"`
	Stats   json.RawMessage `json:"stats"`
	GameLog json.RawMessage `json:"gamelog"`
}

// PlayerProfile fetches details, stats and game log concurrently. One part
// failing does not affect the others.
func (c *Client) PlayerProfile(ctx context.Context, id string, opts ...RequestOption) Profile {
	profile := Profile{ID: normalize.ID(strings.TrimSpace(id))}
	if profile.ID == "" {
		return profile
	}
	var g errgroup.Group
	g.Go(func() error {
		profile.Details = c.PlayerDetails(ctx, profile.ID, opts...)
		return nil
	})
	g.Go(func() error {
		profile.Stats = c.PlayerStats(ctx, profile.ID, opts...)
		return nil
	})
	g.Go(func() error {
		profile.GameLog = c.PlayerGameLog(ctx, profile.ID, opts...)
		return nil
	})
	g.Wait()
	return profile
}

// GameSummary returns a game's box score and plays. The lifetime is decided
// by the fetched payload: a concluded game is kept for a day, a scheduled or
// live one for a minute.
func (c *Client) GameSummary(ctx context.Context, eventID string, opts ...RequestOption) json.RawMessage {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil
	}
	return c.document(ctx, "game_summary", GameSummaryKey(eventID), c.endpoints.summaryURL(eventID), c.policies.SummaryTTL, opts)
}

// PlayByPlay returns the plays of a game grouped by period. It shares the
// game summary's cache entry. The result is nil when the summary is
// unavailable.
func (c *Client) PlayByPlay(ctx context.Context, eventID string, opts ...RequestOption) []normalize.Period {
	raw := c.GameSummary(ctx, eventID, opts...)
	if raw == nil {
		return nil
	}
	periods, err := normalize.Plays(raw)
	if err != nil {
		c.logger.Error("error reading plays for %s: %s", eventID, err)
		return nil
	}
	return periods
}

// SearchPlayers returns the players matching query that currently play in the
// client's league. The filtered list is what gets cached. A failure or a
// blank query yields an empty list.
func (c *Client) SearchPlayers(ctx context.Context, query string, opts ...RequestOption) []normalize.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []normalize.SearchResult{}
	}
	r := newRequest(opts)
	url := c.endpoints.searchURL(query)
	results, _, err := cache.Exec(ctx, c.store, cache.ExecConfig[[]normalize.SearchResult]{
		Key:   SearchKey(query),
		Force: r.force,
		TTL:   cache.FixedTTL[[]normalize.SearchResult](c.policies.TTL(Search)),
	}, func(ctx context.Context) ([]normalize.SearchResult, error) {
		raw, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		players, err := normalize.SearchResults(raw, "player")
		if err != nil {
			return nil, err
		}
		return normalize.FilterSearch(players, c.league), nil
	})
	if err != nil {
		c.logger.Error("error searching players for %q: %s", query, err)
		return []normalize.SearchResult{}
	}
	return results
}

// RedditFeed returns the hot posts of the league's social feed. The feed is
// never cached. A failure yields an empty list.
func (c *Client) RedditFeed(ctx context.Context) []normalize.Post {
	raw, err := c.fetcher.Fetch(ctx, c.endpoints.redditURL())
	if err != nil {
		c.logger.Error("error fetching reddit feed: %s", err)
		return []normalize.Post{}
	}
	posts, err := normalize.Posts(raw)
	if err != nil {
		c.logger.Error("error reading reddit feed: %s", err)
		return []normalize.Post{}
	}
	return posts
}

// Clear drops cached entries. Without keys every entry is removed.
func (c *Client) Clear(ctx context.Context, keys ...string) error {
	return c.store.Clear(ctx, keys...)
}
