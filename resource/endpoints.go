package resource

import (
	"net/url"
	"strconv"
)

// searchLimit caps how many search results upstream returns.
const searchLimit = 15

// Endpoints are the upstream base URLs. Each one can be pointed elsewhere,
// which is how tests aim the client at a local server.
type Endpoints struct {
	// Site serves scoreboard, summary and news.
	Site string `yaml:"site" env:"SITE"`
	// Standings serves the conference tables.
	Standings string `yaml:"standings" env:"STANDINGS"`
	// Search is the multi-sport search endpoint.
	Search string `yaml:"search" env:"SEARCH"`
	// Athletes serves player bios.
	Athletes string `yaml:"athletes" env:"ATHLETES"`
	// AthleteStats serves season stats and game logs.
	AthleteStats string `yaml:"athlete_stats" env:"ATHLETE_STATS"`
	// Leaders serves league statistical leaders.
	Leaders string `yaml:"leaders" env:"LEADERS"`
	// Reddit is the social feed listing.
	Reddit string `yaml:"reddit" env:"REDDIT"`
	// RedditProxy, when set, is prepended to the escaped Reddit URL.
	RedditProxy string `yaml:"reddit_proxy" env:"REDDIT_PROXY"`
}

// DefaultEndpoints returns the public NBA endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Site:         "https://site.api.espn.com/apis/site/v2/sports/basketball/nba",
		Standings:    "https://site.api.espn.com/apis/v2/sports/basketball/nba/standings",
		Search:       "https://site.web.api.espn.com/apis/search/v2",
		Athletes:     "https://site.api.espn.com/apis/common/v3/sports/basketball/nba/athletes",
		AthleteStats: "https://site.web.api.espn.com/apis/common/v3/sports/basketball/nba/athletes",
		Leaders:      "https://site.api.espn.com/apis/site/v3/sports/basketball/nba/leaders",
		Reddit:       "https://www.reddit.com/r/nba/hot.json?limit=25",
	}
}

// Merge fills every empty field from def.
func (e Endpoints) Merge(def Endpoints) Endpoints {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Endpoints{
		Site:         pick(e.Site, def.Site),
		Standings:    pick(e.Standings, def.Standings),
		Search:       pick(e.Search, def.Search),
		Athletes:     pick(e.Athletes, def.Athletes),
		AthleteStats: pick(e.AthleteStats, def.AthleteStats),
		Leaders:      pick(e.Leaders, def.Leaders),
		Reddit:       pick(e.Reddit, def.Reddit),
		RedditProxy:  pick(e.RedditProxy, def.RedditProxy),
	}
}

func (e Endpoints) scoreboardURL() string { return e.Site + "/scoreboard" }

func (e Endpoints) newsURL() string { return e.Site + "/news" }

func (e Endpoints) summaryURL(eventID string) string {
	return e.Site + "/summary?event=" + url.QueryEscape(eventID)
}

func (e Endpoints) standingsURL() string { return e.Standings }

func (e Endpoints) searchURL(query string) string {
	v := url.Values{}
	v.Set("query", query)
	v.Set("limit", strconv.Itoa(searchLimit))
	v.Set("type", "player")
	return e.Search + "?" + v.Encode()
}

func (e Endpoints) athleteURL(id string) string {
	return e.Athletes + "/" + url.PathEscape(id)
}

func (e Endpoints) athleteStatsURL(id string) string {
	return e.AthleteStats + "/" + url.PathEscape(id) + "/stats"
}

func (e Endpoints) athleteGameLogURL(id string) string {
	return e.AthleteStats + "/" + url.PathEscape(id) + "/gamelog"
}

func (e Endpoints) leadersURL() string { return e.Leaders }

func (e Endpoints) redditURL() string {
	if e.RedditProxy == "" {
		return e.Reddit
	}
	return e.RedditProxy + url.QueryEscape(e.Reddit)
}
