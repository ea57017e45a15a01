package resource

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// Kind names a resource type. Each kind has its own freshness policy.
type Kind string

const (
	Scoreboard       Kind = "scoreboard"
	Standings        Kind = "standings"
	Search           Kind = "search"
	PlayerDetails    Kind = "player_details"
	PlayerStats      Kind = "player_stats"
	PlayerGameLog    Kind = "player_gamelog"
	GameSummaryLive  Kind = "game_summary_live"
	GameSummaryFinal Kind = "game_summary_final"
	News             Kind = "news"
	StatLeaders      Kind = "stat_leaders"
)

// Policies maps each kind to how long a fetched value stays fresh. The TTLs
// follow how often the underlying data changes: live scores within seconds,
// standings once per completed game, player bios almost never.
type Policies map[Kind]time.Duration

// DefaultPolicies returns the standard freshness table.
func DefaultPolicies() Policies {
	return Policies{
		Scoreboard:       time.Minute,
		Standings:        60 * time.Minute,
		Search:           1440 * time.Minute,
		PlayerDetails:    1440 * time.Minute,
		PlayerStats:      720 * time.Minute,
		PlayerGameLog:    60 * time.Minute,
		GameSummaryLive:  time.Minute,
		GameSummaryFinal: 1440 * time.Minute,
		News:             15 * time.Minute,
		StatLeaders:      60 * time.Minute,
	}
}

// ErrUnknownKind is returned when overriding a kind that has no policy.
var ErrUnknownKind = errors.New("unknown resource kind")

// Kinds lists the kinds with a policy, sorted.
func (p Policies) Kinds() []Kind {
	kinds := make([]Kind, 0, len(p))
	for k := range p {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TTL returns the lifetime for kind, zero if the kind has no policy.
func (p Policies) TTL(kind Kind) time.Duration {
	return p[kind]
}

// Override replaces the TTL of an existing kind.
func (p Policies) Override(kind Kind, ttl time.Duration) error {
	if _, ok := p[kind]; !ok {
		return errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	if ttl < 0 {
		return errors.Newf("ttl for %q must not be negative, got %s", kind, ttl)
	}
	p[kind] = ttl
	return nil
}

// Clone returns an independent copy.
func (p Policies) Clone() Policies {
	out := make(Policies, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type summaryStatus struct {
	Header struct {
		Competitions []struct {
			Status struct {
				Type struct {
					State     string `json:"state"`
					Completed bool   `json:"completed"`
				} `json:"type"`
			} `json:"status"`
		} `json:"competitions"`
	} `json:"header"`
}

// GameState is the upstream game state: "pre", "in" or "post".
func GameState(payload json.RawMessage) string {
	var status summaryStatus
	if err := json.Unmarshal(payload, &status); err != nil || len(status.Header.Competitions) == 0 {
		return ""
	}
	t := status.Header.Competitions[0].Status.Type
	if t.Completed && t.State == "" {
		return "post"
	}
	return t.State
}

// IsFinal reports whether a game summary payload describes a concluded game.
func IsFinal(payload json.RawMessage) bool {
	return GameState(payload) == "post"
}

// SummaryTTL picks the game summary lifetime from the fetched payload: a
// concluded game never changes again, anything else is still moving.
func (p Policies) SummaryTTL(payload json.RawMessage) time.Duration {
	if IsFinal(payload) {
		return p[GameSummaryFinal]
	}
	return p[GameSummaryLive]
}
