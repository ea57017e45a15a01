package normalize

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// amateurMarkers in a subtitle point at a non-professional affiliation.
var amateurMarkers = []string{"college", "ncaa", "university"}

// minSubtitleLength is the length past which a subtitle without a "|"
// separator is still taken to describe a current team.
const minSubtitleLength = 10

// Image is an upstream image reference.
type Image struct {
	Default string `json:"default,omitempty"`
}

// SearchResult is one entity returned by the multi-sport search endpoint.
type SearchResult struct {
	ID                FlexString `json:"id"`
	UID               string     `json:"uid"`
	DisplayName       string     `json:"displayName"`
	Subtitle          string     `json:"subtitle,omitempty"`
	Description       string     `json:"description,omitempty"`
	DefaultLeagueSlug string     `json:"defaultLeagueSlug,omitempty"`
	Sport             string     `json:"sport,omitempty"`
	Image             *Image     `json:"image,omitempty"`
	// NumericalID is the id used for every detail request about this player.
	NumericalID string `json:"numericalId,omitempty"`
}

type searchPayload struct {
	Results []struct {
		Type     string         `json:"type"`
		Contents []SearchResult `json:"contents"`
	} `json:"results"`
}

// SearchResults extracts the contents of the result group of the given type,
// e.g. "player". A payload without that group yields an empty slice.
func SearchResults(raw json.RawMessage, kind string) ([]SearchResult, error) {
	var payload searchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding search results")
	}
	for _, group := range payload.Results {
		if group.Type == kind {
			return group.Contents, nil
		}
	}
	return []SearchResult{}, nil
}

// InScope reports whether r is a current professional in league: the league
// tag matches, the subtitle carries no amateur affiliation and the subtitle
// looks like a team line such as "LAL | F". A result without a subtitle is
// never in scope.
func InScope(r SearchResult, league string) bool {
	if !strings.EqualFold(r.DefaultLeagueSlug, league) && r.Description != strings.ToUpper(league) {
		return false
	}
	if r.Subtitle == "" {
		return false
	}
	subtitle := strings.ToLower(r.Subtitle)
	for _, marker := range amateurMarkers {
		if strings.Contains(subtitle, marker) {
			return false
		}
	}
	return strings.Contains(r.Subtitle, "|") || utf8.RuneCountInString(r.Subtitle) > minSubtitleLength
}

// FilterSearch keeps the in-scope results and fills in NumericalID from the
// uid, falling back to the plain id when there is no uid.
func FilterSearch(results []SearchResult, league string) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if !InScope(r, league) {
			continue
		}
		r.NumericalID = ID(r.UID)
		if r.NumericalID == "" {
			r.NumericalID = string(r.ID)
		}
		out = append(out, r)
	}
	return out
}
