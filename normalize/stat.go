package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FormatStat renders a stat value with one decimal. Percentage categories are
// inconsistent upstream: some report 70.9 and others 0.709 for the same kind of
// figure. Values above 1 are taken as already scaled, the rest are multiplied
// by 100. A true 1% reported as 1.0 is indistinguishable from 100% and renders
// as "100.0%".
func FormatStat(value float64, isPercentage bool) string {
	if !isPercentage {
		return strconv.FormatFloat(value, 'f', 1, 64)
	}
	if value <= 1 {
		value *= 100
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + "%"
}

// IsPercentageCategory reports whether a leader category name or abbreviation
// denotes a percentage, e.g. "fieldGoalPct", "3P%" or "Free Throw Percentage".
func IsPercentageCategory(names ...string) bool {
	for _, name := range names {
		n := strings.ToLower(name)
		if strings.HasSuffix(n, "pct") || strings.Contains(n, "%") || strings.Contains(n, "percentage") {
			return true
		}
	}
	return false
}

// Leader is one ranked athlete within a stat category.
type Leader struct {
	AthleteID   string  `json:"athleteId"`
	Name        string  `json:"name"`
	Team        string  `json:"team,omitempty"`
	Value       float64 `json:"value"`
	DisplayText string  `json:"display"`
}

// LeaderCategory is a stat category with its leaders in upstream order.
type LeaderCategory struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Abbreviation string   `json:"abbreviation,omitempty"`
	Percentage   bool     `json:"percentage"`
	Leaders      []Leader `json:"leaders"`
}

type leadersPayload struct {
	Leaders struct {
		Categories []leaderCategoryPayload `json:"categories"`
	} `json:"leaders"`
	Categories []leaderCategoryPayload `json:"categories"`
}

type leaderCategoryPayload struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Abbreviation string `json:"abbreviation"`
	Leaders      []struct {
		Value   float64 `json:"value"`
		Athlete struct {
			ID          FlexString `json:"id"`
			DisplayName string     `json:"displayName"`
		} `json:"athlete"`
		Team struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"team"`
	} `json:"leaders"`
}

// Leaders shapes a league leaders payload into categories with formatted
// values. Both the nested `leaders.categories` and a top level `categories`
// layout are accepted.
func Leaders(raw json.RawMessage) ([]LeaderCategory, error) {
	var payload leadersPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding leaders")
	}
	source := payload.Leaders.Categories
	if len(source) == 0 {
		source = payload.Categories
	}
	categories := make([]LeaderCategory, 0, len(source))
	for _, c := range source {
		pct := IsPercentageCategory(c.Name, c.Abbreviation, c.DisplayName)
		category := LeaderCategory{
			Name:         c.Name,
			DisplayName:  c.DisplayName,
			Abbreviation: c.Abbreviation,
			Percentage:   pct,
			Leaders:      make([]Leader, 0, len(c.Leaders)),
		}
		for _, l := range c.Leaders {
			category.Leaders = append(category.Leaders, Leader{
				AthleteID:   ID(string(l.Athlete.ID)),
				Name:        l.Athlete.DisplayName,
				Team:        l.Team.Abbreviation,
				Value:       l.Value,
				DisplayText: FormatStat(l.Value, pct),
			})
		}
		categories = append(categories, category)
	}
	return categories, nil
}
