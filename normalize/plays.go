package normalize

import (
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
)

// Play is one play-by-play event of a game.
type Play struct {
	ID          FlexString `json:"id"`
	Text        string     `json:"text"`
	Type        string     `json:"type,omitempty"`
	Clock       string     `json:"clock"`
	Period      int        `json:"period"`
	TeamID      string     `json:"teamId,omitempty"`
	ScoringPlay bool       `json:"scoringPlay"`
	ScoreValue  int        `json:"scoreValue"`
	HomeScore   int        `json:"homeScore"`
	AwayScore   int        `json:"awayScore"`
}

// Period groups the plays of one period in game order.
type Period struct {
	Number      int    `json:"number"`
	DisplayName string `json:"displayName,omitempty"`
	Plays       []Play `json:"plays"`
}

type playsPayload struct {
	Plays []struct {
		ID   FlexString `json:"id"`
		Text string     `json:"text"`
		Type struct {
			Text string `json:"text"`
		} `json:"type"`
		Clock struct {
			DisplayValue string `json:"displayValue"`
		} `json:"clock"`
		Period struct {
			Number       int    `json:"number"`
			DisplayValue string `json:"displayValue"`
		} `json:"period"`
		Team *struct {
			ID FlexString `json:"id"`
		} `json:"team"`
		ScoringPlay bool `json:"scoringPlay"`
		ScoreValue  int  `json:"scoreValue"`
		HomeScore   int  `json:"homeScore"`
		AwayScore   int  `json:"awayScore"`
	} `json:"plays"`
}

// Plays extracts the play-by-play of a game summary grouped by period,
// periods ascending. A summary without plays (a game not yet started)
// yields an empty slice.
func Plays(raw json.RawMessage) ([]Period, error) {
	var payload playsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding plays")
	}
	byNumber := map[int]*Period{}
	for _, p := range payload.Plays {
		period, ok := byNumber[p.Period.Number]
		if !ok {
			period = &Period{Number: p.Period.Number, DisplayName: p.Period.DisplayValue, Plays: []Play{}}
			byNumber[p.Period.Number] = period
		}
		play := Play{
			ID:          p.ID,
			Text:        p.Text,
			Type:        p.Type.Text,
			Clock:       p.Clock.DisplayValue,
			Period:      p.Period.Number,
			ScoringPlay: p.ScoringPlay,
			ScoreValue:  p.ScoreValue,
			HomeScore:   p.HomeScore,
			AwayScore:   p.AwayScore,
		}
		if p.Team != nil {
			play.TeamID = string(p.Team.ID)
		}
		period.Plays = append(period.Plays, play)
	}
	periods := make([]Period, 0, len(byNumber))
	for _, p := range byNumber {
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Number < periods[j].Number })
	return periods, nil
}
