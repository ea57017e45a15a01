package resource

import "strings"

// Cache keys. Identical logical requests always map to the same key; typed
// search text is trimmed and lowercased first.

func ScoreboardKey() string { return "scoreboard" }

func StandingsKey() string { return "standings" }

func NewsKey() string { return "nba_news" }

func StatLeadersKey() string { return "stat_leaders" }

func SearchKey(query string) string {
	return "search_" + normalizeQuery(query)
}

func PlayerDetailsKey(id string) string { return "player_details_" + id }

func PlayerStatsKey(id string) string { return "player_stats_" + id }

func PlayerGameLogKey(id string) string { return "player_gamelog_" + id }

func GameSummaryKey(eventID string) string { return "game_summary_" + eventID }

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
