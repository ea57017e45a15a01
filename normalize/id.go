package normalize

import (
	"strconv"
	"strings"
)

// athleteMarker precedes the athlete segment of a compound uid such as
// "s:40~l:46~a:1966".
const athleteMarker = "~a:"

// ID returns the canonical numeric identifier for id. A numeric id is
// returned unchanged. A compound uid yields its athlete segment, and anything
// else, including the empty string, is returned as is.
func ID(id string) string {
	if isNumeric(id) {
		return id
	}
	_, rest, found := strings.Cut(id, athleteMarker)
	if !found {
		return id
	}
	segment, _, _ := strings.Cut(rest, "~")
	if segment == "" {
		return id
	}
	return segment
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
