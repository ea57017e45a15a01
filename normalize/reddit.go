package normalize

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// RedditBaseURL prefixes post permalinks.
const RedditBaseURL = "https://www.reddit.com"

// Post is a social feed post reduced to what the feed view shows.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Author      string  `json:"author"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	Thumbnail   *string `json:"thumbnail"`
	Created     float64 `json:"created"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				Ups         int     `json:"ups"`
				NumComments int     `json:"num_comments"`
				Thumbnail   string  `json:"thumbnail"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Posts reshapes a subreddit listing. Placeholder thumbnails ("self",
// "default", "nsfw", ...) and anything that is not an http(s) URL become nil.
func Posts(raw json.RawMessage) ([]Post, error) {
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, errors.Wrap(err, "decoding listing")
	}
	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data
		posts = append(posts, Post{
			ID:          p.ID,
			Title:       p.Title,
			URL:         RedditBaseURL + p.Permalink,
			Author:      p.Author,
			Ups:         p.Ups,
			NumComments: p.NumComments,
			Thumbnail:   thumbnail(p.Thumbnail),
			Created:     p.CreatedUTC,
		})
	}
	return posts, nil
}

func thumbnail(s string) *string {
	if s == "self" || s == "default" || !strings.HasPrefix(s, "http") {
		return nil
	}
	return &s
}
