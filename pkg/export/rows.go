// Package export turns the identity store into rows and delivers them,
// either as a CSV file on disk or as a JSON document posted to a webhook.
package export

import (
	"sort"
	"time"

	"engage/pkg/identity"
)

// Row is one exported person.
type Row struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Degree   string `json:"degree"`
	PostURL  string `json:"postUrl"`

	Categories identity.Categories `json:"-"`
}

// BuildRows returns one row per person, ordered by URL.
func BuildRows(people []identity.Person, postURL string) []Row {
	rows := make([]Row, 0, len(people))
	for _, p := range people {
		rows = append(rows, Row{
			URL:        p.URL,
			Type:       p.Categories.Label(),
			Name:       p.Name,
			Headline:   p.Headline,
			Degree:     p.Degree,
			PostURL:    postURL,
			Categories: p.Categories,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].URL < rows[j].URL })
	return rows
}

// Truncate keeps at most limit rows and reports whether any were dropped.
// A limit of zero keeps everything.
func Truncate(rows []Row, limit int) ([]Row, bool) {
	if limit <= 0 || len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}

// Batch is what a sink delivers.
type Batch struct {
	RunID     string
	PostURL   string
	ScrapedAt time.Time
	Stats     identity.Stats
	Rows      []Row
}
