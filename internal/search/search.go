// Package search provides card search with a Meilisearch primary and a
// Postgres full-text fallback.
package search

import "strings"

// Result is one card hit.
type Result struct {
	CardID   int64  `json:"card_id"`
	ColumnID int64  `json:"column_id"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Query is a card search scoped to one user's board.
type Query struct {
	Text     string
	Username string
	Limit    int
}

// Response is the wire shape of a search.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// CardRecord is a card as stored in the search index. Owner lets one index
// serve every user while keeping results scoped.
type CardRecord struct {
	ID       int64  `json:"id"`
	ColumnID int64  `json:"columnId"`
	Title    string `json:"title"`
	Details  string `json:"details"`
	Owner    string `json:"owner"`
}

const snippetLength = 160

func snippet(details string) string {
	details = strings.TrimSpace(details)
	if len(details) <= snippetLength {
		return details
	}
	cut := details[:snippetLength]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
