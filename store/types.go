package store

// Ranking is one observation of a keyword's ranking for a domain at a
// point in time.
type Ranking struct {
	ID               string  `json:"id"`
	Keyword          string  `json:"keyword"`
	Domain           string  `json:"domain"`
	CheckedAt        int64   `json:"checked_at"` // ms since epoch
	Found            bool    `json:"found"`
	Position         *int64  `json:"position,omitempty"`
	Link             *string `json:"link,omitempty"`
	Title            *string `json:"title,omitempty"`
	Snippet          *string `json:"snippet,omitempty"`
	TotalResults     *int64  `json:"total_results,omitempty"`
	SearchParamsJSON string  `json:"search_params"`
}

// Stats are aggregate counters over the rankings table.
type Stats struct {
	Rankings int64 `json:"rankings"`
	Keywords int64 `json:"keywords"`
	Domains  int64 `json:"domains"`
}
