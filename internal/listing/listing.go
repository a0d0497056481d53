package listing

import "context"

// Posting is one raw job listing produced by a source. Identity derivation
// and deduplication happen later, at ingestion.
type Posting struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
}

// Source produces a finite sequence of raw postings. It may return an empty
// slice and it may return duplicates.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Posting, error)
}
