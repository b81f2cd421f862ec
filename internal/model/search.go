package model

// MatchType tags how a search result matched the query.
type MatchType string

const (
	MatchTypeFilename MatchType = "filename"
	MatchTypeContent  MatchType = "content"
	MatchTypeBoth     MatchType = "filename+content"
)

// LineMatch is one line-addressed content hit inside a document.
type LineMatch struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchResult is one document's aggregated search outcome. Matches is
// empty for filename-only hits.
type SearchResult struct {
	DocumentID string      `json:"document_id"`
	Filename   string      `json:"filename"`
	MatchType  MatchType   `json:"match_type"`
	Matches    []LineMatch `json:"matches,omitempty"`
}
