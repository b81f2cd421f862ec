package model

import "time"

// ContentType labels the extracted content of a stashed document.
type ContentType string

const (
	ContentTypeWebPage ContentType = "web_page"
	ContentTypePDF     ContentType = "pdf"
	ContentTypeText    ContentType = "text"
)

// Document is a catalog record for one stashed document. The extracted
// text itself lives on disk under the stash directory; the catalog holds
// metadata only.
type Document struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SourceURL   string      `json:"source_url,omitempty"`
	Filename    string      `json:"filename"`
	ContentType ContentType `json:"content_type"`
	PageCount   int         `json:"page_count,omitempty"`
	Author      string      `json:"author,omitempty"`
	SizeChars   int         `json:"size_chars"`
	AddedAt     time.Time   `json:"added_at"`
}

// Topic is a classification label attached to stashed documents.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FetchedPage is the output of the page-fetch / PDF-parse collaborators:
// extracted plain text plus whatever metadata the source carried.
type FetchedPage struct {
	URL         string      `json:"url"`
	Title       string      `json:"title,omitempty"`
	Author      string      `json:"author,omitempty"`
	Text        string      `json:"text"`
	ContentType ContentType `json:"content_type"`
	PageCount   int         `json:"page_count,omitempty"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// AskResult is the final answer from the ask pipeline. ChunksProcessed is 1
// when the document fit a single model call; the synthesis call is not
// counted.
type AskResult struct {
	Answer          string `json:"answer"`
	Model           string `json:"model"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// Classification is the parsed result of one topic-inference model call.
type Classification struct {
	Topics  []string `json:"topics"`
	Summary string   `json:"summary,omitempty"`
}
