// Package fetch retrieves and extracts document content: web pages over
// HTTP and PDF files on disk. Extraction aims for searchable plain text,
// not markup fidelity.
package fetch

import (
	"context"

	"github.com/sells-group/docstash/internal/model"
)

// Fetcher retrieves a single source and returns its extracted content.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*model.FetchedPage, error)
}
