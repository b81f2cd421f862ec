// Package search runs full-text and filename search over the stash and
// merges the two match sets into one ranked result list.
package search

import (
	"sort"

	"github.com/sells-group/docstash/internal/model"
)

// ContentMatches maps a document ID to its line-addressed content hits.
type ContentMatches struct {
	DocumentID string
	Filename   string
	Matches    []model.LineMatch
}

// FilenameMatch records a document whose filename matched the query.
type FilenameMatch struct {
	DocumentID string
	Filename   string
}

// Aggregate merges content and filename matches into one result per
// distinct document. Documents matched both ways keep their content hits
// under the combined type tag. Results with a filename component sort ahead
// of pure-content results; within each group insertion order is preserved.
// maxPerDoc truncates content hits, keeping the earliest lines.
func Aggregate(content []ContentMatches, filenames []FilenameMatch, maxPerDoc int) []model.SearchResult {
	byID := make(map[string]*model.SearchResult)
	var order []string

	for _, fm := range filenames {
		if _, seen := byID[fm.DocumentID]; seen {
			continue
		}
		byID[fm.DocumentID] = &model.SearchResult{
			DocumentID: fm.DocumentID,
			Filename:   fm.Filename,
			MatchType:  model.MatchTypeFilename,
		}
		order = append(order, fm.DocumentID)
	}

	for _, cm := range content {
		// Sort a copy; the caller's slice stays untouched.
		matches := append([]model.LineMatch(nil), cm.Matches...)
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Line < matches[j].Line })
		if maxPerDoc > 0 && len(matches) > maxPerDoc {
			matches = matches[:maxPerDoc]
		}

		if existing, seen := byID[cm.DocumentID]; seen {
			existing.MatchType = model.MatchTypeBoth
			existing.Matches = matches
			continue
		}
		byID[cm.DocumentID] = &model.SearchResult{
			DocumentID: cm.DocumentID,
			Filename:   cm.Filename,
			MatchType:  model.MatchTypeContent,
			Matches:    matches,
		}
		order = append(order, cm.DocumentID)
	}

	results := make([]model.SearchResult, 0, len(order))
	for _, id := range order {
		results = append(results, *byID[id])
	}

	// Filename-component entries first; otherwise keep insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		return hasFilenameComponent(results[i]) && !hasFilenameComponent(results[j])
	})
	return results
}

func hasFilenameComponent(r model.SearchResult) bool {
	return r.MatchType == model.MatchTypeFilename || r.MatchType == model.MatchTypeBoth
}
