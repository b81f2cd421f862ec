// Package stash ties the catalog, fetcher, cache, ask pipeline, and
// classifier together into the operations the CLI and HTTP server expose.
package stash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docstash/internal/ask"
	"github.com/sells-group/docstash/internal/classify"
	"github.com/sells-group/docstash/internal/contentcache"
	"github.com/sells-group/docstash/internal/fetch"
	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/internal/search"
	"github.com/sells-group/docstash/internal/store"
)

// Options carries the service-level configuration.
type Options struct {
	Dir             string
	InboxDir        string
	Ask             ask.Options
	SearchMaxPerDoc int
	SearchTimeout   time.Duration
	ReindexWorkers  int
}

// Service is the document-retrieval assistant core.
type Service struct {
	store      store.Store
	fetcher    fetch.Fetcher
	cache      *contentcache.Cache
	asker      *ask.Asker
	classifier *classify.Classifier
	rg         *search.Ripgrep
	opts       Options
}

// New wires a Service from its collaborators.
func New(st store.Store, fetcher fetch.Fetcher, cache *contentcache.Cache, asker *ask.Asker, classifier *classify.Classifier, rg *search.Ripgrep, opts Options) *Service {
	if opts.ReindexWorkers <= 0 {
		opts.ReindexWorkers = 4
	}
	return &Service{
		store:      st,
		fetcher:    fetcher,
		cache:      cache,
		asker:      asker,
		classifier: classifier,
		rg:         rg,
		opts:       opts,
	}
}

// FetchURL returns the extracted content of url, from cache when possible.
func (s *Service) FetchURL(ctx context.Context, url string) (*model.FetchedPage, error) {
	if entry, ok := s.cache.Get(url); ok {
		zap.L().Debug("content cache hit", zap.String("url", url))
		return &model.FetchedPage{
			URL:         url,
			Title:       entry.Metadata["title"],
			Author:      entry.Metadata["author"],
			Text:        entry.Content,
			ContentType: entry.ContentType,
			FetchedAt:   entry.FetchedAt,
		}, nil
	}

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	s.cache.Put(url, page.Text, map[string]string{
		"title":  page.Title,
		"author": page.Author,
	}, page.ContentType)
	return page, nil
}

// AskURL fetches url and answers instruction against its content.
func (s *Service) AskURL(ctx context.Context, url, instruction string) (*model.AskResult, error) {
	page, err := s.FetchURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.asker.Ask(ctx, page.Text, instruction, s.askOptions(page.ContentType))
}

// AskDocument answers instruction against a stashed document.
func (s *Service) AskDocument(ctx context.Context, documentID, instruction string) (*model.AskResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	text, err := s.documentText(doc)
	if err != nil {
		return nil, err
	}
	return s.asker.Ask(ctx, text, instruction, s.askOptions(doc.ContentType))
}

func (s *Service) documentText(doc *model.Document) (string, error) {
	if entry, ok := s.cache.Get(doc.ID); ok {
		return entry.Content, nil
	}
	data, err := os.ReadFile(filepath.Join(s.opts.Dir, doc.Filename))
	if err != nil {
		return "", eris.Wrapf(err, "stash: read document %s", doc.Filename)
	}
	text := string(data)
	s.cache.Put(doc.ID, text, map[string]string{"title": doc.Title}, doc.ContentType)
	return text, nil
}

func (s *Service) askOptions(ct model.ContentType) ask.Options {
	opts := s.opts.Ask
	switch ct {
	case model.ContentTypePDF:
		opts.DocType = "PDF document"
	case model.ContentTypeWebPage:
		opts.DocType = "web page"
	default:
		opts.DocType = "document"
	}
	return opts
}

// AddURL fetches url and stores its extracted text in the stash.
func (s *Service) AddURL(ctx context.Context, url string) (*model.Document, error) {
	page, err := s.FetchURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.addPage(ctx, page)
}

// AddFile stores a local file (PDF or plain text) in the stash.
func (s *Service) AddFile(ctx context.Context, path string) (*model.Document, error) {
	page, err := extractFile(path)
	if err != nil {
		return nil, err
	}
	return s.addPage(ctx, page)
}

func extractFile(path string) (*model.FetchedPage, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fetch.ParsePDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stash: read file %s", path)
	}
	name := filepath.Base(path)
	return &model.FetchedPage{
		URL:         path,
		Title:       strings.TrimSuffix(name, filepath.Ext(name)),
		Text:        string(data),
		ContentType: model.ContentTypeText,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (s *Service) addPage(ctx context.Context, page *model.FetchedPage) (*model.Document, error) {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "stash: create stash dir")
	}

	filename := s.stashFilename(page)
	if err := os.WriteFile(filepath.Join(s.opts.Dir, filename), []byte(page.Text), 0o644); err != nil {
		return nil, eris.Wrapf(err, "stash: write %s", filename)
	}

	doc, err := s.store.CreateDocument(ctx, model.Document{
		Title:       page.Title,
		SourceURL:   page.URL,
		Filename:    filename,
		ContentType: page.ContentType,
		PageCount:   page.PageCount,
		Author:      page.Author,
		SizeChars:   len(page.Text),
	})
	if err != nil {
		return nil, err
	}

	s.cache.Put(doc.ID, page.Text, map[string]string{"title": doc.Title}, doc.ContentType)
	zap.L().Info("document stashed",
		zap.String("id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chars", doc.SizeChars),
	)
	return doc, nil
}

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// stashFilename derives an on-disk name from the page title or source,
// with a short random suffix to avoid collisions.
func (s *Service) stashFilename(page *model.FetchedPage) string {
	base := page.Title
	if base == "" {
		base = page.URL
	}
	base = unsafeNameRe.ReplaceAllString(strings.ToLower(base), "-")
	base = strings.Trim(base, "-.")
	if len(base) > 80 {
		base = base[:80]
	}
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s-%s.txt", base, uuid.New().String()[:8])
}

// List returns catalog entries matching filter.
func (s *Service) List(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	return s.store.ListDocuments(ctx, filter)
}

// Topics returns all known topics.
func (s *Service) Topics(ctx context.Context) ([]model.Topic, error) {
	return s.store.ListTopics(ctx)
}

// Remove deletes a document from the catalog and the stash directory.
func (s *Service) Remove(ctx context.Context, documentID string) error {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.opts.Dir, doc.Filename)); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "stash: remove %s", doc.Filename)
	}
	return nil
}

// Search runs content search (ripgrep over the stash directory) and
// filename search (catalog) and merges the results.
func (s *Service) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	searchCtx := ctx
	if s.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.opts.SearchTimeout)
		defer cancel()
	}

	hitsByPath, err := s.rg.Search(searchCtx, query, s.opts.Dir)
	if err != nil {
		return nil, err
	}

	var content []search.ContentMatches
	for path, matches := range hitsByPath {
		filename := filepath.Base(path)
		doc, err := s.store.GetDocumentByFilename(ctx, filename)
		if err != nil {
			// A stray file in the stash dir is not a search failure.
			zap.L().Warn("content match has no catalog entry", zap.String("filename", filename))
			continue
		}
		content = append(content, search.ContentMatches{
			DocumentID: doc.ID,
			Filename:   filename,
			Matches:    matches,
		})
	}
	// Map iteration order is random; aggregation promises stable input order.
	sort.Slice(content, func(i, j int) bool { return content[i].Filename < content[j].Filename })

	nameDocs, err := s.store.FindDocumentsByFilename(ctx, query)
	if err != nil {
		return nil, err
	}
	filenames := make([]search.FilenameMatch, 0, len(nameDocs))
	for _, doc := range nameDocs {
		filenames = append(filenames, search.FilenameMatch{DocumentID: doc.ID, Filename: doc.Filename})
	}

	return search.Aggregate(content, filenames, s.opts.SearchMaxPerDoc), nil
}

// InboxResult reports a batch inbox run: everything processed plus every
// per-item failure. One bad file never aborts the batch.
type InboxResult struct {
	Processed []model.Document `json:"processed"`
	Failures  []ItemError      `json:"failures,omitempty"`
}

// ItemError records one failed batch item.
type ItemError struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// ProcessInbox classifies and stashes every file in the inbox directory.
func (s *Service) ProcessInbox(ctx context.Context) (*InboxResult, error) {
	entries, err := os.ReadDir(s.opts.InboxDir)
	if err != nil {
		return nil, eris.Wrapf(err, "stash: read inbox %s", s.opts.InboxDir)
	}

	result := &InboxResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.opts.InboxDir, entry.Name())

		doc, err := s.processInboxItem(ctx, path)
		if err != nil {
			zap.L().Warn("inbox item failed",
				zap.String("item", entry.Name()),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, ItemError{Item: entry.Name(), Error: err.Error()})
			continue
		}
		result.Processed = append(result.Processed, *doc)
	}
	return result, nil
}

func (s *Service) processInboxItem(ctx context.Context, path string) (*model.Document, error) {
	page, err := extractFile(path)
	if err != nil {
		return nil, err
	}

	cls, err := s.classifier.Classify(ctx, filepath.Base(path), page.Text)
	if err != nil {
		return nil, err
	}

	doc, err := s.addPage(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := s.store.AssignTopics(ctx, doc.ID, cls.Topics); err != nil {
		return nil, err
	}

	if err := os.Remove(path); err != nil {
		return nil, eris.Wrapf(err, "stash: remove inbox item %s", path)
	}
	return doc, nil
}

// ReindexResult reports a reindex pass over the catalog.
type ReindexResult struct {
	Checked  int         `json:"checked"`
	Missing  []string    `json:"missing,omitempty"`
	Failures []ItemError `json:"failures,omitempty"`
}

// Reindex verifies that every catalog entry still has its stash file,
// checking documents concurrently. Missing files are reported, not deleted.
func (s *Service) Reindex(ctx context.Context) (*ReindexResult, error) {
	docs, err := s.store.ListDocuments(ctx, store.DocumentFilter{Limit: 10000})
	if err != nil {
		return nil, err
	}

	result := &ReindexResult{Checked: len(docs)}
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ReindexWorkers)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			_, statErr := os.Stat(filepath.Join(s.opts.Dir, doc.Filename))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case os.IsNotExist(statErr):
				result.Missing = append(result.Missing, doc.Filename)
			case statErr != nil:
				result.Failures = append(result.Failures, ItemError{Item: doc.Filename, Error: statErr.Error()})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// CacheStats exposes content cache occupancy.
func (s *Service) CacheStats() contentcache.Stats {
	return s.cache.Stats()
}

// ClearCache drops all cached content.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
