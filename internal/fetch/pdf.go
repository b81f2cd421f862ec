package fetch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"rsc.io/pdf"

	"github.com/sells-group/docstash/internal/model"
)

// ParsePDF extracts plain text, page count, and document info fields from
// a PDF file on disk.
func ParsePDF(path string) (page *model.FetchedPage, err error) {
	// The pdf package panics on malformed files rather than returning an
	// error. Convert that to an error so one bad file cannot take down a
	// batch.
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = eris.Errorf("fetch: parse pdf %s: %v", path, r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: open pdf %s", path)
	}

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, t := range p.Content().Text {
			// Some producers embed NUL bytes in text runs.
			sb.WriteString(strings.ReplaceAll(t.S, "\x00", ""))
		}
		sb.WriteString("\n")
	}

	page = &model.FetchedPage{
		URL:         path,
		Text:        sb.String(),
		ContentType: model.ContentTypePDF,
		PageCount:   pages,
		FetchedAt:   time.Now().UTC(),
	}

	info := r.Trailer().Key("Info")
	if !info.IsNull() {
		page.Title = infoString(info, "Title")
		page.Author = infoString(info, "Author")
	}
	if page.Title == "" {
		page.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return page, nil
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}
