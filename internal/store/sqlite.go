package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/docstash/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	filename     TEXT NOT NULL UNIQUE,
	content_type TEXT NOT NULL,
	page_count   INTEGER NOT NULL DEFAULT 0,
	author       TEXT NOT NULL DEFAULT '',
	size_chars   INTEGER NOT NULL DEFAULT 0,
	added_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS topics (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS document_topics (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	topic_id    TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	PRIMARY KEY (document_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents(filename);
CREATE INDEX IF NOT EXISTS idx_documents_content_type ON documents(content_type);
CREATE INDEX IF NOT EXISTS idx_document_topics_topic_id ON document_topics(topic_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const documentColumns = `id, title, source_url, filename, content_type, page_count, author, size_chars, added_at`

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc model.Document) (*model.Document, error) {
	doc.ID = uuid.New().String()
	doc.AddedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.SourceURL, doc.Filename, string(doc.ContentType),
		doc.PageCount, doc.Author, doc.SizeChars, doc.AddedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert document %s", doc.Filename)
	}
	return &doc, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

func (s *SQLiteStore) GetDocumentByFilename(ctx context.Context, filename string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filename = ?`, filename)
	return scanDocument(row)
}

func (s *SQLiteStore) FindDocumentsByFilename(ctx context.Context, query string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filename LIKE ? ORDER BY added_at`,
		"%"+query+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find documents by filename")
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if filter.ContentType != "" {
		query += ` AND content_type = ?`
		args = append(args, string(filter.ContentType))
	}
	if filter.Topic != "" {
		query += ` AND id IN (
			SELECT dt.document_id FROM document_topics dt
			JOIN topics t ON t.id = dt.topic_id WHERE t.name = ?)`
		args = append(args, filter.Topic)
	}
	query += ` ORDER BY added_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete document %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) EnsureTopic(ctx context.Context, name, description string) (*model.Topic, error) {
	var t model.Topic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM topics WHERE name = ?`, name,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err == nil {
		return &t, nil
	}
	if err != sql.ErrNoRows {
		return nil, eris.Wrapf(err, "sqlite: get topic %s", name)
	}

	t = model.Topic{ID: uuid.New().String(), Name: name, Description: description}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (id, name, description) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.Description,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert topic %s", name)
	}
	return &t, nil
}

func (s *SQLiteStore) AssignTopics(ctx context.Context, documentID string, topicNames []string) error {
	for _, name := range topicNames {
		topic, err := s.EnsureTopic(ctx, name, "")
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO document_topics (document_id, topic_id) VALUES (?, ?)`,
			documentID, topic.ID,
		); err != nil {
			return eris.Wrapf(err, "sqlite: assign topic %s to %s", name, documentID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description FROM topics ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list topics")
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan topic")
		}
		topics = append(topics, t)
	}
	return topics, eris.Wrap(rows.Err(), "sqlite: list topics iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var contentType string
	err := row.Scan(&d.ID, &d.Title, &d.SourceURL, &d.Filename, &contentType,
		&d.PageCount, &d.Author, &d.SizeChars, &d.AddedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}
	d.ContentType = model.ContentType(contentType)
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}
