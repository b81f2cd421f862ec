package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docstash/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	filename     TEXT NOT NULL UNIQUE,
	content_type TEXT NOT NULL,
	page_count   INTEGER NOT NULL DEFAULT 0,
	author       TEXT NOT NULL DEFAULT '',
	size_chars   INTEGER NOT NULL DEFAULT 0,
	added_at     TIMESTAMPTZ NOT NULL DEFAULT now()
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

CREATE INDEX IF NOT EXISTS idx_documents_content_type ON documents(content_type);
CREATE INDEX IF NOT EXISTS idx_document_topics_topic_id ON document_topics(topic_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc model.Document) (*model.Document, error) {
	doc.ID = uuid.New().String()
	doc.AddedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, source_url, filename, content_type, page_count, author, size_chars, added_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.Title, doc.SourceURL, doc.Filename, string(doc.ContentType),
		doc.PageCount, doc.Author, doc.SizeChars, doc.AddedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert document %s", doc.Filename)
	}
	return &doc, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanPostgresDocument(row)
}

func (s *PostgresStore) GetDocumentByFilename(ctx context.Context, filename string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filename = $1`, filename)
	return scanPostgresDocument(row)
}

func (s *PostgresStore) FindDocumentsByFilename(ctx context.Context, query string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filename ILIKE $1 ORDER BY added_at`,
		"%"+query+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find documents by filename")
	}
	defer rows.Close()
	return collectPostgresDocuments(rows)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if filter.ContentType != "" {
		args = append(args, string(filter.ContentType))
		query += ` AND content_type = $1`
	}
	if filter.Topic != "" {
		args = append(args, filter.Topic)
		query += ` AND id IN (
			SELECT dt.document_id FROM document_topics dt
			JOIN topics t ON t.id = dt.topic_id WHERE t.name = $` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY added_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()
	return collectPostgresDocuments(rows)
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete document %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) EnsureTopic(ctx context.Context, name, description string) (*model.Topic, error) {
	var t model.Topic
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description FROM topics WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(err, "postgres: get topic %s", name)
	}

	t = model.Topic{ID: uuid.New().String(), Name: name, Description: description}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO topics (id, name, description) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		t.ID, t.Name, t.Description,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: insert topic %s", name)
	}
	return &t, nil
}

func (s *PostgresStore) AssignTopics(ctx context.Context, documentID string, topicNames []string) error {
	for _, name := range topicNames {
		topic, err := s.EnsureTopic(ctx, name, "")
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO document_topics (document_id, topic_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			documentID, topic.ID,
		); err != nil {
			return eris.Wrapf(err, "postgres: assign topic %s to %s", name, documentID)
		}
	}
	return nil
}

func (s *PostgresStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description FROM topics ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list topics")
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan topic")
		}
		topics = append(topics, t)
	}
	return topics, eris.Wrap(rows.Err(), "postgres: list topics iterate")
}

// helpers

func scanPostgresDocument(row pgx.Row) (*model.Document, error) {
	var d model.Document
	var contentType string
	err := row.Scan(&d.ID, &d.Title, &d.SourceURL, &d.Filename, &contentType,
		&d.PageCount, &d.Author, &d.SizeChars, &d.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}
	d.ContentType = model.ContentType(contentType)
	return &d, nil
}

func collectPostgresDocuments(rows pgx.Rows) ([]model.Document, error) {
	var docs []model.Document
	for rows.Next() {
		d, err := scanPostgresDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate documents")
}
