package store

import (
	"context"

	"github.com/sells-group/docstash/internal/model"
)

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	ContentType model.ContentType `json:"content_type,omitempty"`
	Topic       string            `json:"topic,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Offset      int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the document catalog.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc model.Document) (*model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentByFilename(ctx context.Context, filename string) (*model.Document, error)
	FindDocumentsByFilename(ctx context.Context, query string) ([]model.Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Topics
	EnsureTopic(ctx context.Context, name, description string) (*model.Topic, error)
	AssignTopics(ctx context.Context, documentID string, topicNames []string) error
	ListTopics(ctx context.Context) ([]model.Topic, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
