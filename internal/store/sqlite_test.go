package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docstash/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testDocument(filename string) model.Document {
	return model.Document{
		Title:       "Test Document",
		SourceURL:   "https://example.com/doc",
		Filename:    filename,
		ContentType: model.ContentTypeWebPage,
		SizeChars:   1234,
	}
}

func TestSQLite_CreateAndGetDocument(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateDocument(ctx, testDocument("example-doc.md"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.AddedAt.IsZero())

	got, err := st.GetDocument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "example-doc.md", got.Filename)
	assert.Equal(t, model.ContentTypeWebPage, got.ContentType)
	assert.Equal(t, 1234, got.SizeChars)
}

func TestSQLite_GetDocument_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetDocument(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_GetDocumentByFilename(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateDocument(ctx, testDocument("unique-name.md"))
	require.NoError(t, err)

	got, err := st.GetDocumentByFilename(ctx, "unique-name.md")
	require.NoError(t, err)
	assert.Equal(t, "unique-name.md", got.Filename)
}

func TestSQLite_FindDocumentsByFilename(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"go-networking.md", "go-testing.md", "python-intro.md"} {
		_, err := st.CreateDocument(ctx, testDocument(name))
		require.NoError(t, err)
	}

	docs, err := st.FindDocumentsByFilename(ctx, "go-")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = st.FindDocumentsByFilename(ctx, "rust")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSQLite_ListDocuments_Filtered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	web := testDocument("page.md")
	_, err := st.CreateDocument(ctx, web)
	require.NoError(t, err)

	pdf := testDocument("paper.pdf")
	pdf.ContentType = model.ContentTypePDF
	created, err := st.CreateDocument(ctx, pdf)
	require.NoError(t, err)
	require.NoError(t, st.AssignTopics(ctx, created.ID, []string{"research"}))

	docs, err := st.ListDocuments(ctx, DocumentFilter{ContentType: model.ContentTypePDF})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "paper.pdf", docs[0].Filename)

	docs, err = st.ListDocuments(ctx, DocumentFilter{Topic: "research"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "paper.pdf", docs[0].Filename)

	docs, err = st.ListDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSQLite_DeleteDocument(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateDocument(ctx, testDocument("doomed.md"))
	require.NoError(t, err)

	require.NoError(t, st.DeleteDocument(ctx, created.ID))

	_, err = st.GetDocument(ctx, created.ID)
	assert.Error(t, err)

	err = st.DeleteDocument(ctx, created.ID)
	assert.Error(t, err, "deleting twice should report not found")
}

func TestSQLite_EnsureTopic_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.EnsureTopic(ctx, "networking", "network stuff")
	require.NoError(t, err)

	second, err := st.EnsureTopic(ctx, "networking", "different description")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "network stuff", second.Description)
}

func TestSQLite_AssignTopicsAndListByTopic(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateDocument(ctx, testDocument("notes.md"))
	require.NoError(t, err)

	require.NoError(t, st.AssignTopics(ctx, created.ID, []string{"go", "networking"}))
	// Re-assigning is a no-op, not an error.
	require.NoError(t, st.AssignTopics(ctx, created.ID, []string{"go"}))

	topics, err := st.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "go", topics[0].Name)
	assert.Equal(t, "networking", topics[1].Name)
}
