package ask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChunks_SmallTextSingleChunk(t *testing.T) {
	chunks, err := ComputeChunks("hello world", 1000, 100, 500)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[0].Total)
}

func TestComputeChunks_OverlapAndCoverage(t *testing.T) {
	// usable 300, overhead 50 => 250 tokens => 1000 chars per chunk.
	text := strings.Repeat("x", 2500)
	chunks, err := ComputeChunks(text, 300, 50, 500)
	require.NoError(t, err)

	// Step is 500, so chunks start at 0, 500, 1000, 1500, 2000.
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, i+1, c.Ordinal)
		assert.Equal(t, 5, c.Total)
	}
	assert.Len(t, chunks[0].Text, 1000)
	assert.Len(t, chunks[4].Text, 500)
}

func TestComputeChunks_Totality(t *testing.T) {
	// Concatenating spans minus the overlap regions must reconstruct the
	// original text exactly.
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	text := sb.String()

	overlap := 500
	chunks, err := ComputeChunks(text, 400, 100, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	rebuilt := chunks[0].Text
	for _, c := range chunks[1:] {
		rebuilt += c.Text[overlap:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestComputeChunks_TwoChunkScenario(t *testing.T) {
	// 100k chars at a 20000-token input budget with 2000 overhead tokens
	// gives 72000-char chunks: exactly two of them.
	text := strings.Repeat("x", 100_000)
	chunks, err := ComputeChunks(text, 20_000, 2000, 500)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestComputeChunks_NonPositiveSize(t *testing.T) {
	_, err := ComputeChunks("text", 100, 100, 500)
	assert.Error(t, err)

	_, err = ComputeChunks("text", 50, 100, 500)
	assert.Error(t, err)
}

func TestComputeChunks_OverlapLargerThanChunk(t *testing.T) {
	// Degenerate overlap must not loop forever.
	text := strings.Repeat("x", 100)
	chunks, err := ComputeChunks(text, 6, 1, 500)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	rebuilt := ""
	for _, c := range chunks {
		rebuilt += c.Text
	}
	assert.Equal(t, text, rebuilt)
}

func TestComputeChunks_EmptyText(t *testing.T) {
	chunks, err := ComputeChunks("", 1000, 100, 500)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
}
