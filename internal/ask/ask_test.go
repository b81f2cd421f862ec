package ask

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Model:                "claude-sonnet-4-5-20250929",
		DocType:              "web page",
		MaxInputTokens:       150_000,
		MaxOutputTokens:      4096,
		Timeout:              300 * time.Second,
		HardLimitBytes:       20 * 1024 * 1024,
		ChunkOverlapChars:    500,
		PromptOverheadTokens: 2000,
	}
}

func TestAsk_MissingCapability(t *testing.T) {
	asker := New(nil)
	_, err := asker.Ask(context.Background(), "doc", "question?", testOptions())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingCapability))
}

func TestAsk_SingleCall(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("claude-sonnet-4-5-20250929", "The answer is 42."), nil).Once()

	asker := New(client)
	result, err := asker.Ask(context.Background(), "short document", "what is the answer?", testOptions())

	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", result.Answer)
	assert.Equal(t, "claude-sonnet-4-5-20250929", result.Model)
	assert.Equal(t, 1, result.ChunksProcessed)
	client.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestAsk_SingleCallPromptFraming(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("m", "ok"), nil).Once()

	asker := New(client)
	_, err := asker.Ask(context.Background(), "short document", "q?", testOptions())
	require.NoError(t, err)

	req := client.Calls[0].Arguments.Get(1)
	system := reqSystemText(t, req)
	assert.Contains(t, system, "only the provided document")
	assert.NotContains(t, system, "part")
}

func TestAsk_TooLargeWithoutSplitting(t *testing.T) {
	client := &mockAnthropicClient{}
	asker := New(client)

	opts := testOptions()
	opts.MaxInputTokens = 20_000

	// 100k chars => ~25000 estimated tokens, over the 18000-token usable budget.
	_, err := asker.Ask(context.Background(), strings.Repeat("x", 100_000), "q?", opts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTooLarge))
	assert.Contains(t, err.Error(), "25000")
	assert.Contains(t, err.Error(), "20000")
	assert.Contains(t, err.Error(), SplitFlagName)
	client.AssertNumberOfCalls(t, "CreateMessage", 0)
}

func TestAsk_ChunkedSynthesize(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("m", "answer from part"), nil).Twice()
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("m", "synthesized final answer"), nil).Once()

	asker := New(client)
	opts := testOptions()
	opts.MaxInputTokens = 20_000
	opts.SplitAndSynthesize = true

	result, err := asker.Ask(context.Background(), strings.Repeat("x", 100_000), "q?", opts)
	require.NoError(t, err)

	// Two chunks plus one synthesis call; synthesis is not counted.
	assert.Equal(t, 2, result.ChunksProcessed)
	assert.Equal(t, "synthesized final answer", result.Answer)
	client.AssertNumberOfCalls(t, "CreateMessage", 3)

	// Chunk calls carry partial-visibility framing; the synthesis prompt
	// lists every part response.
	chunkSystem := reqSystemText(t, client.Calls[0].Arguments.Get(1))
	assert.Contains(t, chunkSystem, "part 1 of 2")

	synthesisUser := reqUserText(t, client.Calls[2].Arguments.Get(1))
	assert.Contains(t, synthesisUser, "Response from Part 1")
	assert.Contains(t, synthesisUser, "Response from Part 2")
}

func TestAsk_HardLimitRejectedEvenWithSplitting(t *testing.T) {
	client := &mockAnthropicClient{}
	asker := New(client)

	opts := testOptions()
	opts.SplitAndSynthesize = true

	_, err := asker.Ask(context.Background(), strings.Repeat("x", 21*1024*1024), "q?", opts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrHardLimitExceeded))
	assert.Contains(t, err.Error(), "20 MiB")
	client.AssertNumberOfCalls(t, "CreateMessage", 0)
}

func TestAsk_EmptyCompletion(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse("m", "   "), nil).Once()

	asker := New(client)
	_, err := asker.Ask(context.Background(), "doc", "q?", testOptions())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoStructuredResponse))
}
