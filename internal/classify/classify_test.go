package classify

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docstash/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func classifyResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Model:   "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func newTestClassifier(client anthropic.Client) *Classifier {
	return New(client, "claude-haiku-4-5-20251001", 50_000, 5, 30*time.Second, func() float64 { return 0.5 })
}

func TestClassify_ParsesTopics(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(classifyResponse(`{"topics": ["networking", "go"], "summary": "A paper on Go networking."}`), nil).Once()

	result, err := newTestClassifier(client).Classify(context.Background(), "paper.pdf", "document text")
	require.NoError(t, err)
	assert.Equal(t, []string{"networking", "go"}, result.Topics)
	assert.Equal(t, "A paper on Go networking.", result.Summary)
}

func TestClassify_StripsCodeFence(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(classifyResponse("```json\n{\"topics\": [\"history\"]}\n```"), nil).Once()

	result, err := newTestClassifier(client).Classify(context.Background(), "notes.txt", "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"history"}, result.Topics)
}

func TestClassify_InvalidJSON(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(classifyResponse("I think this is about history."), nil).Once()

	_, err := newTestClassifier(client).Classify(context.Background(), "notes.txt", "text")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoStructuredResponse))
}

func TestClassify_EmptyTopics(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(classifyResponse(`{"topics": []}`), nil).Once()

	_, err := newTestClassifier(client).Classify(context.Background(), "notes.txt", "text")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoStructuredResponse))
}

func TestClassify_MissingClient(t *testing.T) {
	_, err := newTestClassifier(nil).Classify(context.Background(), "notes.txt", "text")
	assert.Error(t, err)
}
