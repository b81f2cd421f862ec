package ask

import (
	"context"
	"testing"

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

func textResponse(modelID, text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Model:   modelID,
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}
}

func reqSystemText(t *testing.T, arg interface{}) string {
	t.Helper()
	req, ok := arg.(anthropic.MessageRequest)
	require.True(t, ok)
	require.NotEmpty(t, req.System)
	return req.System[0].Text
}

func reqUserText(t *testing.T, arg interface{}) string {
	t.Helper()
	req, ok := arg.(anthropic.MessageRequest)
	require.True(t, ok)
	require.NotEmpty(t, req.Messages)
	return req.Messages[0].Content
}
