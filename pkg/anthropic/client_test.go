package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponseText_SingleBlock(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "hello"}},
	}
	assert.Equal(t, "hello", resp.Text())
}

func TestMessageResponseText_MultipleBlocks(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "part one. "},
			{Type: "text", Text: "part two."},
		},
	}
	assert.Equal(t, "part one. part two.", resp.Text())
}

func TestMessageResponseText_UntypedBlock(t *testing.T) {
	// Blocks with no explicit type are treated as text.
	resp := &MessageResponse{
		Content: []ContentBlock{{Text: "untagged"}},
	}
	assert.Equal(t, "untagged", resp.Text())
}

func TestMessageResponseText_SkipsNonText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "tool_use", Text: ""},
			{Type: "text", Text: "answer"},
		},
	}
	assert.Equal(t, "answer", resp.Text())
}

func TestMessageResponseText_Empty(t *testing.T) {
	resp := &MessageResponse{}
	assert.Equal(t, "", resp.Text())
}

func TestEstimateCost_KnownModel(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 18.00, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	u := TokenUsage{InputTokens: 500, OutputTokens: 500}
	assert.Equal(t, 0.0, u.EstimateCost("some-future-model"))
}
