// Package classify infers topics for inbox documents. Oversized documents
// are never sent whole: a small set of representative excerpts is sampled
// under a strict character budget first.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/pkg/anthropic"
)

// ErrNoStructuredResponse means the classification reply was not valid JSON.
var ErrNoStructuredResponse = eris.New("classification response is not valid JSON")

const classifySystemPrompt = `You classify documents into topics for a local document stash. Given document excerpts, respond with a valid JSON object and nothing else: {"topics": ["<topic>", ...], "summary": "<one sentence>"}. Use 1-3 short lowercase topic names. Excerpts are labeled with their position in the document; the document may be much larger than what you see.`

const classifyUserPrompt = `Filename: %s

Document excerpts:
%s`

const classifyMaxTokens = 512

// Classifier runs topic inference over sampled document excerpts.
type Classifier struct {
	client     anthropic.Client
	model      string
	budget     int
	chunkCount int
	timeout    time.Duration
	randFn     func() float64
}

// New creates a Classifier. randFn feeds the sampler's random slots; pass
// nil outside tests to use the package default.
func New(client anthropic.Client, modelID string, budget, chunkCount int, timeout time.Duration, randFn func() float64) *Classifier {
	return &Classifier{
		client:     client,
		model:      modelID,
		budget:     budget,
		chunkCount: chunkCount,
		timeout:    timeout,
		randFn:     randFn,
	}
}

// Classify samples text and issues one classification call.
func (c *Classifier) Classify(ctx context.Context, filename, text string) (*model.Classification, error) {
	if c.client == nil {
		return nil, eris.New("classify: no model client configured (set anthropic.key)")
	}

	sampled := Sample(text, c.budget, c.chunkCount, c.randFn)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: classifyMaxTokens,
		System:    []anthropic.SystemBlock{{Text: classifySystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(classifyUserPrompt, filename, sampled)},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "classify: %s", filename)
	}
	resp.Usage.LogCost(resp.Model, "classify")

	var result model.Classification
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text())), &result); err != nil {
		return nil, eris.Wrapf(ErrNoStructuredResponse, "classify: %s: %v", filename, err)
	}
	if len(result.Topics) == 0 {
		return nil, eris.Wrapf(ErrNoStructuredResponse, "classify: %s: no topics in response", filename)
	}
	return &result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// sometimes add despite the JSON-only instruction.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	} else {
		return text
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
