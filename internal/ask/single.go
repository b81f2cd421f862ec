package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docstash/pkg/anthropic"
)

const singleSystemPrompt = `You are answering a question about a %s. Answer using only the provided document content. If the document does not contain the information needed, say so plainly.`

const chunkSystemPrompt = `You are answering a question about a %s. You can only see part %d of %d of the document. Answer using only the visible portion. A partial answer is fine, and if this portion contains nothing relevant to the question, simply say it contains no relevant information.`

const singleUserPrompt = `Document content:
---
%s
---

%s`

// callInput is one unit of work for the single-call processor: the full
// document, or one chunk with its position.
type callInput struct {
	text        string
	instruction string
	docType     string
	ordinal     int // 0 when processing the whole document
	total       int
}

// processSingle issues exactly one model completion call for the given text
// unit and returns the plain-text answer plus the responding model ID.
// Retry policy, if any, belongs to the caller.
func (a *Asker) processSingle(ctx context.Context, in callInput, opts Options) (string, string, error) {
	docType := in.docType
	if docType == "" {
		docType = "document"
	}

	var system string
	if in.ordinal > 0 {
		system = fmt.Sprintf(chunkSystemPrompt, docType, in.ordinal, in.total)
	} else {
		system = fmt.Sprintf(singleSystemPrompt, docType)
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	resp, err := a.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     opts.Model,
		MaxTokens: int64(opts.MaxOutputTokens),
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(singleUserPrompt, in.text, in.instruction)},
		},
	})
	if err != nil {
		return "", "", err
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", "", eris.Wrap(ErrNoStructuredResponse, "ask: empty completion")
	}

	resp.Usage.LogCost(resp.Model, "ask")
	return answer, resp.Model, nil
}
