// Package ask implements the large-document question pipeline: a document
// either fits one model call, or is split into overlapping chunks that are
// processed sequentially and merged by a final synthesis call.
package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/pkg/anthropic"
)

// SplitFlagName is the config key callers enable to allow chunked
// processing. Error messages reference it verbatim.
const SplitFlagName = "ask.split_and_synthesize"

// Options carries the per-invocation knobs for one ask call. All model
// calls within the invocation share the same Timeout.
type Options struct {
	Model                string
	DocType              string // e.g. "web page", "PDF document"
	MaxInputTokens       int
	MaxOutputTokens      int
	Timeout              time.Duration
	SplitAndSynthesize   bool
	HardLimitBytes       int64
	ChunkOverlapChars    int
	PromptOverheadTokens int
}

// Asker runs the ask pipeline against a model client.
type Asker struct {
	client anthropic.Client
}

// New creates an Asker. A nil client is allowed at construction; Ask
// rejects with ErrMissingCapability when invoked without one.
func New(client anthropic.Client) *Asker {
	return &Asker{client: client}
}

// Ask answers instruction against text. Documents over the hard byte
// ceiling are always rejected. Documents too large for one call are either
// rejected (splitting disabled) or chunked, processed chunk by chunk, and
// synthesized into a single answer.
func (a *Asker) Ask(ctx context.Context, text, instruction string, opts Options) (*model.AskResult, error) {
	if a.client == nil {
		return nil, eris.Wrap(ErrMissingCapability, "ask: no model client configured (set anthropic.key)")
	}

	if int64(len(text)) > opts.HardLimitBytes {
		return nil, eris.Wrapf(ErrHardLimitExceeded,
			"ask: document is %d bytes; the hard limit is %d bytes (%d MiB)",
			len(text), opts.HardLimitBytes, opts.HardLimitBytes/(1024*1024),
		)
	}

	estTokens := len(text) / CharsPerToken
	usable := opts.MaxInputTokens - opts.PromptOverheadTokens

	if estTokens > usable {
		if !opts.SplitAndSynthesize {
			return nil, eris.Wrapf(ErrTooLarge,
				"ask: document is ~%d tokens but the configured limit is %d input tokens; enable %s to process it in chunks, or use search/pagination instead",
				estTokens, opts.MaxInputTokens, SplitFlagName,
			)
		}
		return a.askChunked(ctx, text, instruction, opts)
	}

	answer, modelID, err := a.processSingle(ctx, callInput{
		text:        text,
		instruction: instruction,
		docType:     opts.DocType,
	}, opts)
	if err != nil {
		return nil, err
	}

	return &model.AskResult{Answer: answer, Model: modelID, ChunksProcessed: 1}, nil
}

const synthesisSystemPrompt = `A document was processed in parts because it was too large for a single pass. You are given one response per part. Combine them into one coherent answer to the original question, in the language of the original question. Resolve contradictions in favor of the more specific response, and give no weight to parts that reported no relevant information.`

// askChunked runs the chunk-then-synthesize path: one model call per chunk,
// strictly in order, then one synthesis call over the collected answers.
// The synthesis call is not counted in ChunksProcessed.
func (a *Asker) askChunked(ctx context.Context, text, instruction string, opts Options) (*model.AskResult, error) {
	chunks, err := ComputeChunks(text, opts.MaxInputTokens, opts.PromptOverheadTokens, opts.ChunkOverlapChars)
	if err != nil {
		return nil, eris.Wrap(err, "ask: chunk document")
	}

	zap.L().Info("splitting document for ask",
		zap.Int("chunks", len(chunks)),
		zap.Int("document_chars", len(text)),
	)

	answers := make([]string, 0, len(chunks))
	for _, c := range chunks {
		answer, _, err := a.processSingle(ctx, callInput{
			text:        c.Text,
			instruction: instruction,
			docType:     opts.DocType,
			ordinal:     c.Ordinal,
			total:       c.Total,
		}, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "ask: chunk %d/%d", c.Ordinal, c.Total)
		}
		answers = append(answers, answer)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Original question: %s\n", instruction)
	for i, answer := range answers {
		fmt.Fprintf(&sb, "\nResponse from Part %d:\n%s\n", i+1, answer)
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	resp, err := a.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     opts.Model,
		MaxTokens: int64(opts.MaxOutputTokens),
		System:    []anthropic.SystemBlock{{Text: synthesisSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: sb.String()}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ask: synthesis call")
	}

	final := strings.TrimSpace(resp.Text())
	if final == "" {
		return nil, eris.Wrap(ErrNoStructuredResponse, "ask: empty synthesis completion")
	}
	resp.Usage.LogCost(resp.Model, "ask_synthesis")

	return &model.AskResult{
		Answer:          final,
		Model:           resp.Model,
		ChunksProcessed: len(chunks),
	}, nil
}
