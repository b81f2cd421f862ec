package ask

import "github.com/rotisserie/eris"

// CharsPerToken is a fixed character-per-token approximation used for all
// size estimates. It is deliberately not tokenizer-accurate; ~4 chars/token
// holds well enough for English prose, and every budget in the pipeline is
// stated in terms of this estimate.
const CharsPerToken = 4

// Chunk is one contiguous slice of a larger document, with its 1-based
// position and the total chunk count. Consecutive chunks overlap so content
// near a cut boundary is fully visible to at least one model call.
type Chunk struct {
	Text    string
	Ordinal int
	Total   int
}

// ComputeChunks splits text into overlapping chunks sized to fit one model
// call: each chunk holds (usableTokens - overheadTokens) * CharsPerToken
// characters, and consecutive chunks share overlap characters. The chunks
// cover the full text in order with no gaps.
//
// A non-positive computed chunk size (pathological tiny budget) is an error,
// not something to paper over.
func ComputeChunks(text string, usableTokens, overheadTokens, overlap int) ([]Chunk, error) {
	chunkSize := (usableTokens - overheadTokens) * CharsPerToken
	if chunkSize <= 0 {
		return nil, eris.Errorf(
			"computed chunk size %d is not positive (usable=%d overhead=%d tokens)",
			chunkSize, usableTokens, overheadTokens,
		)
	}

	step := chunkSize - overlap
	if step <= 0 {
		// Overlap would swallow the whole chunk; fall back to no overlap
		// rather than looping forever.
		step = chunkSize
	}

	var chunks []Chunk
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			Text:    text[start:end],
			Ordinal: len(chunks) + 1,
		})
		if end == len(text) {
			break
		}
	}

	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{Text: text, Ordinal: 1})
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks, nil
}
