package ask

import "github.com/rotisserie/eris"

// Sentinel errors for the ask pipeline. Callers match with errors.Is; the
// wrapped messages carry the actionable detail.
var (
	// ErrMissingCapability means no model client was supplied.
	ErrMissingCapability = eris.New("model capability not configured")

	// ErrHardLimitExceeded means the document exceeds the absolute size
	// ceiling. This check is unconditional; no flag bypasses it.
	ErrHardLimitExceeded = eris.New("document exceeds hard size limit")

	// ErrTooLarge means the document does not fit a single model call and
	// splitting is disabled.
	ErrTooLarge = eris.New("document too large for a single model call")

	// ErrNoStructuredResponse means a model reply could not be reduced to
	// a usable answer.
	ErrNoStructuredResponse = eris.New("model returned no usable response")
)
