package chat

import "errors"

// Fault taxonomy. Storage faults on read degrade to empty history and on
// write are logged only. Search and summarization faults are absorbed
// locally. Completion faults surface to the user as a fixed apology.
var (
	ErrStorage    = errors.New("conversation storage failed")
	ErrCompletion = errors.New("completion request failed")
	ErrSearch     = errors.New("web search failed")
	ErrSummarize  = errors.New("history summarization failed")
)
