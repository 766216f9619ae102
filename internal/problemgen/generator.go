// Package problemgen generates exam-prep questions from study content using
// an LLM provider. It is the generation source of the funnel: the funnel
// only reaches it for slots the curated and cached pools could not fill.
package problemgen

import "github.com/abhisek/prepfunnel/internal/funnel"

var _ funnel.Generator = (*LLMGenerator)(nil)
