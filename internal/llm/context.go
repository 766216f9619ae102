package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purposes recorded in the request event log.
const (
	PurposeQuestionGen = "question-gen"
	PurposeExplain     = "explain"
	PurposeProfile     = "profile"

	purposeUnspecified = "unspecified"
)

// WithPurpose labels requests made with ctx in the event log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return purposeUnspecified
}
