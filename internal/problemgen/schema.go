package problemgen

import "github.com/abhisek/prepfunnel/internal/llm"

// BatchSchema defines the JSON schema for a batch of generated questions.
var BatchSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "A batch of single-best-answer exam questions with answer key and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"stem": map[string]any{
							"type":        "string",
							"description": "The question prompt shown to the learner",
						},
						"options": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "string",
							},
							"description": "Answer options without letter prefixes, exactly one correct",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The full text of the correct option, copied exactly",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the correct option is right and the others are wrong",
						},
						"concepts": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "string",
							},
							"description": "Concept tags; the first is the concept this question targets",
						},
						"difficulty": map[string]any{
							"type":        "string",
							"enum":        []any{"easy", "medium", "hard"},
							"description": "Self-assessed difficulty",
						},
					},
					"required":             []any{"stem", "options", "correct_answer", "explanation", "concepts", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
