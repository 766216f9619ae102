package tutor

import "github.com/abhisek/prepfunnel/internal/llm"

// ExplanationSchema defines the JSON schema for question explanations.
var ExplanationSchema = &llm.Schema{
	Name:        "question-explanation",
	Description: "Explanation of a multiple-choice question with notes on each distractor",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "One sentence restating what the question tests",
			},
			"why_correct": map[string]any{
				"type":        "string",
				"description": "Why the correct answer is correct (2-4 sentences)",
			},
			"distractors": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"option": map[string]any{
							"type":        "string",
							"description": "The wrong option, copied exactly",
						},
						"why": map[string]any{
							"type":        "string",
							"description": "Why this option is wrong (1-2 sentences)",
						},
					},
					"required":             []any{"option", "why"},
					"additionalProperties": false,
				},
			},
			"key_point": map[string]any{
				"type":        "string",
				"description": "The single fact to remember",
			},
		},
		"required":             []any{"summary", "why_correct", "distractors", "key_point"},
		"additionalProperties": false,
	},
}

// ProfileSchema defines the JSON schema for learner study profiles.
var ProfileSchema = &llm.Schema{
	Name:        "study-profile",
	Description: "Study profile summarizing strengths, weaknesses, and next steps",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "3-5 sentence overview of where the learner stands",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concepts the learner has mastered",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concepts that need work",
			},
			"next_steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-3 concrete study actions",
			},
		},
		"required":             []any{"summary", "strengths", "weaknesses", "next_steps"},
		"additionalProperties": false,
	},
}
