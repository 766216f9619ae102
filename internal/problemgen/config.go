package problemgen

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config tunes one question-batch request.
type Config struct {
	// MaxTokens is the response budget for a whole batch.
	MaxTokens int `validate:"min=256"`

	Temperature float64 `validate:"gte=0,lte=1"`

	// MaxContentChars truncates the module's study content in the prompt.
	MaxContentChars int `validate:"min=500"`

	// MaxAvoidStems caps the "do not repeat" list.
	MaxAvoidStems int `validate:"gte=0"`

	// MaxBatch is the largest Count a single request may carry.
	MaxBatch int `validate:"min=1,max=50"`
}

var validate = validator.New()

// DefaultConfig returns the settings used unless PREPFUNNEL_GEN_* overrides
// them.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       4096,
		Temperature:     0.7,
		MaxContentChars: 12000,
		MaxAvoidStems:   20,
		MaxBatch:        20,
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("generator config: %w", err)
	}
	return nil
}
