package tutor

// MaxProfileConcepts bounds how many concepts are listed in a profile prompt.
const MaxProfileConcepts = 40

// Config holds tutor generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for explanations.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   768,
		Temperature: 0.4,
	}
}

// ProfileConfig holds profile generation settings.
type ProfileConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultProfileConfig returns sensible defaults for profiles.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		MaxTokens:   512,
		Temperature: 0.3,
	}
}
