package bedrock

import "strings"

// DefaultModelID is used when no model is configured for a use case.
const DefaultModelID = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"

// ModelSettings holds the invocation parameters for one model. Temperature is
// a pointer so an explicit zero survives default filling.
type ModelSettings struct {
	ModelID     string
	MaxTokens   int
	Temperature *float64
}

// temperature returns the resolved temperature, zero when unset.
func (s ModelSettings) temperature() float64 {
	if s.Temperature == nil {
		return 0
	}
	return *s.Temperature
}

// Config maps use cases (e.g. "card-analysis", "card-details-extraction") to
// model settings, with defaults for anything unset.
type Config struct {
	DefaultModelID     string
	DefaultMaxTokens   int
	DefaultTemperature float64

	// Models keys use cases to their model settings.
	Models map[string]ModelSettings
	// Presets maps short names ("claude-sonnet", "llama3", "titan") to model ids.
	Presets map[string]string
}

// NewConfig returns a Config with the stock defaults.
func NewConfig() *Config {
	return &Config{
		DefaultModelID:     DefaultModelID,
		DefaultMaxTokens:   1024,
		DefaultTemperature: 0.1,
		Models:             map[string]ModelSettings{},
		Presets:            map[string]string{},
	}
}

// SettingsForUseCase returns the settings for a use case, filling unset fields
// from the defaults. An unknown or empty use case yields the defaults.
func (c *Config) SettingsForUseCase(useCase string) ModelSettings {
	settings := c.Models[useCase]
	if settings.ModelID == "" {
		settings.ModelID = c.DefaultModelID
	}
	if settings.MaxTokens == 0 {
		settings.MaxTokens = c.DefaultMaxTokens
	}
	if settings.Temperature == nil {
		temp := c.DefaultTemperature
		settings.Temperature = &temp
	}
	return settings
}

// ResolveModelID resolves a preset name to a model id. Dotted values are
// treated as full model ids and returned as-is.
func (c *Config) ResolveModelID(idOrPreset string) string {
	if idOrPreset == "" {
		return c.DefaultModelID
	}
	if strings.Contains(idOrPreset, ".") {
		return idOrPreset
	}
	if id, ok := c.Presets[idOrPreset]; ok {
		return id
	}
	return c.DefaultModelID
}
