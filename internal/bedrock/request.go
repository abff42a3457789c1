package bedrock

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type metaRequest struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   int      `json:"max_gen_len"`
	Temperature float64  `json:"temperature"`
	Images      []string `json:"images,omitempty"`
}

type titanGenerationConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

type titanRequest struct {
	InputText            string                `json:"inputText"`
	InputImage           string                `json:"inputImage,omitempty"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

// BuildImageRequest produces the provider-specific payload for a vision prompt
// over one or more base64-encoded images. Images precede the text prompt in
// message order for providers with multi-part messages.
func BuildImageRequest(provider Provider, base64Images []string, prompt string, settings ModelSettings, logger *zap.Logger) ([]byte, error) {
	if len(base64Images) == 0 {
		return nil, fmt.Errorf("at least one image is required")
	}

	switch provider {
	case Anthropic:
		content := make([]anthropicContent, 0, len(base64Images)+1)
		for _, img := range base64Images {
			content = append(content, anthropicContent{
				Type: "image",
				Source: &anthropicSource{
					Type:      "base64",
					MediaType: "image/jpeg",
					Data:      img,
				},
			})
		}
		content = append(content, anthropicContent{Type: "text", Text: prompt})
		return json.Marshal(anthropicRequest{
			AnthropicVersion: anthropicVersion,
			MaxTokens:        settings.MaxTokens,
			Temperature:      settings.temperature(),
			Messages:         []anthropicMessage{{Role: "user", Content: content}},
		})

	case Meta:
		return json.Marshal(metaRequest{
			Prompt:      prompt,
			MaxGenLen:   settings.MaxTokens,
			Temperature: settings.temperature(),
			Images:      base64Images,
		})

	case Amazon:
		// Titan accepts a single image; surplus images are dropped, not fatal.
		if len(base64Images) > 1 && logger != nil {
			logger.Warn("titan supports a single image, using the first only",
				zap.Int("image_count", len(base64Images)))
		}
		return json.Marshal(titanRequest{
			InputText:  prompt,
			InputImage: base64Images[0],
			TextGenerationConfig: titanGenerationConfig{
				MaxTokenCount: settings.MaxTokens,
				Temperature:   settings.temperature(),
			},
		})
	}

	return nil, fmt.Errorf("%w: image requests not implemented for %s", ErrUnsupportedProvider, provider)
}

// BuildTextRequest produces the provider-specific payload for a text-only prompt.
func BuildTextRequest(provider Provider, prompt string, settings ModelSettings) ([]byte, error) {
	switch provider {
	case Anthropic:
		return json.Marshal(anthropicRequest{
			AnthropicVersion: anthropicVersion,
			MaxTokens:        settings.MaxTokens,
			Temperature:      settings.temperature(),
			Messages: []anthropicMessage{{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: prompt}},
			}},
		})

	case Meta:
		return json.Marshal(metaRequest{
			Prompt:      prompt,
			MaxGenLen:   settings.MaxTokens,
			Temperature: settings.temperature(),
		})

	case Amazon:
		return json.Marshal(titanRequest{
			InputText: prompt,
			TextGenerationConfig: titanGenerationConfig{
				MaxTokenCount: settings.MaxTokens,
				Temperature:   settings.temperature(),
			},
		})
	}

	return nil, fmt.Errorf("%w: text requests not implemented for %s", ErrUnsupportedProvider, provider)
}
