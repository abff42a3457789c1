package bedrock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedProvider reports a model id with no recognized provider, or an
// operation the resolved provider's request/response shape does not support.
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// ErrMalformedResponse reports a model response whose envelope or payload could
// not be decoded.
var ErrMalformedResponse = errors.New("malformed model response")

// Provider identifies a Bedrock model family with its own request/response shape.
type Provider int

const (
	Anthropic Provider = iota
	Meta
	Amazon
	AI21
	Cohere
	Mistral
)

// String returns the provider's vendor name.
func (p Provider) String() string {
	switch p {
	case Anthropic:
		return "anthropic"
	case Meta:
		return "meta"
	case Amazon:
		return "amazon"
	case AI21:
		return "ai21"
	case Cohere:
		return "cohere"
	case Mistral:
		return "mistral"
	default:
		return "unknown"
	}
}

// anthropicVersion is the API version Bedrock expects in Claude payloads.
const anthropicVersion = "bedrock-2023-05-31"

// ProviderFromModelID determines the provider from a model id by matching
// vendor and model-family keywords, case-insensitively.
//
// Example: "us.anthropic.claude-3-5-sonnet-20241022-v2:0" resolves to Anthropic,
// "us.meta.llama3-2-90b-instruct-v1:0" to Meta.
func ProviderFromModelID(modelID string) (Provider, error) {
	if modelID == "" {
		return 0, fmt.Errorf("%w: empty model id", ErrUnsupportedProvider)
	}

	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "anthropic") || strings.Contains(lower, "claude"):
		return Anthropic, nil
	case strings.Contains(lower, "meta") || strings.Contains(lower, "llama"):
		return Meta, nil
	case strings.Contains(lower, "amazon") || strings.Contains(lower, "titan"):
		return Amazon, nil
	case strings.Contains(lower, "ai21") || strings.Contains(lower, "jamba"):
		return AI21, nil
	case strings.Contains(lower, "cohere"):
		return Cohere, nil
	case strings.Contains(lower, "mistral"):
		return Mistral, nil
	}
	return 0, fmt.Errorf("%w: model id %q", ErrUnsupportedProvider, modelID)
}
