package bedrock

import (
	"encoding/json"
	"fmt"
	"strings"
)

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type metaResponse struct {
	Generation string `json:"generation"`
	Outputs    []struct {
		Text string `json:"text"`
	} `json:"outputs"`
}

type titanResponse struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

// ExtractText pulls the textual completion out of a provider's response envelope.
func ExtractText(provider Provider, responseBody []byte) (string, error) {
	switch provider {
	case Anthropic:
		var resp anthropicResponse
		if err := json.Unmarshal(responseBody, &resp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(resp.Content) == 0 {
			return "", fmt.Errorf("%w: anthropic response has no content array", ErrMalformedResponse)
		}
		return resp.Content[0].Text, nil

	case Meta:
		var resp metaResponse
		if err := json.Unmarshal(responseBody, &resp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if resp.Generation != "" {
			return resp.Generation, nil
		}
		if len(resp.Outputs) > 0 {
			return resp.Outputs[0].Text, nil
		}
		return "", fmt.Errorf("%w: unrecognized meta response format", ErrMalformedResponse)

	case Amazon:
		var resp titanResponse
		if err := json.Unmarshal(responseBody, &resp); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("%w: titan response has no results array", ErrMalformedResponse)
		}
		return resp.Results[0].OutputText, nil
	}

	return "", fmt.Errorf("%w: response parsing not implemented for %s", ErrUnsupportedProvider, provider)
}

// ExtractJSON isolates a JSON object from model output that may be wrapped in
// markdown code fences or surrounded by prose.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in model output", ErrMalformedResponse)
	}
	return strings.TrimSpace(cleaned[start : end+1]), nil
}

// DecodeTyped extracts the completion text, isolates its JSON object, and
// decodes it into out. All failure modes surface as ErrMalformedResponse.
func DecodeTyped(provider Provider, responseBody []byte, out interface{}) error {
	text, err := ExtractText(provider, responseBody)
	if err != nil {
		return err
	}
	jsonStr, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
