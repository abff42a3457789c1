package bedrock

import (
	"errors"
	"testing"
)

func TestProviderFromModelID(t *testing.T) {
	cases := []struct {
		modelID string
		want    Provider
	}{
		{"us.anthropic.claude-3-5-sonnet-20241022-v2:0", Anthropic},
		{"claude-instant-v1", Anthropic},
		{"us.meta.llama3-2-90b-instruct-v1:0", Meta},
		{"llama2-13b-chat", Meta},
		{"amazon.titan-text-premier-v1:0", Amazon},
		{"titan-embed-image-v1", Amazon},
		{"ai21.jamba-1-5-large-v1:0", AI21},
		{"cohere.command-r-plus-v1:0", Cohere},
		{"mistral.mistral-large-2407-v1:0", Mistral},
		{"ANTHROPIC.CLAUDE-3", Anthropic},
	}
	for _, tc := range cases {
		got, err := ProviderFromModelID(tc.modelID)
		if err != nil {
			t.Fatalf("ProviderFromModelID(%q) returned error: %v", tc.modelID, err)
		}
		if got != tc.want {
			t.Fatalf("ProviderFromModelID(%q) = %s, want %s", tc.modelID, got, tc.want)
		}
	}
}

func TestProviderFromModelIDUnknown(t *testing.T) {
	_, err := ProviderFromModelID("stability.stable-diffusion-xl-v1")
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestProviderFromModelIDEmpty(t *testing.T) {
	_, err := ProviderFromModelID("")
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider for empty id, got %v", err)
	}
}

func TestSettingsForUseCaseFillsDefaults(t *testing.T) {
	cfg := NewConfig()
	cfg.Models["card-analysis"] = ModelSettings{ModelID: "us.meta.llama3-2-90b-instruct-v1:0"}

	settings := cfg.SettingsForUseCase("card-analysis")
	if settings.ModelID != "us.meta.llama3-2-90b-instruct-v1:0" {
		t.Fatalf("unexpected model id %q", settings.ModelID)
	}
	if settings.MaxTokens != 1024 {
		t.Fatalf("expected default max tokens 1024, got %d", settings.MaxTokens)
	}
	if settings.Temperature == nil || *settings.Temperature != 0.1 {
		t.Fatalf("expected default temperature 0.1, got %v", settings.Temperature)
	}
}

func TestSettingsForUseCaseKeepsZeroTemperature(t *testing.T) {
	zero := 0.0
	cfg := NewConfig()
	cfg.Models["deterministic"] = ModelSettings{Temperature: &zero}

	settings := cfg.SettingsForUseCase("deterministic")
	if settings.Temperature == nil || *settings.Temperature != 0 {
		t.Fatalf("explicit zero temperature must not be overwritten, got %v", settings.Temperature)
	}
}

func TestSettingsForUnknownUseCaseUsesDefaults(t *testing.T) {
	cfg := NewConfig()
	settings := cfg.SettingsForUseCase("never-configured")
	if settings.ModelID != DefaultModelID {
		t.Fatalf("expected default model id, got %q", settings.ModelID)
	}
}

func TestResolveModelID(t *testing.T) {
	cfg := NewConfig()
	cfg.Presets["llama3"] = "us.meta.llama3-2-90b-instruct-v1:0"

	if got := cfg.ResolveModelID("llama3"); got != "us.meta.llama3-2-90b-instruct-v1:0" {
		t.Fatalf("preset resolution failed, got %q", got)
	}
	if got := cfg.ResolveModelID("mistral.mistral-large-2407-v1:0"); got != "mistral.mistral-large-2407-v1:0" {
		t.Fatalf("dotted id should pass through, got %q", got)
	}
	if got := cfg.ResolveModelID("no-such-preset"); got != DefaultModelID {
		t.Fatalf("unknown preset should fall back to default, got %q", got)
	}
	if got := cfg.ResolveModelID(""); got != DefaultModelID {
		t.Fatalf("empty value should fall back to default, got %q", got)
	}
}
