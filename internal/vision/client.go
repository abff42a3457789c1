package vision

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/bedrock"
	"github.com/repack-io/backbreaker-api/internal/logging"
)

// Invoker sends a raw request body to a model and returns the raw response body.
type Invoker interface {
	InvokeModel(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

// PromptStore loads prompt text by key from an external store.
type PromptStore interface {
	Load(ctx context.Context, promptKey string) (string, error)
}

// BedrockInvoker is the production Invoker backed by the Bedrock runtime client.
type BedrockInvoker struct {
	client  *bedrockruntime.Client
	timeout time.Duration
}

// NewBedrockInvoker wraps a Bedrock runtime client with a bounded call timeout.
func NewBedrockInvoker(client *bedrockruntime.Client, timeout time.Duration) *BedrockInvoker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BedrockInvoker{client: client, timeout: timeout}
}

// InvokeModel issues a blocking InvokeModel call.
func (b *BedrockInvoker) InvokeModel(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, logging.NewOperationError("vision.invoke_model", modelID, err)
	}
	return out.Body, nil
}

// Client invokes vision models and decodes their structured replies. Prompts
// loaded through it are cached in memory for the process lifetime.
type Client struct {
	invoker Invoker
	config  *bedrock.Config
	prompts PromptStore
	logger  *zap.Logger

	mu          sync.RWMutex
	promptCache map[string]string
}

// NewClient constructs a vision client.
func NewClient(invoker Invoker, config *bedrock.Config, prompts PromptStore, logger *zap.Logger) *Client {
	return &Client{
		invoker:     invoker,
		config:      config,
		prompts:     prompts,
		logger:      logger.Named("vision"),
		promptCache: make(map[string]string),
	}
}

// Prompt returns the prompt text for a key, loading and caching it on first use.
// Two concurrent misses may both hit the store; the prompt set is small and
// static per deployment, so the duplicate fetch is acceptable.
func (c *Client) Prompt(ctx context.Context, promptKey string) (string, error) {
	c.mu.RLock()
	cached, ok := c.promptCache[promptKey]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	text, err := c.prompts.Load(ctx, promptKey)
	if err != nil {
		return "", logging.NewOperationError("vision.load_prompt", promptKey, err)
	}

	c.mu.Lock()
	c.promptCache[promptKey] = text
	c.mu.Unlock()
	c.logger.Info("loaded prompt", zap.String("prompt_key", promptKey))
	return text, nil
}

// InvalidatePrompt drops a prompt from the cache so the next use reloads it.
func (c *Client) InvalidatePrompt(promptKey string) {
	c.mu.Lock()
	delete(c.promptCache, promptKey)
	c.mu.Unlock()
}

// Invoke sends one or more images plus a prompt to the model configured for the
// use case and decodes the JSON completion into T.
func Invoke[T any](ctx context.Context, c *Client, useCase string, images [][]byte, prompt string) (T, error) {
	var result T

	settings := c.config.SettingsForUseCase(useCase)
	provider, err := bedrock.ProviderFromModelID(settings.ModelID)
	if err != nil {
		return result, err
	}

	base64Images := make([]string, len(images))
	for i, img := range images {
		base64Images[i] = base64.StdEncoding.EncodeToString(img)
	}

	body, err := bedrock.BuildImageRequest(provider, base64Images, prompt, settings, c.logger)
	if err != nil {
		return result, err
	}

	c.logger.Info("invoking vision model",
		zap.String("model_id", settings.ModelID),
		zap.String("provider", provider.String()),
		zap.String("use_case", useCase),
		zap.Int("image_count", len(images)))

	responseBody, err := c.invoker.InvokeModel(ctx, settings.ModelID, body)
	if err != nil {
		return result, err
	}

	if err := bedrock.DecodeTyped(provider, responseBody, &result); err != nil {
		return result, err
	}
	return result, nil
}

// InvokeText sends a text-only prompt and decodes the JSON completion into T.
func InvokeText[T any](ctx context.Context, c *Client, useCase, prompt string) (T, error) {
	var result T

	settings := c.config.SettingsForUseCase(useCase)
	provider, err := bedrock.ProviderFromModelID(settings.ModelID)
	if err != nil {
		return result, err
	}

	body, err := bedrock.BuildTextRequest(provider, prompt, settings)
	if err != nil {
		return result, err
	}

	c.logger.Info("invoking text model",
		zap.String("model_id", settings.ModelID),
		zap.String("provider", provider.String()),
		zap.String("use_case", useCase))

	responseBody, err := c.invoker.InvokeModel(ctx, settings.ModelID, body)
	if err != nil {
		return result, err
	}

	if err := bedrock.DecodeTyped(provider, responseBody, &result); err != nil {
		return result, err
	}
	return result, nil
}
