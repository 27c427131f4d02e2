// Package openai implements a translation provider on top of OpenAI chat
// completions. Texts are translated one request at a time; the source
// language is detected locally when not given.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/deepledit/internal/langdetect"
	"codeberg.org/snonux/deepledit/internal/provider"
)

// Name is the registry name of this provider
const Name = "openai"

// Config configures the OpenAI provider
type Config struct {
	Model   string
	BaseURL string
}

// Translator translates with an OpenAI chat model
type Translator struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewTranslator creates a new translator instance
func NewTranslator(apiKey string, cfg Config) *Translator {
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Translator{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Factory returns a provider factory for cfg
func Factory(cfg Config) provider.Factory {
	return func(apiKey string) (provider.Provider, error) {
		if strings.TrimSpace(apiKey) == "" {
			return nil, fmt.Errorf("%w: OpenAI API key not found", provider.ErrAuthentication)
		}
		return NewTranslator(apiKey, cfg), nil
	}
}

// TranslateText translates every text with its own completion request
func (t *Translator) TranslateText(ctx context.Context, texts []string, source, target string, opts provider.Options) ([]provider.Result, error) {
	results := make([]provider.Result, 0, len(texts))
	for _, text := range texts {
		translated, err := t.translate(ctx, text, source, target, opts)
		if err != nil {
			return nil, err
		}

		detected := strings.ToUpper(source)
		if detected == "" {
			detected = langdetect.Detect(text)
		}
		results = append(results, provider.Result{Text: translated, DetectedSourceLanguage: detected})
	}
	return results, nil
}

func (t *Translator) translate(ctx context.Context, text, source, target string, opts provider.Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: provider.Instruction(text, source, target, opts),
			},
		},
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SourceLanguages returns the built-in language list
func (t *Translator) SourceLanguages(ctx context.Context) ([]provider.Language, error) {
	return provider.CommonLanguages(), nil
}

// TargetLanguages returns the built-in language list
func (t *Translator) TargetLanguages(ctx context.Context) ([]provider.Language, error) {
	return provider.CommonLanguages(), nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return provider.StatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return provider.StatusError(reqErr.HTTPStatusCode, reqErr.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return provider.Unavailable(fmt.Errorf("OpenAI API error: %w", err))
}
