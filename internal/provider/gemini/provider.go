// Package gemini implements a translation provider on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/deepledit/internal/langdetect"
	"codeberg.org/snonux/deepledit/internal/provider"
)

const (
	// Name is the registry name of this provider
	Name = "gemini"

	defaultModel = "gemini-2.5-flash"
)

// Config configures the Gemini provider
type Config struct {
	Model   string
	BaseURL string
}

type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Translator translates with a Gemini model
type Translator struct {
	models modelsClient
	model  string
}

// NewTranslator creates a Gemini translator for apiKey
func NewTranslator(ctx context.Context, apiKey string, cfg Config) (*Translator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", provider.ErrAuthentication)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newTranslator(client.Models, cfg.Model), nil
}

func newTranslator(models modelsClient, model string) *Translator {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Translator{models: models, model: model}
}

// Factory returns a provider factory for cfg
func Factory(cfg Config) provider.Factory {
	return func(apiKey string) (provider.Provider, error) {
		return NewTranslator(context.Background(), apiKey, cfg)
	}
}

// TranslateText translates every text with its own request
func (t *Translator) TranslateText(ctx context.Context, texts []string, source, target string, opts provider.Options) ([]provider.Result, error) {
	results := make([]provider.Result, 0, len(texts))
	for _, text := range texts {
		contents := []*genai.Content{
			genai.NewContentFromText(provider.Instruction(text, source, target, opts), genai.RoleUser),
		}
		resp, err := t.models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.3),
		})
		if err != nil {
			return nil, mapError(err)
		}

		translated := strings.TrimSpace(extractVisibleText(resp))
		if translated == "" {
			return nil, fmt.Errorf("no translation returned")
		}

		detected := strings.ToUpper(source)
		if detected == "" {
			detected = langdetect.Detect(text)
		}
		results = append(results, provider.Result{Text: translated, DetectedSourceLanguage: detected})
	}
	return results, nil
}

// SourceLanguages returns the built-in language list
func (t *Translator) SourceLanguages(ctx context.Context) ([]provider.Language, error) {
	return provider.CommonLanguages(), nil
}

// TargetLanguages returns the built-in language list
func (t *Translator) TargetLanguages(ctx context.Context) ([]provider.Language, error) {
	return provider.CommonLanguages(), nil
}

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		// Gemini reports an invalid key as 400 INVALID_ARGUMENT
		if apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			return fmt.Errorf("%w: %s", provider.ErrAuthentication, apiErr.Message)
		}
		return provider.StatusError(apiErr.Code, apiErr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return provider.Unavailable(err)
}
