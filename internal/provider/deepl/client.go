// Package deepl implements the translation provider for the DeepL REST API.
package deepl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/deepledit/internal/provider"
)

const (
	// Name is the registry name of this provider
	Name = "deepl"

	freeAPIURL     = "https://api-free.deepl.com"
	proAPIURL      = "https://api.deepl.com"
	defaultTimeout = 30 * time.Second
	freeKeySuffix  = ":fx"
)

// Config configures the DeepL client
type Config struct {
	// ServerURL overrides the API endpoint derived from the key
	ServerURL  string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
}

// Client talks to the DeepL API with one API key
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// BaseURL returns the API endpoint for apiKey. Keys of the free plan end
// with ":fx".
func BaseURL(apiKey string) string {
	if strings.HasSuffix(strings.TrimSpace(apiKey), freeKeySuffix) {
		return freeAPIURL
	}
	return proAPIURL
}

// NewBreaker creates the circuit breaker shared by all clients. Only
// unavailability counts as failure; rejected keys and quota errors do not
// trip the breaker.
func NewBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "deepl",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var te *provider.TransportError
			if errors.As(err, &te) {
				return te.Kind != provider.KindUnavailable
			}
			return true
		},
	})
}

// New creates a client for apiKey
func New(apiKey string, cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.ServerURL, "/")
	if baseURL == "" {
		baseURL = BaseURL(apiKey)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewBreaker()
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

// Factory returns a provider factory whose clients share one breaker
func Factory(cfg Config) provider.Factory {
	if cfg.Breaker == nil {
		cfg.Breaker = NewBreaker()
	}
	return func(apiKey string) (provider.Provider, error) {
		if strings.TrimSpace(apiKey) == "" {
			return nil, fmt.Errorf("%w: api key is empty", provider.ErrAuthentication)
		}
		return New(apiKey, cfg), nil
	}
}

type translateRequest struct {
	Text               []string `json:"text"`
	TargetLang         string   `json:"target_lang"`
	SourceLang         string   `json:"source_lang,omitempty"`
	Formality          string   `json:"formality,omitempty"`
	GlossaryID         string   `json:"glossary_id,omitempty"`
	TagHandling        string   `json:"tag_handling,omitempty"`
	IgnoreTags         []string `json:"ignore_tags,omitempty"`
	SplittingTags      []string `json:"splitting_tags,omitempty"`
	NonSplittingTags   []string `json:"non_splitting_tags,omitempty"`
	SplitSentences     string   `json:"split_sentences,omitempty"`
	PreserveFormatting bool     `json:"preserve_formatting,omitempty"`
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

type languageResponse struct {
	Language          string `json:"language"`
	Name              string `json:"name"`
	SupportsFormality bool   `json:"supports_formality"`
}

type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// TranslateText translates texts into target
func (c *Client) TranslateText(ctx context.Context, texts []string, source, target string, opts provider.Options) ([]provider.Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body := translateRequest{
		Text:               texts,
		TargetLang:         strings.ToUpper(target),
		SourceLang:         sourceCode(source),
		Formality:          opts.Formality,
		GlossaryID:         opts.GlossaryID,
		TagHandling:        opts.TagHandling,
		IgnoreTags:         splitTags(opts.IgnoreTags),
		SplittingTags:      splitTags(opts.SplittingTags),
		NonSplittingTags:   splitTags(opts.NonSplittingTags),
		SplitSentences:     opts.SplitSentences,
		PreserveFormatting: opts.PreserveFormatting,
	}

	var resp translateResponse
	if err := c.do(ctx, http.MethodPost, "/v2/translate", body, &resp); err != nil {
		return nil, err
	}

	results := make([]provider.Result, 0, len(resp.Translations))
	for _, tr := range resp.Translations {
		results = append(results, provider.Result{
			Text:                   tr.Text,
			DetectedSourceLanguage: tr.DetectedSourceLanguage,
		})
	}
	return results, nil
}

// SourceLanguages lists the languages DeepL translates from
func (c *Client) SourceLanguages(ctx context.Context) ([]provider.Language, error) {
	return c.languages(ctx, provider.SourceKind)
}

// TargetLanguages lists the languages DeepL translates into
func (c *Client) TargetLanguages(ctx context.Context) ([]provider.Language, error) {
	return c.languages(ctx, provider.TargetKind)
}

func (c *Client) languages(ctx context.Context, kind provider.LanguageKind) ([]provider.Language, error) {
	var resp []languageResponse
	path := "/v2/languages?" + url.Values{"type": {string(kind)}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	languages := make([]provider.Language, 0, len(resp))
	for _, l := range resp {
		languages = append(languages, provider.Language{
			Code:              l.Language,
			Name:              l.Name,
			SupportsFormality: l.SupportsFormality,
		})
	}
	return languages, nil
}

// do runs one request through the breaker and decodes the JSON answer
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return provider.Unavailable(err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return provider.Unavailable(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.StatusError(resp.StatusCode, errorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Message != "" {
		if er.Detail != "" {
			return er.Message + ": " + er.Detail
		}
		return er.Message
	}
	return strings.TrimSpace(string(data))
}

// sourceCode strips the regional variant DeepL rejects for source
// languages, e.g. EN-US becomes EN.
func sourceCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	return code
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
