package translation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/language"
	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
)

// Warning messages and the recovery actions they offer
const (
	MessageAuthenticationFailed = "Authentication failed!"
	MessageUnsuccessful         = "Translation was not successful!"

	ActionChangeAPIKey   = "Change api key and try again"
	ActionSelectSource   = "Select source language and try again"
	ActionChangeTarget   = "Change target language and try again"
	authenticationDetail = "Please check if your api key is correct."
)

// DefaultRetries is the recovery budget of one call
const DefaultRetries = 1

// Client translates texts with the options held by the state container
type Client struct {
	container *state.Container
	factory   provider.Factory
	prompter  prompt.Prompter
	log       zerolog.Logger

	// promptMu serializes interactive recovery across concurrent calls
	promptMu sync.Mutex

	cacheMu sync.Mutex
	cache   map[provider.LanguageKind][]provider.Language
}

// NewClient creates a client using factory to reach the provider
func NewClient(container *state.Container, factory provider.Factory, prompter prompt.Prompter, logger zerolog.Logger) *Client {
	return &Client{
		container: container,
		factory:   factory,
		prompter:  prompter,
		log:       logger.With().Str("component", "translation").Logger(),
		cache:     make(map[provider.LanguageKind][]provider.Language),
	}
}

// Translate translates texts from source (empty for detection) into
// target. Authentication failures and translations that echo their input
// are recovered interactively at most retries times. When the user
// declines to recover, the echoed results are returned without error; an
// authentication failure that cannot be recovered is returned.
//
// A text that is identical in both languages, such as a proper noun, is
// reported as unsuccessful too.
func (c *Client) Translate(ctx context.Context, texts []string, source, target string, retries int) ([]provider.Result, error) {
	apiKey, err := c.ensureAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	for {
		c.log.Debug().
			Strs("texts", texts).
			Str("source", source).
			Str("target", target).
			Int("retries", retries).
			Msg("start translating")

		results, err := c.translateOnce(ctx, apiKey, texts, source, target)
		if err != nil {
			if !errors.Is(err, provider.ErrAuthentication) || retries <= 0 {
				return nil, err
			}
			newKey, ok := c.recoverAuthentication(ctx, apiKey)
			if !ok {
				return nil, err
			}
			apiKey = newKey
			retries--
			continue
		}

		if Successful(texts, results) || retries <= 0 {
			return results, nil
		}

		c.log.Debug().Msg("the translation result equals the original input")
		newSource, newTarget, ok := c.recoverUnsuccessful(ctx, apiKey, source, target)
		if !ok {
			return results, nil
		}
		source, target = newSource, newTarget
		retries--
	}
}

// TranslateOne translates a single text. ok is false when the provider
// returned no result.
func (c *Client) TranslateOne(ctx context.Context, text, source, target string, retries int) (result provider.Result, ok bool, err error) {
	results, err := c.Translate(ctx, []string{text}, source, target, retries)
	if err != nil || len(results) == 0 {
		return provider.Result{}, false, err
	}
	return results[0], true, nil
}

// Successful reports whether every text got a result differing from it
func Successful(texts []string, results []provider.Result) bool {
	if len(results) != len(texts) {
		return false
	}
	for i, text := range texts {
		if results[i].Text == text {
			return false
		}
	}
	return true
}

func (c *Client) ensureAPIKey(ctx context.Context) (string, error) {
	if key := c.container.Snapshot().APIKey; key != "" {
		return key, nil
	}

	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	// Another call may have asked in the meantime.
	if key := c.container.Snapshot().APIKey; key != "" {
		return key, nil
	}

	key, err := c.prompter.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", prompt.ErrCancelled
	}
	c.container.Update(func(s *state.State) { s.APIKey = key })
	return key, nil
}

func (c *Client) translateOnce(ctx context.Context, apiKey string, texts []string, source, target string) ([]provider.Result, error) {
	p, err := c.factory(apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	return p.TranslateText(ctx, texts, source, target, c.options(ctx, apiKey, target))
}

// options builds the request options. Formality is only sent when the
// target language supports it.
func (c *Client) options(ctx context.Context, apiKey, target string) provider.Options {
	s := c.container.Snapshot()
	opts := provider.Options{
		GlossaryID:         s.GlossaryID,
		TagHandling:        s.TagHandling,
		IgnoreTags:         s.IgnoreTags,
		SplittingTags:      s.SplittingTags,
		NonSplittingTags:   s.NonSplittingTags,
		SplitSentences:     s.SplitSentences,
		PreserveFormatting: s.PreserveFormatting,
	}
	if opts.TagHandling == "off" {
		opts.TagHandling = ""
	}

	if s.Formality != "" {
		targets, err := c.fetch(ctx, provider.TargetKind, apiKey)
		if err != nil {
			c.log.Debug().Err(err).Msg("cannot check formality support")
		}
		if l, ok := provider.Find(targets, target); ok && l.SupportsFormality {
			opts.Formality = s.Formality
		}
	}
	return opts
}

// recoverAuthentication asks for a replacement key. It returns the key to
// retry with, or false when the user declined or supplied the same key.
func (c *Client) recoverAuthentication(ctx context.Context, failedKey string) (string, bool) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	// A concurrent call may already have replaced the key.
	if current := c.container.Snapshot().APIKey; current != "" && current != failedKey {
		return current, true
	}

	action, err := c.prompter.Warning(ctx, MessageAuthenticationFailed, authenticationDetail, ActionChangeAPIKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("authentication warning failed")
		return "", false
	}
	if action != ActionChangeAPIKey {
		c.log.Debug().Msg("user declined to change the api key")
		return "", false
	}

	key, err := c.prompter.APIKey(ctx)
	if err != nil || key == "" || key == failedKey {
		c.log.Debug().Err(err).Msg("no new api key supplied")
		return "", false
	}

	c.container.Update(func(s *state.State) { s.APIKey = key })
	c.log.Info().Msg("api key updated after authentication failure")
	return key, true
}

// recoverUnsuccessful offers to pick another source or target language.
// A new target is stored in the state; a new source is used for the retry
// only.
func (c *Client) recoverUnsuccessful(ctx context.Context, apiKey, source, target string) (string, string, bool) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	detail := fmt.Sprintf("It is possible that the source language could not be recognized correctly or the wrong target language has been selected.\n\nTarget language: '%s'", target)
	if source != "" {
		detail = fmt.Sprintf("Please check if you are using the correct source and target language.\n\nSource language: '%s'\nTarget language: '%s'", source, target)
	}

	action, err := c.prompter.Warning(ctx, MessageUnsuccessful, detail, ActionSelectSource, ActionChangeTarget)
	if err != nil {
		c.log.Warn().Err(err).Msg("unsuccessful translation warning failed")
		return "", "", false
	}

	switch action {
	case ActionSelectSource:
		code, ok := c.pick(ctx, provider.SourceKind, apiKey)
		if !ok {
			return "", "", false
		}
		c.log.Debug().Str("source", code).Msg("retrying translation with new source language")
		if language.Same(code, target) {
			return "", target, true
		}
		return code, target, true

	case ActionChangeTarget:
		code, ok := c.pick(ctx, provider.TargetKind, apiKey)
		if !ok {
			return "", "", false
		}
		c.container.Update(func(s *state.State) { s.TargetLanguage = code })
		c.log.Debug().Str("target", code).Msg("retrying translation with changed target language")
		if language.Same(source, code) {
			source = ""
		}
		return source, code, true
	}

	c.log.Debug().Msg("user declined to resolve the unsuccessful translation")
	return "", "", false
}

func (c *Client) pick(ctx context.Context, kind provider.LanguageKind, apiKey string) (string, bool) {
	languages, err := c.fetch(ctx, kind, apiKey)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("cannot load languages")
	}
	code, err := c.prompter.Language(ctx, kind, languages)
	if err != nil || code == "" {
		return "", false
	}
	return code, true
}
