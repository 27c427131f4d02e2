package translation

import (
	"context"
	"errors"

	"codeberg.org/snonux/deepledit/internal/provider"
)

// SourceLanguages returns the languages that can be translated from
func (c *Client) SourceLanguages(ctx context.Context) []provider.Language {
	return c.languagesWithRetry(ctx, provider.SourceKind, DefaultRetries)
}

// TargetLanguages returns the languages that can be translated into
func (c *Client) TargetLanguages(ctx context.Context) []provider.Language {
	return c.languagesWithRetry(ctx, provider.TargetKind, DefaultRetries)
}

// List returns the language list of kind, recovering from authentication
// failures interactively
func (c *Client) List(ctx context.Context, kind provider.LanguageKind) []provider.Language {
	return c.languagesWithRetry(ctx, kind, DefaultRetries)
}

// Languages returns the list of kind fetched with apiKey, without any
// interactive recovery. It returns an empty list on failure.
func (c *Client) Languages(ctx context.Context, kind provider.LanguageKind, apiKey string) []provider.Language {
	languages, err := c.fetch(ctx, kind, apiKey)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("could not load languages")
	}
	return languages
}

// Name returns the display name of code, or code itself when unknown
func (c *Client) Name(ctx context.Context, code string) string {
	if l, ok := provider.Find(c.TargetLanguages(ctx), code); ok {
		return l.Name
	}
	return code
}

func (c *Client) languagesWithRetry(ctx context.Context, kind provider.LanguageKind, retries int) []provider.Language {
	apiKey := c.container.Snapshot().APIKey
	if apiKey == "" {
		c.log.Debug().Str("kind", string(kind)).Msg("could not load languages, api key is not configured")
		return nil
	}

	for {
		languages, err := c.fetch(ctx, kind, apiKey)
		if err == nil {
			return languages
		}
		if errors.Is(err, provider.ErrAuthentication) && retries > 0 {
			if newKey, ok := c.recoverAuthentication(ctx, apiKey); ok {
				apiKey = newKey
				retries--
				continue
			}
		}
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("could not load languages")
		return nil
	}
}

// fetch returns the cached list of kind, loading it on first use. Only
// non-empty lists are cached.
func (c *Client) fetch(ctx context.Context, kind provider.LanguageKind, apiKey string) ([]provider.Language, error) {
	c.cacheMu.Lock()
	cached := c.cache[kind]
	c.cacheMu.Unlock()
	if len(cached) > 0 {
		return cached, nil
	}
	if apiKey == "" {
		return nil, nil
	}

	p, err := c.factory(apiKey)
	if err != nil {
		return nil, err
	}
	languages, err := provider.List(ctx, p, kind)
	if err != nil {
		return nil, err
	}

	if len(languages) > 0 {
		c.cacheMu.Lock()
		c.cache[kind] = languages
		c.cacheMu.Unlock()
	}
	return languages, nil
}
