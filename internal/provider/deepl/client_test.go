package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"codeberg.org/snonux/deepledit/internal/provider"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"abc:fx", freeAPIURL},
		{"abc", proAPIURL},
		{" abc:fx ", freeAPIURL},
	}

	for _, tt := range tests {
		if got := BaseURL(tt.key); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTranslateText(t *testing.T) {
	var got translateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "DeepL-Auth-Key secret" {
			t.Errorf("Expected auth header, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"detected_source_language":"DE","text":"Hello"},{"detected_source_language":"DE","text":"World"}]}`))
	}))
	defer server.Close()

	client := New("secret", Config{ServerURL: server.URL})
	results, err := client.TranslateText(context.Background(), []string{"Hallo", "Welt"}, "de", "en-us", provider.Options{
		Formality:      "more",
		TagHandling:    "html",
		IgnoreTags:     "code, pre",
		SplitSentences: "1",
	})
	if err != nil {
		t.Fatalf("TranslateText failed: %v", err)
	}

	if len(results) != 2 || results[0].Text != "Hello" || results[1].DetectedSourceLanguage != "DE" {
		t.Errorf("Unexpected results: %+v", results)
	}
	if got.TargetLang != "EN-US" || got.SourceLang != "DE" {
		t.Errorf("Expected EN-US/DE, got %q/%q", got.TargetLang, got.SourceLang)
	}
	if len(got.IgnoreTags) != 2 || got.IgnoreTags[1] != "pre" {
		t.Errorf("Expected split ignore tags, got %v", got.IgnoreTags)
	}
	if got.Formality != "more" || got.TagHandling != "html" || got.SplitSentences != "1" {
		t.Errorf("Expected options forwarded, got %+v", got)
	}
}

func TestLanguages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "target" {
			t.Errorf("Expected type=target, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"language":"DE","name":"German","supports_formality":true},{"language":"EN-US","name":"English (American)","supports_formality":false}]`))
	}))
	defer server.Close()

	languages, err := New("secret", Config{ServerURL: server.URL}).TargetLanguages(context.Background())
	if err != nil {
		t.Fatalf("TargetLanguages failed: %v", err)
	}
	if len(languages) != 2 {
		t.Fatalf("Expected 2 languages, got %d", len(languages))
	}
	if !languages[0].SupportsFormality || languages[1].SupportsFormality {
		t.Errorf("Unexpected formality flags: %+v", languages)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantAuth bool
		wantKind provider.TransportKind
	}{
		{http.StatusForbidden, true, 0},
		{456, false, provider.KindQuotaExceeded},
		{http.StatusRequestEntityTooLarge, false, provider.KindTooLarge},
		{http.StatusTooManyRequests, false, provider.KindRateLimited},
		{http.StatusServiceUnavailable, false, provider.KindUnavailable},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope"}`))
		}))

		_, err := New("secret", Config{ServerURL: server.URL}).TranslateText(context.Background(), []string{"x"}, "", "DE", provider.Options{})
		server.Close()

		if tt.wantAuth {
			if !errors.Is(err, provider.ErrAuthentication) {
				t.Errorf("status %d: expected authentication error, got %v", tt.status, err)
			}
			continue
		}
		var te *provider.TransportError
		if !errors.As(err, &te) {
			t.Errorf("status %d: expected TransportError, got %v", tt.status, err)
			continue
		}
		if te.Kind != tt.wantKind || te.Message != "nope" {
			t.Errorf("status %d: got kind %v message %q", tt.status, te.Kind, te.Message)
		}
	}
}

func TestBreakerOpensOnUnavailability(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	factory := Factory(Config{ServerURL: server.URL})
	for i := 0; i < 7; i++ {
		p, err := factory("secret")
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.TranslateText(context.Background(), []string{"x"}, "", "DE", provider.Options{})
		var te *provider.TransportError
		if !errors.As(err, &te) || te.Kind != provider.KindUnavailable {
			t.Fatalf("call %d: expected unavailable, got %v", i, err)
		}
	}
	if n := calls.Load(); n != 5 {
		t.Errorf("Expected breaker to stop requests after 5 failures, got %d requests", n)
	}
}

func TestFactoryRejectsEmptyKey(t *testing.T) {
	if _, err := Factory(Config{})(""); !errors.Is(err, provider.ErrAuthentication) {
		t.Errorf("Expected authentication error for empty key, got %v", err)
	}
}

func TestTranslateText_Integration(t *testing.T) {
	apiKey := os.Getenv("DEEPL_AUTH_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: DEEPL_AUTH_KEY not set")
	}

	results, err := New(apiKey, Config{}).TranslateText(context.Background(), []string{"Hallo Welt"}, "", "EN-US", provider.Options{})
	if err != nil {
		t.Fatalf("TranslateText failed: %v", err)
	}
	if len(results) != 1 || results[0].Text == "" {
		t.Fatalf("Unexpected results: %+v", results)
	}
	t.Logf("Translation of 'Hallo Welt': %s", results[0].Text)
}
