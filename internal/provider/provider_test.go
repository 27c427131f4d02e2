package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		code     int
		wantAuth bool
		wantKind TransportKind
		wantNil  bool
	}{
		{200, false, 0, true},
		{401, true, 0, false},
		{403, true, 0, false},
		{456, false, KindQuotaExceeded, false},
		{413, false, KindTooLarge, false},
		{429, false, KindRateLimited, false},
		{503, false, KindUnavailable, false},
		{400, false, KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := StatusError(tt.code, "msg")
			if tt.wantNil {
				if err != nil {
					t.Fatalf("Expected nil, got %v", err)
				}
				return
			}
			if tt.wantAuth {
				if !errors.Is(err, ErrAuthentication) {
					t.Errorf("Expected authentication error, got %v", err)
				}
				return
			}
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("Expected TransportError, got %T", err)
			}
			if te.Kind != tt.wantKind {
				t.Errorf("Expected kind %v, got %v", tt.wantKind, te.Kind)
			}
			if te.StatusCode != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, te.StatusCode)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", fmt.Errorf("wrapped: %w", ErrAuthentication), "Authentication failed"},
		{"quota", StatusError(456, ""), "Quota exceeded"},
		{"too large", StatusError(413, ""), "too large"},
		{"rate", StatusError(429, ""), "Too many requests"},
		{"unavailable", Unavailable(errors.New("dial tcp")), "unavailable"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("Describe() = %q, expected it to contain %q", got, tt.want)
			}
		})
	}
}

func TestParseLanguageKind(t *testing.T) {
	if kind, err := ParseLanguageKind(" Source "); err != nil || kind != SourceKind {
		t.Errorf("Expected source kind, got %q (%v)", kind, err)
	}
	if kind, err := ParseLanguageKind("target"); err != nil || kind != TargetKind {
		t.Errorf("Expected target kind, got %q (%v)", kind, err)
	}
	if _, err := ParseLanguageKind("middle"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestFind(t *testing.T) {
	languages := []Language{{Code: "DE", Name: "German"}, {Code: "EN-US", Name: "English (American)"}}

	if l, ok := Find(languages, "en-us"); !ok || l.Name != "English (American)" {
		t.Errorf("Expected to find EN-US, got %+v (%v)", l, ok)
	}
	if _, ok := Find(languages, "fr"); ok {
		t.Error("Expected FR to be missing")
	}
}

type stubProvider struct{}

func (stubProvider) TranslateText(context.Context, []string, string, string, Options) ([]Result, error) {
	return nil, nil
}
func (stubProvider) SourceLanguages(context.Context) ([]Language, error) {
	return []Language{{Code: "src"}}, nil
}
func (stubProvider) TargetLanguages(context.Context) ([]Language, error) {
	return []Language{{Code: "tgt"}}, nil
}

func TestList(t *testing.T) {
	src, _ := List(context.Background(), stubProvider{}, SourceKind)
	tgt, _ := List(context.Background(), stubProvider{}, TargetKind)
	if src[0].Code != "src" || tgt[0].Code != "tgt" {
		t.Errorf("Expected source/target lists, got %v / %v", src, tgt)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry("")
	if registry.DefaultProvider() != DefaultName {
		t.Errorf("Expected default %q, got %q", DefaultName, registry.DefaultProvider())
	}

	if _, err := registry.Factory(""); err == nil {
		t.Error("Expected error with no providers registered")
	}

	factory := func(string) (Provider, error) { return stubProvider{}, nil }
	if err := registry.Register(" DeepL ", factory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register("", factory); err == nil {
		t.Error("Expected error for empty name")
	}

	if _, err := registry.Factory(""); err != nil {
		t.Errorf("Expected default provider to resolve, got %v", err)
	}
	if _, err := registry.Factory("OPENAI"); err == nil || !strings.Contains(err.Error(), "deepl") {
		t.Errorf("Expected error listing available providers, got %v", err)
	}
}
