package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/testutil"
	"codeberg.org/snonux/deepledit/internal/translation"
)

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T, initial state.State, mock *testutil.MockProvider) http.Handler {
	t.Helper()
	container := state.New(initial)
	client := translation.NewClient(container, mock.Factory(), prompt.Declining{}, zerolog.Nop())
	return NewServer(container, client, zerolog.Nop(), Options{}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func configured() state.State {
	s := state.Default()
	s.APIKey = "key"
	s.TargetLanguage = "EN-US"
	return s
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, state.Default(), &testutil.MockProvider{})
	rec, env := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Errorf("Unexpected response %d %+v", rec.Code, env)
	}
}

func TestStatus(t *testing.T) {
	mock := &testutil.MockProvider{Targets: testutil.Languages("EN-US", "English (American)")}
	h := newTestServer(t, configured(), mock)

	_, env := do(t, h, http.MethodGet, "/status", "")
	var status statusResponse
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if !status.HasAPIKey || status.Text != "English (American)" || status.Command != "set-target-language" {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestLanguages(t *testing.T) {
	mock := &testutil.MockProvider{Sources: testutil.Languages("DE", "German")}
	h := newTestServer(t, configured(), mock)

	rec, env := do(t, h, http.MethodGet, "/languages/source", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var data struct {
		Items []provider.Language `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode languages: %v", err)
	}
	if len(data.Items) != 1 || data.Items[0].Code != "DE" {
		t.Errorf("Unexpected languages %+v", data.Items)
	}

	if rec, _ := do(t, h, http.MethodGet, "/languages/sideways", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestTranslate(t *testing.T) {
	h := newTestServer(t, configured(), &testutil.MockProvider{})

	rec, env := do(t, h, http.MethodPost, "/translate", `{"texts":["Hallo"],"target":"DE","source":"de"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp translateResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Text != "[DE] Hallo" || !resp.Successful {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name    string
		initial state.State
		mock    *testutil.MockProvider
		body    string
		want    int
	}{
		{"no texts", configured(), &testutil.MockProvider{}, `{"texts":[]}`, http.StatusBadRequest},
		{"bad json", configured(), &testutil.MockProvider{}, `{`, http.StatusBadRequest},
		{"no key", func() state.State { s := configured(); s.APIKey = ""; return s }(), &testutil.MockProvider{}, `{"texts":["a"]}`, http.StatusUnauthorized},
		{"no target", func() state.State { s := configured(); s.TargetLanguage = ""; return s }(), &testutil.MockProvider{}, `{"texts":["a"]}`, http.StatusBadRequest},
		{
			"rejected key",
			configured(),
			&testutil.MockProvider{Translate: func(apiKey, text, source, target string) (string, error) {
				return "", provider.ErrAuthentication
			}},
			`{"texts":["a"]}`,
			http.StatusUnauthorized,
		},
		{
			"quota",
			configured(),
			&testutil.MockProvider{Translate: func(apiKey, text, source, target string) (string, error) {
				return "", provider.StatusError(456, "quota")
			}},
			`{"texts":["a"]}`,
			http.StatusPaymentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.initial, tt.mock)
			rec, env := do(t, h, http.MethodPost, "/translate", tt.body)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d (%s)", tt.want, rec.Code, env.Message)
			}
			if env.Status != "fail" {
				t.Errorf("Expected fail status, got %q", env.Status)
			}
		})
	}
}

func TestEdits(t *testing.T) {
	hello := &testutil.MockProvider{Translate: func(apiKey, text, source, target string) (string, error) {
		return "Hello", nil
	}}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"replace", `{"text":"Hallo","selections":[{"start":0,"end":5}],"mode":"replace"}`, "Hello"},
		{"below", `{"text":"Hallo","selections":[{"start":0,"end":5}],"mode":"insertLineBelow"}`, "Hallo\nHello"},
		{"above", `{"text":"Hallo","selections":[{"start":0,"end":5}],"mode":"insertLineAbove"}`, "Hello\nHallo"},
		{"duplicate", `{"text":"Hallo","selections":[{"start":2,"end":2}],"duplicate":true}`, "Hallo\nHello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, configured(), hello)
			rec, env := do(t, h, http.MethodPost, "/edits", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp editsResponse
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if resp.Text != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, resp.Text)
			}
		})
	}
}

func TestEditsRejectsBadSelection(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"outside buffer", `{"text":"abc","selections":[{"start":1,"end":9}]}`, http.StatusBadRequest, "outside"},
		{"overlapping", `{"text":"Hallo Welt","selections":[{"start":0,"end":5},{"start":3,"end":10}]}`, http.StatusUnprocessableEntity, "overlap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, configured(), &testutil.MockProvider{})
			rec, env := do(t, h, http.MethodPost, "/edits", tt.body)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
			if env.Status != "fail" || !strings.Contains(env.Message, tt.message) {
				t.Errorf("Expected fail containing %q, got %+v", tt.message, env)
			}
		})
	}
}
