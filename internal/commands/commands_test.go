package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/pipeline"
	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/testutil"
	"codeberg.org/snonux/deepledit/internal/translation"
)

type defaults struct {
	target, source string
}

func (d defaults) DefaultTargetLanguage() string { return d.target }
func (d defaults) DefaultSourceLanguage() string { return d.source }

type fixture struct {
	commands  *Commands
	container *state.Container
	mock      *testutil.MockProvider
	prompter  *testutil.MockPrompter
	notifier  *testutil.MockNotifier
	buf       *editor.Buffer
}

func newFixture(initial state.State, text string) *fixture {
	container := state.New(initial)
	mock := &testutil.MockProvider{
		Sources: testutil.Languages("DE", "German", "EN", "English"),
		Targets: testutil.Languages("DE", "German", "EN-US", "English (American)"),
	}
	prompter := &testutil.MockPrompter{}
	notifier := &testutil.MockNotifier{}
	client := translation.NewClient(container, mock.Factory(), prompter, zerolog.Nop())

	c := New(Deps{
		Container:  container,
		Translator: client,
		Pipeline:   pipeline.New(client, notifier, zerolog.Nop()),
		Prompter:   prompter,
		Defaults:   defaults{target: "FR"},
		Clipboard:  &testutil.MockClipboard{Text: "Hallo"},
		Logger:     zerolog.Nop(),
	})
	buf := editor.NewBuffer(text)
	c.Focus(buf, []editor.Range{{Start: 0, End: len(text)}})

	return &fixture{commands: c, container: container, mock: mock, prompter: prompter, notifier: notifier, buf: buf}
}

func ready() state.State {
	s := state.Default()
	s.APIKey = "key"
	s.TargetLanguage = "EN-US"
	return s
}

func TestTranslate(t *testing.T) {
	f := newFixture(ready(), "Hallo")

	if err := f.commands.Run(context.Background(), Translate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.buf.Content() != "[EN-US] Hallo" {
		t.Errorf("Unexpected content %q", f.buf.Content())
	}
	if f.prompter.TargetPrompts != 0 {
		t.Errorf("Expected no target prompt, got %d", f.prompter.TargetPrompts)
	}
}

func TestTranslateModes(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{TranslateAbove, "[EN-US] Hallo\nHallo"},
		{TranslateBelow, "Hallo\n[EN-US] Hallo"},
		{DuplicateAndTranslate, "Hallo\n[EN-US] Hallo"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := newFixture(ready(), "Hallo")
			if err := f.commands.Run(context.Background(), tt.command); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if f.buf.Content() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, f.buf.Content())
			}
		})
	}
}

func TestTranslateUsesConfiguredMode(t *testing.T) {
	s := ready()
	s.TranslationMode = state.ModeInsertLineBelow
	f := newFixture(s, "Hallo")

	if err := f.commands.Run(context.Background(), Translate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.buf.Content() != "Hallo\n[EN-US] Hallo" {
		t.Errorf("Unexpected content %q", f.buf.Content())
	}
}

func TestTranslateToPromptsTarget(t *testing.T) {
	f := newFixture(ready(), "Hallo")
	f.prompter.Targets = []string{"DE"}

	if err := f.commands.Run(context.Background(), TranslateTo); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.container.Snapshot().TargetLanguage; got != "DE" {
		t.Errorf("Expected target DE, got %q", got)
	}
	if f.buf.Content() != "[DE] Hallo" {
		t.Errorf("Unexpected content %q", f.buf.Content())
	}
}

func TestTranslateFromToCollision(t *testing.T) {
	f := newFixture(ready(), "Hallo")
	f.prompter.Targets = []string{"EN-US"}
	f.prompter.Sources = []string{"en"}

	if err := f.commands.Run(context.Background(), TranslateFromTo); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.container.Snapshot().SourceLanguage; got != "" {
		t.Errorf("Expected colliding source to be cleared, got %q", got)
	}
	calls := f.mock.TranslateCalls()
	if len(calls) != 1 || calls[0].Source != "" {
		t.Errorf("Expected auto-detected source, got %+v", calls)
	}
}

func TestCancelledTargetIsSilent(t *testing.T) {
	s := ready()
	s.TargetLanguage = ""
	f := newFixture(s, "Hallo")

	if err := f.commands.Run(context.Background(), Translate); err != nil {
		t.Fatalf("Expected cancelled prompt to be swallowed, got %v", err)
	}
	if f.buf.Content() != "Hallo" {
		t.Errorf("Expected buffer unchanged, got %q", f.buf.Content())
	}
	if got := f.container.Snapshot().TargetLanguage; got != "FR" {
		t.Errorf("Expected default target FR, got %q", got)
	}
	if len(f.mock.TranslateCalls()) != 0 {
		t.Error("Expected no translation")
	}
}

func TestConfigurePromptsKey(t *testing.T) {
	f := newFixture(state.Default(), "Hallo")
	f.prompter.APIKeys = []string{"new:fx"}

	if err := f.commands.Run(context.Background(), Configure); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.container.Snapshot().APIKey; got != "new:fx" {
		t.Errorf("Expected new key, got %q", got)
	}
}

func TestSetTargetLanguage(t *testing.T) {
	f := newFixture(ready(), "")
	f.prompter.Targets = []string{"DE"}

	if err := f.commands.Run(context.Background(), SetTargetLanguage); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := f.container.Snapshot().TargetLanguage; got != "DE" {
		t.Errorf("Expected DE, got %q", got)
	}
}

func TestTranslateClipboard(t *testing.T) {
	f := newFixture(ready(), "x y")
	f.commands.Focus(f.buf, []editor.Range{{Start: 0, End: 1}, {Start: 2, End: 3}})

	if err := f.commands.Run(context.Background(), TranslateClipboard); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if f.buf.Content() != "[EN-US] Hallo [EN-US] Hallo" {
		t.Errorf("Unexpected content %q", f.buf.Content())
	}
}

func TestNoEditor(t *testing.T) {
	f := newFixture(ready(), "")
	f.commands.Focus(nil, nil)

	err := f.commands.Run(context.Background(), Translate)
	if !errors.Is(err, ErrNoEditor) {
		t.Errorf("Expected ErrNoEditor, got %v", err)
	}
}

func TestTransportFailureMessage(t *testing.T) {
	f := newFixture(ready(), "Hallo")
	f.mock.Translate = func(apiKey, text, source, target string) (string, error) {
		return "", provider.StatusError(429, "slow down")
	}

	err := f.commands.Run(context.Background(), Translate)
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("Expected Failure, got %v", err)
	}
	if !strings.Contains(failure.Message, "Too many requests") {
		t.Errorf("Unexpected message %q", failure.Message)
	}
}

func TestHandleError(t *testing.T) {
	log := zerolog.Nop()
	if err := HandleError(log, nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	if err := HandleError(log, prompt.ErrCancelled); err != nil {
		t.Errorf("Expected cancellation to be swallowed, got %v", err)
	}
	err := HandleError(log, provider.ErrAuthentication)
	if !errors.Is(err, provider.ErrAuthentication) {
		t.Errorf("Expected wrapped authentication error, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(ready(), "")
	if err := f.commands.Run(context.Background(), "nope"); err == nil {
		t.Error("Expected error for unknown command")
	}
	if len(f.commands.Names()) != 9 {
		t.Errorf("Expected 9 commands, got %v", f.commands.Names())
	}
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(&out, false)
	console.Report(50)
	console.Report(50)
	console.Flash(pipeline.CompletedMessage, pipeline.FlashTimeout)

	if !strings.Contains(out.String(), "100%") || !strings.Contains(out.String(), pipeline.CompletedMessage) {
		t.Errorf("Unexpected console output %q", out.String())
	}
}
