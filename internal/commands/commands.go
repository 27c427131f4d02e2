package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/language"
	"codeberg.org/snonux/deepledit/internal/pipeline"
	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/translation"
)

// Command names
const (
	Configure             = "configure"
	Translate             = "translate"
	TranslateTo           = "translate-to"
	TranslateFromTo       = "translate-from-to"
	TranslateAbove        = "translate-above"
	TranslateBelow        = "translate-below"
	DuplicateAndTranslate = "duplicate-and-translate"
	TranslateClipboard    = "translate-clipboard"
	SetTargetLanguage     = "set-target-language"
)

// ErrNoEditor is returned by buffer commands when nothing is focused
var ErrNoEditor = errors.New("no active editor")

// Handler is a command entry point
type Handler func(ctx context.Context) error

// Defaults resolves the configured fallback languages
type Defaults interface {
	DefaultTargetLanguage() string
	DefaultSourceLanguage() string
}

// Deps are the collaborators shared by every command
type Deps struct {
	Container  *state.Container
	Translator *translation.Client
	Pipeline   *pipeline.Pipeline
	Prompter   prompt.Prompter
	Defaults   Defaults
	Clipboard  pipeline.Clipboard
	Logger     zerolog.Logger
}

// Commands holds the command handlers and the focused editor
type Commands struct {
	deps     Deps
	log      zerolog.Logger
	handlers map[string]Handler

	mu         sync.Mutex
	editor     pipeline.Editor
	selections []editor.Range
}

type translateOptions struct {
	askForTarget bool
	askForSource bool
	// mode overrides the configured translation mode when set
	mode state.TranslationMode
}

// New creates the command set
func New(deps Deps) *Commands {
	c := &Commands{
		deps: deps,
		log:  deps.Logger.With().Str("component", "commands").Logger(),
	}
	c.handlers = map[string]Handler{
		Configure:             c.configure,
		Translate:             c.newTranslateCommand(translateOptions{}),
		TranslateTo:           c.newTranslateCommand(translateOptions{askForTarget: true}),
		TranslateFromTo:       c.newTranslateCommand(translateOptions{askForTarget: true, askForSource: true}),
		TranslateAbove:        c.newTranslateCommand(translateOptions{mode: state.ModeInsertLineAbove}),
		TranslateBelow:        c.newTranslateCommand(translateOptions{mode: state.ModeInsertLineBelow}),
		DuplicateAndTranslate: c.duplicateAndTranslate,
		TranslateClipboard:    c.translateClipboard,
		SetTargetLanguage:     c.setTargetLanguage,
	}
	return c
}

// Focus sets the editor and selections buffer commands work on
func (c *Commands) Focus(ed pipeline.Editor, selections []editor.Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor = ed
	c.selections = append([]editor.Range(nil), selections...)
}

// Names returns the command names in sorted order
func (c *Commands) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the handler of name
func (c *Commands) Handler(name string) (Handler, bool) {
	h, ok := c.handlers[name]
	return h, ok
}

// Run executes the command name and passes its error through HandleError
func (c *Commands) Run(ctx context.Context, name string) error {
	h, ok := c.handlers[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	c.log.Debug().Str("command", name).Msg("running command")
	return HandleError(c.log, h(ctx))
}

// SetAPIKey stores key in the state. An empty key asks for one.
func (c *Commands) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		var err error
		if key, err = c.deps.Prompter.APIKey(ctx); err != nil {
			return err
		}
		if key = strings.TrimSpace(key); key == "" {
			return prompt.ErrCancelled
		}
	}
	c.deps.Container.Update(func(s *state.State) { s.APIKey = key })
	return nil
}

func (c *Commands) configure(ctx context.Context) error {
	return c.SetAPIKey(ctx, "")
}

func (c *Commands) setTargetLanguage(ctx context.Context) error {
	code, err := c.deps.Prompter.Language(ctx, provider.TargetKind, c.deps.Translator.TargetLanguages(ctx))
	if err != nil {
		return err
	}
	c.deps.Container.Update(func(s *state.State) { s.TargetLanguage = code })
	return nil
}

func (c *Commands) newTranslateCommand(opts translateOptions) Handler {
	return func(ctx context.Context) error {
		ed, selections, err := c.focused()
		if err != nil {
			return err
		}

		source, err := c.resolveLanguages(ctx, opts.askForTarget, opts.askForSource)
		if err != nil {
			return err
		}

		nonEmpty := selections[:0:0]
		for _, sel := range selections {
			if !sel.Empty() {
				nonEmpty = append(nonEmpty, sel)
			}
		}
		if len(nonEmpty) == 0 {
			c.log.Debug().Msg("nothing selected")
			return nil
		}

		snapshot := c.deps.Container.Snapshot()
		mode := opts.mode
		if mode == "" {
			mode = snapshot.TranslationMode
		}
		_, err = c.deps.Pipeline.Run(ctx, ed, nonEmpty, pipeline.Request{
			Target:  snapshot.TargetLanguage,
			Source:  source,
			Mode:    mode,
			Retries: translation.DefaultRetries,
		})
		return err
	}
}

func (c *Commands) duplicateAndTranslate(ctx context.Context) error {
	ed, selections, err := c.focused()
	if err != nil {
		return err
	}
	source, err := c.resolveLanguages(ctx, false, false)
	if err != nil {
		return err
	}

	_, err = c.deps.Pipeline.DuplicateAndTranslate(ctx, ed, selections, pipeline.Request{
		Target:  c.deps.Container.Snapshot().TargetLanguage,
		Source:  source,
		Retries: translation.DefaultRetries,
	})
	return err
}

func (c *Commands) translateClipboard(ctx context.Context) error {
	ed, selections, err := c.focused()
	if err != nil {
		return err
	}
	if c.deps.Clipboard == nil {
		return fmt.Errorf("no clipboard available")
	}
	source, err := c.resolveLanguages(ctx, false, false)
	if err != nil {
		return err
	}

	text, err := c.deps.Clipboard.ReadAll()
	if err != nil {
		return err
	}
	if text == "" {
		c.log.Debug().Msg("clipboard is empty")
		return nil
	}

	_, err = c.deps.Pipeline.TranslateText(ctx, ed, selections, text, pipeline.Request{
		Target:  c.deps.Container.Snapshot().TargetLanguage,
		Source:  source,
		Retries: translation.DefaultRetries,
	})
	return err
}

// resolveLanguages makes sure a key and a target language are set,
// asking where needed, and returns the source language of this run.
func (c *Commands) resolveLanguages(ctx context.Context, askForTarget, askForSource bool) (string, error) {
	if c.deps.Container.Snapshot().APIKey == "" {
		if err := c.SetAPIKey(ctx, ""); err != nil {
			return "", err
		}
	}

	if askForTarget || c.deps.Container.Snapshot().TargetLanguage == "" {
		code, err := c.deps.Prompter.Language(ctx, provider.TargetKind, c.deps.Translator.TargetLanguages(ctx))
		if err != nil {
			c.restoreDefaultTarget()
			return "", err
		}
		c.deps.Container.Update(func(s *state.State) { s.TargetLanguage = code })
	}

	source := c.deps.Container.Snapshot().SourceLanguage
	if askForSource {
		code, err := c.deps.Prompter.Language(ctx, provider.SourceKind, c.deps.Translator.SourceLanguages(ctx))
		switch {
		case err == nil:
			c.deps.Container.Update(func(s *state.State) { s.SourceLanguage = code })
			source = code
		case errors.Is(err, prompt.ErrCancelled):
			// No source means auto-detection for this run
			source = ""
		default:
			return "", err
		}
	}

	if language.Same(c.deps.Container.Snapshot().TargetLanguage, source) {
		source = ""
	}
	return source, nil
}

// restoreDefaultTarget falls back to the configured default target when
// no target is set
func (c *Commands) restoreDefaultTarget() {
	if c.deps.Defaults == nil {
		return
	}
	def := c.deps.Defaults.DefaultTargetLanguage()
	if def == "" {
		return
	}
	c.deps.Container.Update(func(s *state.State) {
		if s.TargetLanguage == "" {
			s.TargetLanguage = def
		}
	})
}

func (c *Commands) focused() (pipeline.Editor, []editor.Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editor == nil {
		return nil, nil, ErrNoEditor
	}
	return c.editor, append([]editor.Range(nil), c.selections...), nil
}
