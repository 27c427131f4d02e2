package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
)

const (
	// CompletedMessage is flashed after the edit was applied
	CompletedMessage = "Translation completed!"

	// FlashTimeout is how long the completion message stays visible
	FlashTimeout = 3 * time.Second
)

// Editor is the buffer selections are read from and written to
type Editor interface {
	Text(r editor.Range) (string, error)
	LineRange(r editor.Range) editor.Range
	SingleLine(r editor.Range) bool
	Apply(edits []editor.Edit) error
}

// Translator translates one text
type Translator interface {
	TranslateOne(ctx context.Context, text, source, target string, retries int) (provider.Result, bool, error)
}

// Notifier shows progress and short-lived confirmations
type Notifier interface {
	Report(increment float64)
	Flash(message string, timeout time.Duration)
}

// Request describes one pipeline run
type Request struct {
	Target  string
	Source  string
	Mode    state.TranslationMode
	Retries int
}

// Pipeline translates buffer selections
type Pipeline struct {
	translator Translator
	notifier   Notifier
	log        zerolog.Logger
}

// New creates a pipeline
func New(translator Translator, notifier Notifier, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		translator: translator,
		notifier:   notifier,
		log:        logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run translates every selection and applies the results in one edit.
// Empty selections and selections without a result are left untouched.
// It returns the applied edits.
func (p *Pipeline) Run(ctx context.Context, ed Editor, selections []editor.Range, req Request) ([]editor.Edit, error) {
	if len(selections) == 0 {
		return nil, nil
	}
	increment := 100.0 / 2 / float64(len(selections))

	texts := make([]string, len(selections))
	for i, sel := range selections {
		text, err := ed.Text(sel)
		if err != nil {
			return nil, fmt.Errorf("read selection %d: %w", i, err)
		}
		texts[i] = text
	}

	results, err := p.translateAll(ctx, texts, req, increment)
	if err != nil {
		return nil, err
	}

	edits := make([]editor.Edit, 0, len(selections))
	for i, sel := range selections {
		if results[i] != nil {
			edits = append(edits, editor.Edit{Range: sel, Text: req.Mode.Merge(texts[i], results[i].Text)})
		}
	}
	if err := ed.Apply(edits); err != nil {
		return nil, fmt.Errorf("apply translations: %w", err)
	}
	for range selections {
		p.notifier.Report(increment)
	}

	p.notifier.Flash(CompletedMessage, FlashTimeout)
	return edits, nil
}

// DuplicateAndTranslate translates the selections and inserts each
// translation below its original. An empty selection on a single line
// stands for the whole line.
func (p *Pipeline) DuplicateAndTranslate(ctx context.Context, ed Editor, selections []editor.Range, req Request) ([]editor.Edit, error) {
	expanded := make([]editor.Range, len(selections))
	for i, sel := range selections {
		if sel.Empty() && ed.SingleLine(sel) {
			sel = ed.LineRange(sel)
		}
		expanded[i] = sel
	}
	req.Mode = state.ModeInsertLineBelow
	return p.Run(ctx, ed, expanded, req)
}

// TranslateText translates text once and replaces every selection with the
// result
func (p *Pipeline) TranslateText(ctx context.Context, ed Editor, selections []editor.Range, text string, req Request) ([]editor.Edit, error) {
	if text == "" || len(selections) == 0 {
		return nil, nil
	}

	result, ok, err := p.translator.TranslateOne(ctx, text, req.Source, req.Target, req.Retries)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.log.Debug().Str("text", text).Msg("provider returned no translation")
		return nil, nil
	}

	edits := make([]editor.Edit, len(selections))
	for i, sel := range selections {
		edits[i] = editor.Edit{Range: sel, Text: result.Text}
	}
	if err := ed.Apply(edits); err != nil {
		return nil, fmt.Errorf("apply translation: %w", err)
	}
	p.notifier.Flash(CompletedMessage, FlashTimeout)
	return edits, nil
}

func (p *Pipeline) translateAll(ctx context.Context, texts []string, req Request, increment float64) ([]*provider.Result, error) {
	results := make([]*provider.Result, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		if text == "" {
			p.notifier.Report(increment)
			continue
		}

		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer p.notifier.Report(increment)

			log := p.log.With().Int("index", i).Logger()
			log.Debug().Str("text", text).Str("source", req.Source).Str("target", req.Target).Msg("start translating")

			result, ok, err := p.translator.TranslateOne(ctx, text, req.Source, req.Target, req.Retries)
			if err != nil {
				errs[i] = err
				return
			}
			if !ok {
				log.Debug().Str("text", text).Msg("provider returned no translation")
				return
			}
			log.Debug().
				Str("result", result.Text).
				Str("detected_source", result.DetectedSourceLanguage).
				Msg("translated")
			results[i] = &result
		}(i, text)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
