package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/language"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/translation"
)

type statusResponse struct {
	Status         string `json:"status"`
	Text           string `json:"text"`
	Tooltip        string `json:"tooltip"`
	Command        string `json:"command"`
	HasAPIKey      bool   `json:"has_api_key"`
	TargetLanguage string `json:"target_language,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	Mode           string `json:"translation_mode"`
}

type translateRequest struct {
	Texts  []string `json:"texts"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target,omitempty"`
}

type translateResponse struct {
	Results    []provider.Result `json:"results"`
	Successful bool              `json:"successful"`
}

type editsRequest struct {
	Text       string         `json:"text"`
	Selections []editor.Range `json:"selections"`
	Mode       string         `json:"mode,omitempty"`
	Duplicate  bool           `json:"duplicate,omitempty"`
	Source     string         `json:"source,omitempty"`
	Target     string         `json:"target,omitempty"`
}

type editsResponse struct {
	Text  string        `json:"text"`
	Edits []editor.Edit `json:"edits"`
}

func (s *Server) handleStatus(c echo.Context) error {
	snapshot := s.container.Snapshot()
	status := state.StatusOf(snapshot)
	ctx := c.Request().Context()

	return success(c, statusResponse{
		Status: status.Kind.String(),
		Text: status.Text(func(code string) string {
			return s.translator.Name(ctx, code)
		}),
		Tooltip:        status.Tooltip(),
		Command:        status.Command(),
		HasAPIKey:      snapshot.APIKey != "",
		TargetLanguage: snapshot.TargetLanguage,
		SourceLanguage: snapshot.SourceLanguage,
		Mode:           string(snapshot.TranslationMode),
	})
}

func (s *Server) handleLanguages(c echo.Context) error {
	kind, err := provider.ParseLanguageKind(c.Param("kind"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	languages := s.translator.List(c.Request().Context(), kind)
	if languages == nil {
		languages = []provider.Language{}
	}
	return success(c, map[string]any{"items": languages})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Texts) == 0 {
		return fail(c, http.StatusBadRequest, "texts is required")
	}

	source, target, ok := s.languages(req.Source, req.Target)
	if !ok {
		return fail(c, http.StatusBadRequest, "No target language given or configured")
	}
	if s.container.Snapshot().APIKey == "" {
		return fail(c, http.StatusUnauthorized, "No API key configured")
	}

	results, err := s.translator.Translate(c.Request().Context(), req.Texts, source, target, translation.DefaultRetries)
	if err != nil {
		return err
	}
	return success(c, translateResponse{
		Results:    results,
		Successful: translation.Successful(req.Texts, results),
	})
}

func (s *Server) handleEdits(c echo.Context) error {
	var req editsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Selections) == 0 {
		return fail(c, http.StatusBadRequest, "selections is required")
	}

	mode := s.container.Snapshot().TranslationMode
	if req.Mode != "" {
		parsed, ok := state.ParseTranslationMode(req.Mode)
		if !ok {
			return fail(c, http.StatusBadRequest, "Unknown translation mode")
		}
		mode = parsed
	}

	source, target, ok := s.languages(req.Source, req.Target)
	if !ok {
		return fail(c, http.StatusBadRequest, "No target language given or configured")
	}
	if s.container.Snapshot().APIKey == "" {
		return fail(c, http.StatusUnauthorized, "No API key configured")
	}

	buf := editor.NewBuffer(req.Text)
	for _, sel := range req.Selections {
		if _, err := buf.Text(sel); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}

	run := s.pipeline.Run
	if req.Duplicate {
		run = s.pipeline.DuplicateAndTranslate
	}
	edits, err := run(c.Request().Context(), buf, req.Selections, requestFor(source, target, mode))
	if err != nil {
		return err
	}
	if edits == nil {
		edits = []editor.Edit{}
	}
	return success(c, editsResponse{Text: buf.Content(), Edits: edits})
}

// languages resolves the request languages against the state. A source
// equal to the target means auto-detection.
func (s *Server) languages(source, target string) (string, string, bool) {
	snapshot := s.container.Snapshot()
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if target == "" {
		target = snapshot.TargetLanguage
	}
	if source == "" {
		source = snapshot.SourceLanguage
	}
	if target == "" {
		return "", "", false
	}
	if language.Same(source, target) {
		source = ""
	}
	return source, target, true
}
