package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/deepledit/internal/app"
	"codeberg.org/snonux/deepledit/internal/commands"
	"codeberg.org/snonux/deepledit/internal/config"
	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/pipeline"
	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/settings"
	"codeberg.org/snonux/deepledit/internal/state"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// openApp loads the configuration and opens the application with terminal
// collaborators
func openApp(cmd *cobra.Command, flags *Flags) (*app.App, error) {
	if _, err := config.LoadEnvFile(flags.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}

	return app.Open(cmd.Context(), app.Options{
		Config:       cfg,
		SettingsFile: viper.ConfigFileUsed(),
		Prompter:     prompt.NewTerminal(os.Stdin, cmd.ErrOrStderr()),
		Notifier:     commands.NewConsole(cmd.ErrOrStderr(), flags.Quiet),
		Clipboard:    pipeline.SystemClipboard{},
	})
}

// applyOverrides copies flag and settings file values over the environment
// configuration
func applyOverrides(cfg *config.Config) error {
	if name := viper.GetString("provider"); name != "" {
		cfg.Provider = name
	}
	if addr := viper.GetString("serve.addr"); addr != "" {
		cfg.ServeAddr = addr
	}
	if dir := viper.GetString("workspace"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		cfg.Workspace = abs
	}
	return cfg.Validate()
}

func runBufferCommand(cmd *cobra.Command, flags *Flags, name, path string) error {
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := editor.OpenFile(path)
	if err != nil {
		return err
	}
	selections, err := file.Selections(flags.Selections)
	if err != nil {
		return err
	}
	a.Commands.Focus(file, selections)

	return a.Commands.Run(cmd.Context(), name)
}

func runSimpleCommand(cmd *cobra.Command, flags *Flags, name string) error {
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Commands.Run(cmd.Context(), name)
}

func runConfigure(cmd *cobra.Command, flags *Flags) error {
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	key := strings.TrimSpace(flags.APIKey)
	if key == "" {
		key = a.Config.APIKey
	}
	if err := commands.HandleError(a.Log, a.Commands.SetAPIKey(cmd.Context(), key)); err != nil {
		return err
	}

	if stored := a.Container.Snapshot().APIKey; stored != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "API key stored: %s\n", settings.MaskKey(stored))
	}
	return nil
}

func runLanguages(cmd *cobra.Command, flags *Flags, raw string) error {
	kind, err := provider.ParseLanguageKind(raw)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Container.Snapshot().APIKey == "" {
		return errors.New("no API key configured, run 'deepledit configure' first")
	}
	languages := a.Client.List(cmd.Context(), kind)
	if len(languages) == 0 {
		return fmt.Errorf("no %s languages available", kind)
	}
	writeLanguages(cmd.OutOrStdout(), languages)
	return nil
}

func writeLanguages(out io.Writer, languages []provider.Language) {
	sorted := make([]provider.Language, len(languages))
	copy(sorted, languages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-8s %s", "CODE", "NAME")))
	for _, lang := range sorted {
		line := fmt.Sprintf("%-8s %s", lang.Code, lang.Name)
		if lang.SupportsFormality {
			line += " " + dimStyle.Render("(formality)")
		}
		fmt.Fprintln(out, line)
	}
}

func runStatus(cmd *cobra.Command, flags *Flags) error {
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	snapshot := a.Container.Snapshot()
	status := state.StatusOf(snapshot)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render(status.Text(func(code string) string {
		return a.Client.Name(ctx, code)
	})))
	fmt.Fprintln(out, dimStyle.Render(status.Tooltip()))
	fmt.Fprintf(out, "provider:  %s\n", a.Config.Provider)
	fmt.Fprintf(out, "workspace: %s\n", a.Config.Workspace)
	fmt.Fprintf(out, "mode:      %s\n", snapshot.TranslationMode)
	if snapshot.APIKey != "" {
		fmt.Fprintf(out, "api key:   %s\n", settings.MaskKey(snapshot.APIKey))
	}
	if command := status.Command(); command != "" {
		fmt.Fprintf(out, "next:      deepledit %s\n", command)
	}
	return nil
}

func runServe(cmd *cobra.Command, flags *Flags) error {
	a, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", a.Config.ServeAddr)
	return a.Server().Start(cmd.Context())
}
