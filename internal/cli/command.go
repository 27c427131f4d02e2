package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/deepledit/internal"
	"codeberg.org/snonux/deepledit/internal/commands"
	"codeberg.org/snonux/deepledit/internal/settings"
)

// bufferCommands are the commands that edit a file
var bufferCommands = []struct {
	name  string
	short string
}{
	{commands.Translate, "Translate the selections in place"},
	{commands.TranslateTo, "Ask for the target language, then translate the selections"},
	{commands.TranslateFromTo, "Ask for source and target language, then translate the selections"},
	{commands.TranslateAbove, "Insert the translation above each selection"},
	{commands.TranslateBelow, "Insert the translation below each selection"},
	{commands.DuplicateAndTranslate, "Duplicate each selection (or its line) with the translation below"},
	{commands.TranslateClipboard, "Replace every selection with the translated clipboard"},
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deepledit",
		Short: "Translate text in files with DeepL",
		Long: `deepledit translates selected regions of text files through the DeepL API
(or an OpenAI or Gemini model) and writes the results back in one edit.

Selections are given as LINE:COL-LINE:COL, LINE:COL, LINE or LINE-LINE.
Without a selection the whole file is translated.

Examples:
  deepledit configure                         # Store your DeepL API key
  deepledit translate notes.md -s 3           # Translate line 3 in place
  deepledit translate-below notes.md -s 1:1-1:12
  deepledit languages target                  # List target languages
  deepledit serve                             # Run the local HTTP API`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, flags)

	for _, bc := range bufferCommands {
		rootCmd.AddCommand(newBufferCommand(flags, bc.name, bc.short))
	}
	rootCmd.AddCommand(
		newConfigureCommand(flags),
		newSetTargetLanguageCommand(flags),
		newLanguagesCommand(flags),
		newStatusCommand(flags),
		newServeCommand(flags),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "settings file (default is $XDG_CONFIG_HOME/deepledit/settings.yaml)")
	cmd.PersistentFlags().StringVar(&flags.EnvFile, "env-file", "", "load environment variables from this file (default .env if present)")
	cmd.PersistentFlags().StringVar(&flags.Provider, "provider", "", "translation provider: deepl, openai or gemini")
	cmd.PersistentFlags().StringVar(&flags.Workspace, "workspace", "", "workspace whose language choices are used (default is the current directory)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Do not show progress")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("provider", cmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("workspace", cmd.PersistentFlags().Lookup("workspace"))
}

func newBufferCommand(flags *Flags, name, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBufferCommand(cmd, flags, name, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&flags.Selections, "select", "s", nil, "selection to translate (repeatable)")
	return cmd
}

func newConfigureCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   commands.Configure,
		Short: "Store the DeepL API key in the secret store",
		Long: `Store the DeepL API key in the secret store.

The key is taken from --api-key, then from DEEPL_AUTH_KEY, and is asked
for interactively otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "DeepL API key")
	return cmd
}

func newSetTargetLanguageCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   commands.SetTargetLanguage,
		Short: "Choose the language to translate into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimpleCommand(cmd, flags, commands.SetTargetLanguage)
		},
	}
}

func newLanguagesCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:       "languages [source|target]",
		Short:     "List the supported languages",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"source", "target"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "target"
			if len(args) == 1 {
				kind = args[0]
			}
			return runLanguages(cmd, flags, kind)
		},
	}
}

func newStatusCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the key and language status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, flags)
		},
	}
}

func newServeCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve translations to editor plugins over local HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (default 127.0.0.1:8765)")
	viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// InitConfig initializes viper configuration. The settings file may hold
// a top-level provider next to the deepl section.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(settings.DefaultConfigPath())
	}
	viper.SetConfigType(configType(viper.ConfigFileUsed()))

	// Environment variables
	viper.SetEnvPrefix("DEEPLEDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing settings file is fine; defaults apply
	_ = viper.ReadInConfig()
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}
