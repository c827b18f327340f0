package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/config"
	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
	"github.com/fedlink-ai/fedlink/internal/util"
)

// version is set via -ldflags at build time.
var version = "v0.1.0"

// appConfig holds the configuration loaded by the persistent pre-run hook.
// Commands that run before initialization (init, version, completion) leave
// it nil.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "fedlink",
	Short: "Fedlink - Federal AI inventory linkage",
	Long: `Fedlink ingests public federal AI feeds (use case inventories, agency
AI profiles, the FedRAMP marketplace, and AI incident reports), normalizes
them into one SQLite database, and links records across feeds with
deterministic rules and embedding similarity.

Typical flow:

  fedlink init
  fedlink load orgs --file orgs.json
  fedlink load usecases --file inventory.csv
  fedlink match run
  fedlink stats`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig is called before any command runs to load configuration and
// install the process logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	// For init, version, completion, and help, skip config loading since
	// config may not exist yet
	switch cmd.Name() {
	case "init", "version", "completion", "help", "__complete":
		return nil
	}

	configFile := resolveConfigFile(flags)

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configFile)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load configuration from "+configFile, err)
	}
	appConfig = cfg

	setupLogging(cfg, flags)
	return nil
}

// resolveHomeDir picks the home directory from the flag, the environment,
// or the built-in default, in that order.
func resolveHomeDir(flags *GlobalFlags) string {
	if flags.HomeDir != "" {
		return expandPath(flags.HomeDir)
	}
	if env := os.Getenv("FEDLINK_HOME"); env != "" {
		return expandPath(env)
	}
	return config.DefaultHomeDir()
}

func resolveConfigFile(flags *GlobalFlags) string {
	if flags.ConfigFile != "" {
		return expandPath(flags.ConfigFile)
	}
	return config.DefaultConfigPath(resolveHomeDir(flags))
}

// expandPath resolves ~ and $VAR references in user-supplied paths. When the
// home directory cannot be determined the raw value is used as given.
func expandPath(path string) string {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// setupLogging installs the default slog logger. Flags win over the config
// file: --verbose forces debug, --quiet drops everything below error. Logs
// go to stderr so stdout stays parseable command output.
func setupLogging(cfg *config.Config, flags *GlobalFlags) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if flags.IsVerbose() {
		level = slog.LevelDebug
	}
	if flags.IsQuiet() {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openDatabase opens the configured SQLite database for a command.
func openDatabase() (*database.DB, error) {
	if appConfig == nil {
		return nil, internal.NewCLIError(internal.ExitConfigError, "configuration not loaded (run 'fedlink init' first)")
	}

	dbCfg := database.DefaultConfig(appConfig.Database.Path)
	dbCfg.MaxOpenConns = appConfig.Database.MaxConnections
	dbCfg.BusyTimeout = appConfig.Database.BusyTimeout

	db, err := database.OpenWithConfig(dbCfg)
	if err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to open database at "+appConfig.Database.Path, err)
	}
	return db, nil
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(orgCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fedlink %s\n", version)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for fedlink.

To load completions:

Bash:

  $ source <(fedlink completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ fedlink completion bash > /etc/bash_completion.d/fedlink
  # macOS:
  $ fedlink completion bash > $(brew --prefix)/etc/bash_completion.d/fedlink

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ fedlink completion zsh > "${fpath[1]}/_fedlink"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ fedlink completion fish | source

  # To load completions for each session, execute once:
  $ fedlink completion fish > ~/.config/fish/completions/fedlink.fish

PowerShell:

  PS> fedlink completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> fedlink completion powershell > fedlink.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			_ = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			_ = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			_ = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			_ = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
