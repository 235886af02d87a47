package cli

import (
	"github.com/spf13/cobra"

	"lsp-folding/src/config"
	"lsp-folding/src/internal/common"
	versionpkg "lsp-folding/src/internal/version"
)

// CLI Constants
const (
	CmdServe      = "serve"
	CmdFold       = "fold"
	CmdConfig     = "config"
	CmdConfigInit = "init"
	CmdConfigShow = "show"
	CmdLanguages  = "languages"
	CmdVersion    = "version"
	FlagConfig    = "config"
	FlagVerbose   = "verbose"
	FlagStdio     = "stdio"
	FlagHTTP      = "http"
	FlagJSON      = "json"
	FlagLanguage  = "language"
	FlagColor     = "color"
	FlagForce     = "force"

	// httpFromConfig is the value of a bare --http flag
	httpFromConfig = "config"
)

// CLI Variables
var (
	configPath string
	verbose    bool
	useStdio   bool
	httpAddr   string
	formatJSON bool
	language   string
	colorMode  string
	force      bool
)

// Root command
var rootCmd = &cobra.Command{
	Use:   "lsp-folding",
	Short: "lsp-folding - folding ranges for editors from external outline programs",
	Long: `lsp-folding answers the Language Server Protocol textDocument/foldingRange request.

Outlines are computed by external programs configured per language; lsp-folding keeps
the editor's documents, translates outline spans to editor positions and classifies
them as comment, imports or region folds.

QUICK START:
  lsp-folding config init                 # Write ~/.lsp-folding/config.yaml
  lsp-folding serve                       # Language server over stdio
  lsp-folding serve --http                # HTTP gateway (JSON-RPC + websocket)
  lsp-folding fold Program.cs             # Print the folding ranges of a file

Use 'lsp-folding <command> --help' for detailed command information.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupEnvironment,
}

// Command definitions
var (
	serveCmd = &cobra.Command{
		Use:   CmdServe,
		Short: "Start the language server",
		Long: `Start lsp-folding as a language server.

By default the server speaks LSP over stdin/stdout. With --http it starts the HTTP
gateway instead, serving:
  POST /jsonrpc   textDocument/foldingRange for files on disk
  GET  /health    liveness and configured outline languages
  GET  /languages known languages and extensions
  GET  /lsp       LSP over websocket, one session per connection

Examples:
  lsp-folding serve                        # stdio
  lsp-folding serve --http                 # address from config (server.http_addr)
  lsp-folding serve --http=127.0.0.1:9000  # explicit address`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	foldCmd = &cobra.Command{
		Use:   CmdFold + " <file>",
		Short: "Print the folding ranges of a file",
		Long: `Compute the folding ranges of a file on disk with the configured outline program.

Examples:
  lsp-folding fold Program.cs
  lsp-folding fold --json Program.cs
  lsp-folding fold --language csharp script.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runFoldCmd,
	}

	configCmd = &cobra.Command{
		Use:   CmdConfig,
		Short: "Manage the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configInitCmd = &cobra.Command{
		Use:   CmdConfigInit,
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInitCmd,
	}

	configShowCmd = &cobra.Command{
		Use:   CmdConfigShow,
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShowCmd,
	}

	languagesCmd = &cobra.Command{
		Use:   CmdLanguages,
		Short: "List known languages and configured outline programs",
		Args:  cobra.NoArgs,
		RunE:  runLanguagesCmd,
	}

	versionCmd = &cobra.Command{
		Use:   CmdVersion,
		Short: "Show version information",
		Long: `Display version information for lsp-folding.

Use --verbose for detailed build information.`,
		Args: cobra.NoArgs,
		RunE: runVersionCmd,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (default ~/.lsp-folding/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, FlagVerbose, "v", false, "Enable debug logging")

	serveCmd.Flags().BoolVar(&useStdio, FlagStdio, true, "Serve LSP over stdin/stdout")
	serveCmd.Flags().StringVar(&httpAddr, FlagHTTP, "", "Serve the HTTP gateway on this address")
	serveCmd.Flags().Lookup(FlagHTTP).NoOptDefVal = httpFromConfig

	foldCmd.Flags().BoolVar(&formatJSON, FlagJSON, false, "Output in JSON format")
	foldCmd.Flags().StringVarP(&language, FlagLanguage, "l", "", "Language id (detected from the extension by default)")
	foldCmd.Flags().StringVar(&colorMode, FlagColor, "auto", "Color output: auto, always or never")

	configInitCmd.Flags().BoolVarP(&force, FlagForce, "f", false, "Overwrite an existing file")

	languagesCmd.Flags().StringVar(&colorMode, FlagColor, "auto", "Color output: auto, always or never")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	// Add commands to root
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(foldCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupEnvironment loads .env files before any command reads its configuration
func setupEnvironment(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles()...); err != nil {
		common.CLILogger.Warn("%v", err)
	}
	if verbose {
		common.SetGlobalLevel(common.LogDebug)
	}
	return nil
}

// loadConfig loads the configuration and applies its log level; --verbose wins
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	level, _ := common.ParseLogLevel(cfg.LogLevel)
	if verbose {
		level = common.LogDebug
	}
	common.SetGlobalLevel(level)
	return cfg, nil
}

// Command runner functions - these delegate to the extracted modules

func runServeCmd(cmd *cobra.Command, args []string) error {
	if httpAddr != "" && cmd.Flags().Changed(FlagStdio) && useStdio {
		return common.ParameterValidationError(FlagHTTP, "--stdio and --http are mutually exclusive")
	}
	return RunServe(cmd.Context(), httpAddr)
}

func runFoldCmd(cmd *cobra.Command, args []string) error {
	return RunFold(cmd.Context(), cmd.OutOrStdout(), args[0], FoldOptions{
		JSON:     formatJSON,
		Language: language,
		Color:    colorMode,
	})
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	return InitConfig(cmd.OutOrStdout(), configPath, force)
}

func runConfigShowCmd(cmd *cobra.Command, args []string) error {
	return ShowConfig(cmd.OutOrStdout())
}

func runLanguagesCmd(cmd *cobra.Command, args []string) error {
	return ListLanguages(cmd.OutOrStdout(), colorMode)
}

func runVersionCmd(cmd *cobra.Command, args []string) error {
	if verbose {
		common.CLILogger.Info("%s", versionpkg.GetFullVersionInfo())
		return nil
	}
	common.CLILogger.Info("%s %s", versionpkg.ServerName, versionpkg.GetVersion())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
