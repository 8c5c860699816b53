package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sessionsplice/internal/accounts"
	"sessionsplice/internal/capture"
	"sessionsplice/internal/config"
	"sessionsplice/internal/statedb"
	"sessionsplice/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeCaptureFailed indicates the OAuth flow did not yield a credential.
	ExitCodeCaptureFailed = 3
	// ExitCodeInjectionRefused indicates the state database could not be written.
	ExitCodeInjectionRefused = 4
)

// globalOptions holds the persistent flags and the configuration they select.
type globalOptions struct {
	configDir string
	logLevel  string
	jsonLogs  bool

	config config.Config
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "sessionsplice",
		Short: "Sign a desktop editor in with a captured OAuth session",
		Long: `sessionsplice runs a Google OAuth login on a loopback callback, keeps the
resulting credential, and writes it into the editor's local state database so
the editor starts up already signed in.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config", "", "configuration directory (default is $HOME/.config/sessionsplice)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "write logs as JSON")

	cmd.SetVersionTemplate(`{{printf "sessionsplice version %s\n" .Version}}`)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSelfUpdateCmd())
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newInjectCmd(opts))
	cmd.AddCommand(newAccountsCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	return cmd
}

// load reads the configuration and initializes logging. Flags override the file.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.Logging.JSON = o.jsonLogs
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logging.Init(logging.Options{
		Level:  level,
		JSON:   cfg.Logging.JSON,
		Output: cmd.ErrOrStderr(),
	})

	o.config = cfg
	return nil
}

func (o *globalOptions) provider() (*capture.Provider, error) {
	if err := o.config.RequireClient(); err != nil {
		return nil, err
	}
	p := o.config.Provider
	return capture.NewProvider(capture.ProviderConfig{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		AuthURL:      p.AuthURL,
		TokenURL:     p.TokenURL,
		UserInfoURL:  p.UserInfoURL,
		Scopes:       p.Scopes,
		PKCE:         p.PKCE,
	}), nil
}

func (o *globalOptions) accountStore() (*accounts.Store, error) {
	return accounts.NewStore(o.config.Accounts.Dir)
}

// databasePath resolves the state database: the flag, then the configured
// path, then discovery by application name.
func (o *globalOptions) databasePath(flagPath string) (string, error) {
	override := flagPath
	if override == "" {
		override = o.config.Target.DatabasePath
	}
	return statedb.DiscoverPath(o.config.Target.AppName, override)
}

// backup reports whether to copy the state database aside before writing.
// The --no-backup flag can only turn it off.
func (o *globalOptions) backup(noBackup bool) bool {
	return o.config.Target.Backup && !noBackup
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printErrorDetails(rootCmd.ErrOrStderr(), err)
		os.Exit(getExitCode(err))
	}
}

// printErrorDetails adds what cobra's one-line error leaves out. Configuration
// errors carry the file, section and suggestions for fixing them.
func printErrorDetails(w io.Writer, err error) {
	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(w, cfgErr.DetailedError())
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var captureFailed *CaptureFailedError
	if errors.As(err, &captureFailed) {
		return ExitCodeCaptureFailed
	}

	var injectionRefused *InjectionRefusedError
	if errors.As(err, &injectionRefused) {
		return ExitCodeInjectionRefused
	}

	// Default to general error
	return ExitCodeError
}
