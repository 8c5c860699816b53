package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"sessionsplice/internal/accounts"
	"sessionsplice/internal/credential"
	"sessionsplice/internal/statedb"
	"sessionsplice/pkg/logging"
)

type injectOptions struct {
	email    string
	dbPath   string
	noBackup bool
}

func newInjectCmd(g *globalOptions) *cobra.Command {
	opts := &injectOptions{}

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Write a saved account into the state database",
		Long: `Write a saved account into the editor's state database.

An expired access token is refreshed first. Quit the editor before injecting;
it keeps its own copy of the state and may overwrite the change on exit.

Examples:
  sessionsplice inject --email me@example.com
  sessionsplice inject --email me@example.com --db ./state.vscdb --no-backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Account to inject (see 'sessionsplice accounts')")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "State database path (default: discovered)")
	cmd.Flags().BoolVar(&opts.noBackup, "no-backup", false, "Skip the state database backup")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runInject(cmd *cobra.Command, g *globalOptions, opts *injectOptions) error {
	ctx := cmd.Context()

	store, err := g.accountStore()
	if err != nil {
		return err
	}

	account, err := store.Get(opts.email)
	if err != nil {
		return err
	}

	cred := account.Credential
	if cred.IsExpired(time.Now()) {
		provider, err := g.provider()
		if err != nil {
			return err
		}

		logging.Info("Inject", "Access token for %s expired, refreshing", account.Email)
		cred, err = provider.Refresh(ctx, cred)
		if err != nil {
			return fmt.Errorf("refreshing %s: %w", account.Email, err)
		}
		if _, err := store.Save(account.Email, account.Name, cred); err != nil {
			return err
		}
	}

	return injectAccount(ctx, cmd, g, store, account.Email, cred, opts.dbPath, g.backup(opts.noBackup))
}

// injectAccount writes cred into the resolved state database and records it
// on the stored account.
func injectAccount(ctx context.Context, cmd *cobra.Command, g *globalOptions, store *accounts.Store,
	email string, cred credential.Credential, dbPath string, backup bool) error {
	out := cmd.OutOrStdout()

	path, err := g.databasePath(dbPath)
	if err != nil {
		return &InjectionRefusedError{Email: email, Reason: err}
	}

	result, err := statedb.InjectFile(ctx, path, email, cred, backup)
	if err != nil {
		return &InjectionRefusedError{Email: email, Path: path, Reason: err}
	}

	if err := store.MarkInjected(email); err != nil {
		logging.Warn("Inject", "Could not record injection for %s: %v", email, err)
	}

	fmt.Fprintf(out, "%s Injected %s into %s\n", text.FgGreen.Sprint("✓"), email, result.Path)
	if result.BackupPath != "" {
		fmt.Fprintf(out, "  Backup: %s\n", result.BackupPath)
	}
	fmt.Fprintln(out, "Restart the editor to pick up the new session.")
	return nil
}
