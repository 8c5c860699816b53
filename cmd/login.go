package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"sessionsplice/internal/capture"
	"sessionsplice/pkg/logging"
)

// openBrowser is a package variable so tests can follow the authorization URL themselves.
var openBrowser = capture.OpenBrowser

type loginOptions struct {
	noInject  bool
	noBrowser bool
	noBackup  bool
	paste     bool
	dbPath    string
	timeout   time.Duration
}

func newLoginCmd(g *globalOptions) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and inject the session",
		Long: `Sign in with Google and inject the session into the editor.

This command binds a loopback callback, opens the authorization URL in the
browser and waits for the provider to redirect back. The captured code is
exchanged for tokens, the account is saved locally and, unless --no-inject is
given, written into the editor's state database.

When the browser runs on another machine, use --paste and paste the final
redirect URL (or just the code) at the prompt.

Examples:
  sessionsplice login
  sessionsplice login --no-browser --paste
  sessionsplice login --db ~/state.vscdb --timeout 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noInject, "no-inject", false, "Only save the account, do not touch the state database")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the authorization URL without opening a browser")
	cmd.Flags().BoolVar(&opts.noBackup, "no-backup", false, "Skip the state database backup")
	cmd.Flags().BoolVar(&opts.paste, "paste", false, "Also accept the redirect URL or code pasted on stdin")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "State database path (default: discovered)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "How long to wait for the callback (default: capture.timeout)")
	return cmd
}

func runLogin(cmd *cobra.Command, g *globalOptions, opts *loginOptions) error {
	ctx := cmd.Context()
	cfg := g.config
	out := cmd.OutOrStdout()

	provider, err := g.provider()
	if err != nil {
		return err
	}
	store, err := g.accountStore()
	if err != nil {
		return err
	}

	timeout := cfg.Capture.Timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	session := capture.NewSession(provider, capture.Options{
		CallbackPath: cfg.Capture.CallbackPath,
		Timeout:      timeout,
	})
	defer session.Shutdown()

	authURL, err := session.Prepare(ctx)
	if err != nil {
		return &CaptureFailedError{Reason: err}
	}

	fmt.Fprintf(out, "Open this URL to sign in:\n\n  %s\n\n", authURL)
	if cfg.Capture.OpenBrowser && !opts.noBrowser {
		if err := openBrowser(authURL); err != nil {
			logging.Warn("Login", "Could not open browser: %v", err)
		}
	}

	grant, err := awaitGrant(ctx, cmd, session, opts.paste)
	if err != nil {
		return &CaptureFailedError{Reason: err}
	}

	cred, err := provider.Exchange(ctx, grant)
	if err != nil {
		return &CaptureFailedError{Reason: err}
	}

	info, err := provider.UserInfo(ctx, cred)
	if err != nil {
		return &CaptureFailedError{Reason: err}
	}
	logging.Audit(logging.AuditEvent{
		Action:  "credential_captured",
		Outcome: "success",
		Account: info.Email,
	})

	if _, err := store.Save(info.Email, info.Name, cred); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Signed in as %s\n", text.FgGreen.Sprint("✓"), info.Email)

	if opts.noInject {
		return nil
	}
	return injectAccount(ctx, cmd, g, store, info.Email, cred, opts.dbPath, g.backup(opts.noBackup))
}

// awaitGrant waits for the callback. With paste enabled a prompt runs
// alongside the listeners, otherwise a spinner is shown.
func awaitGrant(ctx context.Context, cmd *cobra.Command, session *capture.Session, paste bool) (*capture.Grant, error) {
	if !paste {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Waiting for the authorization callback..."
		s.Start()
		defer s.Stop()
		return session.AwaitCode(ctx, 0)
	}

	promptCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readPastedCodes(promptCtx, cmd.InOrStdin(), cmd.OutOrStdout(), session)
	}()

	grant, err := session.AwaitCode(ctx, 0)
	stop()
	<-done
	return grant, err
}

// readPastedCodes prompts until a code is accepted, input ends, or ctx is done.
func readPastedCodes(ctx context.Context, in io.Reader, out io.Writer, session *capture.Session) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "Paste the redirect URL or code: ",
		Stdin:           readline.NewCancelableStdin(in),
		Stdout:          out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		logging.Warn("Login", "Could not start the paste prompt: %v", err)
		return
	}
	closeOnce := sync.OnceFunc(func() { _ = rl.Close() })
	defer closeOnce()

	stopClose := context.AfterFunc(ctx, closeOnce)
	defer stopClose()

	for {
		line, err := rl.Readline()
		if err != nil {
			// Interrupt, end of input, or closed because the flow ended.
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := session.SubmitCodeManually(line, ""); err != nil {
			fmt.Fprintf(out, "%s %v\n", text.FgRed.Sprint("✗"), err)
			continue
		}
		return
	}
}
