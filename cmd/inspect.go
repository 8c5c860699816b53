package cmd

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"sessionsplice/internal/credential"
	"sessionsplice/internal/protoedit"
	"sessionsplice/internal/statedb"
	"sessionsplice/pkg/logging"
)

func newInspectCmd(g *globalOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the identity stored in the state database",
		Long: `Show the identity the editor will start with.

Prints the email and token presence from the legacy user state, the unified
token and onboarding keys, and the field layout of the legacy blob. Token
values are truncated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "State database path (default: discovered)")
	return cmd
}

func runInspect(cmd *cobra.Command, g *globalOptions, dbPath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	path, err := g.databasePath(dbPath)
	if err != nil {
		return err
	}

	store, err := statedb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	legacy, err := store.Get(ctx, statedb.LegacyStateKey)
	if err != nil {
		return err
	}
	summary, blob, err := credential.InspectLegacyBlob(legacy)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", statedb.LegacyStateKey, err)
	}

	unified, err := optionalKey(cmd, store, statedb.UnifiedTokenKey)
	if err != nil {
		return err
	}
	onboarding, err := optionalKey(cmd, store, statedb.OnboardingKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Database:    %s\n", path)
	fmt.Fprintf(out, "Email:       %s\n", orNone(summary.Email))
	fmt.Fprintf(out, "User ID:     %s\n", presence(summary.HasUserID))
	if summary.HasToken {
		fmt.Fprintf(out, "Token:       %s\n", logging.TruncateSecret(summary.AccessToken))
	} else {
		fmt.Fprintf(out, "Token:       %s\n", presence(false))
	}
	fmt.Fprintf(out, "Unified:     %s\n", presence(unified != ""))
	fmt.Fprintf(out, "Onboarding:  %s\n\n", orNone(onboarding))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("FIELD"),
		text.FgHiCyan.Sprint("WIRE TYPE"),
		text.FgHiCyan.Sprint("OFFSET"),
		text.FgHiCyan.Sprint("SIZE"),
		text.FgHiCyan.Sprint("MEANING"),
	})
	for _, f := range summary.Fields {
		t.AppendRow(table.Row{f.Number, f.WireType, f.Start, f.Len(), fieldMeaning(f)})
	}
	t.AppendFooter(table.Row{"", "", "", len(blob), "bytes total"})
	t.Render()
	return nil
}

// optionalKey returns "" for a key that is absent.
func optionalKey(cmd *cobra.Command, store *statedb.Store, key string) (string, error) {
	value, err := store.Get(cmd.Context(), key)
	if errors.Is(err, statedb.ErrKeyNotFound) {
		return "", nil
	}
	return value, err
}

func fieldMeaning(f protoedit.Field) string {
	switch f.Number {
	case credential.FieldUserID:
		return "user id"
	case credential.FieldEmail:
		return "email"
	case credential.FieldOAuth:
		return "oauth token"
	default:
		return ""
	}
}

func presence(ok bool) string {
	if ok {
		return text.FgGreen.Sprint("present")
	}
	return text.FgHiBlack.Sprint("absent")
}

func orNone(s string) string {
	if s == "" {
		return text.FgHiBlack.Sprint("(none)")
	}
	return s
}
