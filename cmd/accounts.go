package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	pkgstrings "sessionsplice/pkg/strings"
)

func newAccountsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "List saved accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountsList(cmd, g)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete EMAIL",
		Short: "Delete a saved account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.accountStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func runAccountsList(cmd *cobra.Command, g *globalOptions) error {
	out := cmd.OutOrStdout()

	store, err := g.accountStore()
	if err != nil {
		return err
	}
	list, err := store.List()
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("No saved accounts. Run 'sessionsplice login' to add one."))
		return nil
	}

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("EMAIL"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("TOKEN"),
		text.FgHiCyan.Sprint("EXPIRES"),
		text.FgHiCyan.Sprint("LAST INJECTED"),
	})

	for _, account := range list {
		status := text.FgGreen.Sprint("valid")
		if account.Credential.IsExpired(now) {
			status = text.FgYellow.Sprint("expired")
		}

		injected := text.FgHiBlack.Sprint("never")
		if !account.LastInjectedAt.IsZero() {
			injected = account.LastInjectedAt.Local().Format(time.DateTime)
		}

		t.AppendRow(table.Row{
			account.Email,
			pkgstrings.TruncateLine(account.Name, pkgstrings.DefaultCellMaxLen),
			status,
			account.Credential.ExpiresAt().Local().Format(time.DateTime),
			injected,
		})
	}

	t.Render()
	return nil
}
