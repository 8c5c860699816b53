package cmd

import (
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepoSlug is the GitHub repository (owner/repo) releases are published
// to. It can be set during build with -ldflags.
var releaseRepoSlug = ""

// errDevelopmentVersion is returned when the running binary is not a release.
var errDevelopmentVersion = errors.New("cannot self-update a development version")

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
func newSelfUpdateCmd() *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update sessionsplice to the latest release",
		Long: `Checks the latest GitHub release of sessionsplice and replaces the
current binary if a newer version is found.`,
		// Updating never needs the configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd, repo)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", releaseRepoSlug, "GitHub repository (owner/repo) to update from")
	return cmd
}

func runSelfUpdate(cmd *cobra.Command, repo string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	currentVersion := cmd.Root().Version
	if currentVersion == "" || currentVersion == "dev" {
		return errDevelopmentVersion
	}
	if repo == "" {
		return errors.New("no release repository configured, pass --repo owner/name")
	}

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintln(out, "Checking for updates...")

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", repo)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
