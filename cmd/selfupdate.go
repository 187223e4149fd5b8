package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"orgctl/internal/config"
	"orgctl/pkg/logging"
)

// githubRepoSlug is used when neither --repo nor selfUpdateRepo is set.
var githubRepoSlug = config.DefaultSelfUpdateRepo

// release is the part of a GitHub release self-update needs.
type release struct {
	Version   string
	AssetURL  string
	AssetName string
}

// For mocking in tests
var (
	detectLatest = func(ctx context.Context, slug string) (*release, error) {
		latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(slug))
		if err != nil || !found {
			return nil, err
		}
		return &release{Version: latest.Version(), AssetURL: latest.AssetURL, AssetName: latest.AssetName}, nil
	}
	updateTo = func(ctx context.Context, assetURL, assetName string) error {
		exe, err := selfupdate.ExecutablePath()
		if err != nil {
			return fmt.Errorf("could not locate executable path: %w", err)
		}
		return selfupdate.UpdateTo(ctx, assetURL, assetName, exe)
	}
)

var selfUpdateRepo string

func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update orgctl to the latest version",
		Long: `Checks for the latest release of orgctl on GitHub and,
if a newer version is found, downloads it and replaces the running binary.

The release repository is taken from --repo, then from selfUpdateRepo in the
config file.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	cmd.Flags().StringVar(&selfUpdateRepo, "repo", "", "GitHub owner/name to update from")
	return cmd
}

// releaseRepo resolves the repository slug: flag, then config, then built-in.
func releaseRepo() string {
	if selfUpdateRepo != "" {
		return selfUpdateRepo
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Warn("SelfUpdate", "Could not load config, using %s: %v", githubRepoSlug, err)
		return githubRepoSlug
	}
	if cfg.SelfUpdateRepo != "" {
		return cfg.SelfUpdateRepo
	}
	return githubRepoSlug
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	current := rootCmd.Version
	if current == "" || current == "dev" {
		return fmt.Errorf("cannot self-update a development version (%q); install a release build instead", current)
	}
	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("cannot self-update from unparsable version %q: %w", current, err)
	}

	ctx := context.Background()
	out := newPrinter(os.Stdout)
	if cmd != nil {
		if c := cmd.Context(); c != nil {
			ctx = c
		}
		out = newPrinter(cmd.OutOrStdout())
	}

	repo := releaseRepo()
	latest, err := detectLatest(ctx, repo)
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if latest == nil {
		return fmt.Errorf("no release found for %s on %s/%s", repo, runtime.GOOS, runtime.GOARCH)
	}

	latestVersion, err := semver.NewVersion(latest.Version)
	if err != nil {
		return fmt.Errorf("release %s of %s has an unparsable version: %w", latest.Version, repo, err)
	}
	if !currentVersion.LessThan(latestVersion) {
		out.Successf("orgctl %s is already the latest version", current)
		return nil
	}

	if err := updateTo(ctx, latest.AssetURL, latest.AssetName); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	out.Successf("Updated orgctl from %s to %s", current, latest.Version)
	return nil
}
