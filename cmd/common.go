package cmd

import (
	"fmt"
	"strings"

	"spt-mod-manager/config"
	"spt-mod-manager/db"
	"spt-mod-manager/filter"
	"spt-mod-manager/github"
	"spt-mod-manager/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// bootstrap handles shared initialization logic for commands.
func bootstrap(path string) (config.Config, *github.Client) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	db.InitDatabase(cfg.DatabasePath)
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	return cfg, github.NewClient(cfg.GithubToken, logger.Log)
}

// requireActiveProfile returns the active profile or exits with guidance.
func requireActiveProfile() *db.Profile {
	profile, err := db.ActiveProfile()
	if err != nil {
		logger.Log.Fatal("No active profile. Create one with 'profile create' or activate one with 'profile switch'.")
	}
	return profile
}

// parseRepo splits an "owner/repo" argument.
func parseRepo(arg string) (owner, repo string, err error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", arg)
	}
	return parts[0], parts[1], nil
}

// findMod locates a mod in the profile by name, slug or owner/repo,
// case-insensitively.
func findMod(profile *db.Profile, name string) (*db.Mod, error) {
	needle := strings.ToLower(name)
	for i := range profile.Mods {
		mod := &profile.Mods[i]
		if strings.ToLower(mod.Name) == needle ||
			strings.ToLower(mod.Slug) == needle ||
			strings.ToLower(mod.Identifier()) == needle {
			return mod, nil
		}
	}
	return nil, fmt.Errorf("mod %q not found in profile %q", name, profile.Name)
}

// registerFilterFlags adds the shared filter flags used by commands that
// accept compatibility filters.
func registerFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("game-version", nil, "Require these game versions (e.g. 3.11, 3.10.x)")
	cmd.Flags().String("channel", "", "Loosest acceptable release channel (release, beta, alpha)")
	cmd.Flags().String("filename", "", "Regex the asset filename must match")
	cmd.Flags().String("title", "", "Regex the release title must match")
	cmd.Flags().String("description", "", "Regex the release description must match")
}

// filtersFromFlags builds a filter list from the shared filter flags.
func filtersFromFlags(cmd *cobra.Command) (filter.List, error) {
	var filters filter.List

	if versions, _ := cmd.Flags().GetStringSlice("game-version"); len(versions) > 0 {
		filters = append(filters, filter.GameVersionStrict(versions...))
	}
	if channel, _ := cmd.Flags().GetString("channel"); channel != "" {
		switch filter.ReleaseChannel(strings.ToLower(channel)) {
		case filter.ChannelRelease, filter.ChannelBeta, filter.ChannelAlpha:
			filters = append(filters, filter.Channel(filter.ReleaseChannel(strings.ToLower(channel))))
		default:
			return nil, fmt.Errorf("unknown release channel %q", channel)
		}
	}
	if pattern, _ := cmd.Flags().GetString("filename"); pattern != "" {
		filters = append(filters, filter.Filename(pattern))
	}
	if pattern, _ := cmd.Flags().GetString("title"); pattern != "" {
		filters = append(filters, filter.Title(pattern))
	}
	if pattern, _ := cmd.Flags().GetString("description"); pattern != "" {
		filters = append(filters, filter.Description(pattern))
	}
	return filters, nil
}
