package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spt-mod-manager/db"
	"spt-mod-manager/filter"
	"spt-mod-manager/logger"
	"spt-mod-manager/resolve"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add [owner/repo]",
	Short: "Track a new mod in the active profile",
	Long: `Track a GitHub-hosted mod in the active profile. The repository is
checked immediately: the mod is only recorded if a release compatible
with the profile's filters exists right now.

Example: spt-mod-manager add SamSWAT/SamSWAT.FireSupport --game-version 3.11`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, client := bootstrap(".")
		profile := requireActiveProfile()

		owner, repo, err := parseRepo(args[0])
		if err != nil {
			logger.Log.Fatalw("Invalid repository argument", zap.Error(err))
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = repo
		}

		// Reject duplicates before touching the network.
		for _, existing := range profile.Mods {
			if strings.EqualFold(existing.Identifier(), owner+"/"+repo) {
				logger.Log.Fatalw("Mod is already tracked in this profile",
					zap.String("mod", existing.Name),
					zap.String("repository", existing.Identifier()),
				)
			}
			if strings.EqualFold(existing.Name, name) {
				logger.Log.Fatalw("A mod with this name already exists in the profile",
					zap.String("name", existing.Name),
				)
			}
		}

		modFilters, err := filtersFromFlags(cmd)
		if err != nil {
			logger.Log.Fatalw("Invalid filter flags", zap.Error(err))
		}
		assetID, _ := cmd.Flags().GetInt64("pin")
		override, _ := cmd.Flags().GetBool("override")

		mod := db.Mod{
			ProfileID:       profile.ID,
			Name:            name,
			Owner:           owner,
			Repo:            repo,
			AssetID:         assetID,
			Slug:            strings.ToLower(name),
			Enabled:         true,
			OverrideFilters: override,
		}
		if err := mod.SetFilterList(modFilters); err != nil {
			logger.Log.Fatalw("Failed to encode filters", zap.Error(err))
		}

		profileFilters, err := profile.FilterList()
		if err != nil {
			logger.Log.Fatalw("Failed to decode profile filters", zap.Error(err))
		}

		// Resolve once up front so a typo or an incompatible mod fails
		// here instead of at the next upgrade.
		engine := filter.NewEngine(filter.StubGroupSource{}, logger.Log)
		resolver := resolve.NewResolver(client, engine, logger.Log)

		logger.Log.Infow("Checking repository for a compatible release",
			zap.String("repository", mod.Identifier()),
		)
		dd, err := resolver.FetchDownloadFile(context.Background(), &mod, profileFilters)
		if err != nil {
			var incompatible *resolve.IncompatibleError
			switch {
			case errors.Is(err, resolve.ErrDoesNotExist):
				logger.Log.Fatalw("Repository has no installable releases",
					zap.String("repository", mod.Identifier()),
				)
			case errors.As(err, &incompatible):
				logger.Log.Fatalw("No release passes the configured filters",
					zap.String("repository", mod.Identifier()),
					zap.Error(incompatible.Err),
				)
			default:
				logger.Log.Fatalw("Failed to check repository", zap.Error(err))
			}
		}

		if err := db.DB.Create(&mod).Error; err != nil {
			logger.Log.Fatalw("Failed to save mod", zap.Error(err))
		}

		logger.Log.Infow("Mod added",
			zap.String("mod", mod.Name),
			zap.String("repository", mod.Identifier()),
			zap.String("asset", dd.Filename()),
		)
		fmt.Printf("%s Added %s (%s), latest compatible asset: %s\n",
			ui.Tick(), ui.Title(mod.Name), mod.Identifier(), dd.Filename())
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().String("name", "", "Display name for the mod (defaults to the repository name)")
	addCmd.Flags().Int64("pin", 0, "Pin to a specific release asset ID, bypassing filters")
	addCmd.Flags().Bool("override", false, "Use only this mod's filters, ignoring the profile's")
	registerFilterFlags(addCmd)
}
