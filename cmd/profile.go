package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"spt-mod-manager/db"
	"spt-mod-manager/logger"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// profileCmd groups the profile management subcommands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage mod profiles",
	Long: `A profile binds a set of mods to one SPT installation directory
and carries the default compatibility filters applied to every mod.`,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new profile and make it active",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := bootstrap(".")
		name := args[0]

		outputDir, _ := cmd.Flags().GetString("output-dir")
		if outputDir == "" {
			outputDir = cfg.SPTDir
		}
		if outputDir == "" {
			logger.Log.Fatal("Error: an output directory is required. Pass --output-dir or set SPT_DIR.")
		}
		if !filepath.IsAbs(outputDir) {
			logger.Log.Fatalw("Output directory must be an absolute path", zap.String("path", outputDir))
		}

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			logger.Log.Fatalw("Invalid filter flags", zap.Error(err))
		}

		profile := db.Profile{Name: name, OutputDir: outputDir}
		if err := profile.SetFilterList(filters); err != nil {
			logger.Log.Fatalw("Failed to encode filters", zap.Error(err))
		}
		if err := db.DB.Create(&profile).Error; err != nil {
			logger.Log.Fatalw("Failed to create profile", zap.String("name", name), zap.Error(err))
		}
		if _, err := db.SwitchProfile(name); err != nil {
			logger.Log.Fatalw("Failed to activate new profile", zap.Error(err))
		}

		logger.Log.Infow("Profile created", zap.String("name", name), zap.String("output_dir", outputDir))
		fmt.Printf("%s Created profile %s (%s)\n", ui.Tick(), ui.Title(name), outputDir)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(_ *cobra.Command, _ []string) {
		bootstrap(".")

		var profiles []db.Profile
		if err := db.DB.Order("name").Find(&profiles).Error; err != nil {
			logger.Log.Fatalw("Failed to list profiles", zap.Error(err))
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles yet. Create one with 'profile create'.")
			return
		}
		for _, p := range profiles {
			marker := " "
			if p.Active {
				marker = ui.Tick()
			}
			fmt.Printf("%s %s  %s\n", marker, ui.Title(p.Name), ui.Dim(p.OutputDir))
		}
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch [name]",
	Short: "Make another profile active",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		bootstrap(".")

		profile, err := db.SwitchProfile(args[0])
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Log.Fatalw("Profile not found", zap.String("name", args[0]))
			}
			logger.Log.Fatalw("Failed to switch profile", zap.Error(err))
		}
		fmt.Printf("%s Switched to profile %s\n", ui.Tick(), ui.Title(profile.Name))
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a profile and its mod records",
	Long: `Delete a profile and its mod records. Installed files stay on disk;
only the bookkeeping is removed.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		bootstrap(".")

		var profile db.Profile
		if err := db.DB.Where("name = ?", args[0]).First(&profile).Error; err != nil {
			logger.Log.Fatalw("Profile not found", zap.String("name", args[0]))
		}
		if err := db.DB.Select("Mods").Delete(&profile).Error; err != nil {
			logger.Log.Fatalw("Failed to delete profile", zap.Error(err))
		}
		fmt.Printf("%s Deleted profile %s\n", ui.Tick(), ui.Title(profile.Name))
	},
}

var profileInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the active profile and its filters",
	Run: func(_ *cobra.Command, _ []string) {
		bootstrap(".")
		profile := requireActiveProfile()

		filters, err := profile.FilterList()
		if err != nil {
			logger.Log.Fatalw("Failed to decode profile filters", zap.Error(err))
		}

		fmt.Printf("%s\n", ui.Title(profile.Name))
		fmt.Printf("  Output directory: %s\n", profile.OutputDir)
		fmt.Printf("  Mods: %d\n", len(profile.Mods))
		if len(filters) == 0 {
			fmt.Println("  Filters: none")
			return
		}
		fmt.Println("  Filters:")
		for _, f := range filters {
			fmt.Printf("    - %s\n", f)
		}
	},
}

var profileConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Replace the active profile's filters",
	Long: `Replace the active profile's default filters with the ones given on
the command line. Passing no filter flags clears them.`,
	Run: func(cmd *cobra.Command, _ []string) {
		bootstrap(".")
		profile := requireActiveProfile()

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			logger.Log.Fatalw("Invalid filter flags", zap.Error(err))
		}
		if err := profile.SetFilterList(filters); err != nil {
			logger.Log.Fatalw("Failed to encode filters", zap.Error(err))
		}
		if err := db.DB.Save(profile).Error; err != nil {
			logger.Log.Fatalw("Failed to save profile", zap.Error(err))
		}

		logger.Log.Infow("Profile filters updated",
			zap.String("profile", profile.Name),
			zap.Int("filters", len(filters)),
		)
		fmt.Printf("%s Updated filters for %s (%d filters)\n", ui.Tick(), ui.Title(profile.Name), len(filters))
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileInfoCmd)
	profileCmd.AddCommand(profileConfigureCmd)

	profileCreateCmd.Flags().String("output-dir", "", "Absolute path to the SPT installation directory")
	registerFilterFlags(profileCreateCmd)
	registerFilterFlags(profileConfigureCmd)
}
