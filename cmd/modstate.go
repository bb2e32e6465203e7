package cmd

import (
	"fmt"

	"spt-mod-manager/db"
	"spt-mod-manager/logger"
	"spt-mod-manager/modstate"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// disableCmd represents the disable command
var disableCmd = &cobra.Command{
	Use:   "disable [mod]...",
	Short: "Deactivate mods without uninstalling them",
	Long: `Move the installed files of one or more mods into the disabled-mods
holding area inside the game directory. The files stay on disk and can
be brought back with 'enable'.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		bootstrap(".")
		profile := requireActiveProfile()
		manager := modstate.New(profile.OutputDir)

		for _, name := range args {
			mod, err := findMod(profile, name)
			if err != nil {
				logger.Log.Fatalw("Cannot disable mod", zap.Error(err))
			}
			if !mod.Enabled {
				fmt.Printf("%s is already disabled\n", ui.Title(mod.Name))
				continue
			}
			files := mod.FileList()
			if len(files) == 0 {
				logger.Log.Fatalw("Mod has no tracked files; run 'upgrade' first",
					zap.String("mod", mod.Name),
				)
			}

			if err := manager.Disable(mod.Name, files); err != nil {
				logger.Log.Fatalw("Failed to disable mod", zap.String("mod", mod.Name), zap.Error(err))
			}

			mod.Enabled = false
			if err := db.DB.Save(mod).Error; err != nil {
				logger.Log.Fatalw("Failed to update mod record", zap.Error(err))
			}

			logger.Log.Infow("Mod disabled", zap.String("mod", mod.Name), zap.Int("files", len(files)))
			fmt.Printf("%s Disabled %s (%d files moved aside)\n", ui.Tick(), ui.Title(mod.Name), len(files))
		}
	},
}

// enableCmd represents the enable command
var enableCmd = &cobra.Command{
	Use:   "enable [mod]...",
	Short: "Reactivate previously disabled mods",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		bootstrap(".")
		profile := requireActiveProfile()
		manager := modstate.New(profile.OutputDir)

		for _, name := range args {
			mod, err := findMod(profile, name)
			if err != nil {
				logger.Log.Fatalw("Cannot enable mod", zap.Error(err))
			}
			if mod.Enabled {
				fmt.Printf("%s is already enabled\n", ui.Title(mod.Name))
				continue
			}

			if err := manager.Enable(mod.Name, mod.FileList()); err != nil {
				logger.Log.Fatalw("Failed to enable mod", zap.String("mod", mod.Name), zap.Error(err))
			}

			mod.Enabled = true
			if err := db.DB.Save(mod).Error; err != nil {
				logger.Log.Fatalw("Failed to update mod record", zap.Error(err))
			}

			logger.Log.Infow("Mod enabled", zap.String("mod", mod.Name))
			fmt.Printf("%s Enabled %s\n", ui.Tick(), ui.Title(mod.Name))
		}
	},
}

func init() {
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(enableCmd)
}
