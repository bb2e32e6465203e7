package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"spt-mod-manager/db"
	"spt-mod-manager/logger"
	"spt-mod-manager/modstate"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove [mod]...",
	Short: "Stop tracking mods and delete their installed files",
	Long: `Stop tracking one or more mods in the active profile. Their tracked
files are deleted from the game directory, along with any disabled copy.
Pass --keep-files to remove only the records.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap(".")
		profile := requireActiveProfile()
		keepFiles, _ := cmd.Flags().GetBool("keep-files")

		for _, name := range args {
			mod, err := findMod(profile, name)
			if err != nil {
				logger.Log.Fatalw("Cannot remove mod", zap.Error(err))
			}

			if !keepFiles {
				for _, rel := range mod.FileList() {
					path := filepath.Join(profile.OutputDir, filepath.FromSlash(rel))
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						logger.Log.Warnw("Failed to delete mod file",
							zap.String("file", rel),
							zap.Error(err),
						)
					}
				}
				if err := modstate.New(profile.OutputDir).Cleanup(mod.Name); err != nil {
					logger.Log.Warnw("Failed to delete disabled copy", zap.Error(err))
				}
			}

			if err := db.DB.Delete(mod).Error; err != nil {
				logger.Log.Fatalw("Failed to delete mod record", zap.Error(err))
			}

			logger.Log.Infow("Mod removed",
				zap.String("mod", mod.Name),
				zap.Bool("files_kept", keepFiles),
			)
			fmt.Printf("%s Removed %s\n", ui.Tick(), ui.Title(mod.Name))
		}
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().Bool("keep-files", false, "Keep installed files on disk, only drop the record")
}
