package cmd

import (
	"fmt"
	"sort"
	"strings"

	"spt-mod-manager/logger"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List mods tracked in the active profile",
	Run: func(cmd *cobra.Command, _ []string) {
		bootstrap(".")
		profile := requireActiveProfile()
		verbose, _ := cmd.Flags().GetBool("verbose")

		if len(profile.Mods) == 0 {
			fmt.Printf("Profile %s tracks no mods yet. Add one with 'add owner/repo'.\n", ui.Title(profile.Name))
			return
		}

		mods := profile.Mods
		sort.Slice(mods, func(i, j int) bool {
			return strings.ToLower(mods[i].Name) < strings.ToLower(mods[j].Name)
		})

		fmt.Printf("%s (%s)\n", ui.Title(profile.Name), ui.Dim(profile.OutputDir))
		for _, mod := range mods {
			marker := ui.Tick()
			name := mod.Name
			if !mod.Enabled {
				marker = ui.Cross()
				name = ui.Dim(name + " (disabled)")
			}
			detail := mod.Identifier()
			if mod.Pinned() {
				detail = fmt.Sprintf("%s, pinned asset %d", detail, mod.AssetID)
			}
			filters, err := mod.FilterList()
			if err != nil {
				logger.Log.Warnw("Failed to decode mod filters", zap.String("mod", mod.Name), zap.Error(err))
			} else if len(filters) > 0 {
				detail = fmt.Sprintf("%s, %d filter(s)", detail, len(filters))
			}
			fmt.Printf("  %s %s  %s\n", marker, name, ui.Dim(detail))

			if !verbose {
				continue
			}
			for _, f := range filters {
				fmt.Printf("      filter: %s\n", f)
			}
			for _, rel := range mod.FileList() {
				fmt.Printf("      %s\n", ui.Dim(rel))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("verbose", "v", false, "Show filters and tracked files per mod")
}
