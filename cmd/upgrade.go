package cmd

import (
	"context"
	"fmt"
	"os"

	"spt-mod-manager/db"
	"spt-mod-manager/downloader"
	"spt-mod-manager/filter"
	"spt-mod-manager/installer"
	"spt-mod-manager/logger"
	"spt-mod-manager/resolve"
	"spt-mod-manager/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// upgradeCmd represents the upgrade command
var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Download and install the latest compatible release of every mod",
	Long: `Resolve the latest compatible release for every enabled mod in the
active profile, download the archives and install them into the game
directory. With --local no network requests are made: archives already
sitting in the MODS store are reinstalled instead.`,
	Run: func(cmd *cobra.Command, _ []string) {
		logger.Log.Info("Running upgrade command...")

		localOnly, _ := cmd.Flags().GetBool("local")
		useTUI, _ := cmd.Flags().GetBool("tui")

		if useTUI {
			if runUpgradeTUI(localOnly) {
				os.Exit(1)
			}
			return
		}

		progress := make(chan UpgradeProgressMsg, 100)
		done := make(chan bool, 1)
		go func() {
			done <- runUpgrade(localOnly, progress)
			close(progress)
		}()
		for msg := range progress {
			printProgress(msg)
		}
		if <-done {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)

	upgradeCmd.Flags().Bool("local", false, "Reinstall from the local archive store without downloading")
	upgradeCmd.Flags().Bool("tui", false, "Show an interactive progress view")
}

// UpgradeProgressMsg represents a progress update from the upgrade process
type UpgradeProgressMsg struct {
	Type    string // "status", "resolved", "download_start", "download_success", "error", "summary"
	ModName string
	Asset   string
	Message string
}

func printProgress(msg UpgradeProgressMsg) {
	switch msg.Type {
	case "status":
		fmt.Printf("  %s\n", msg.Message)
	case "resolved":
		fmt.Printf("%s %s resolved to %s\n", ui.Tick(), ui.Title(msg.ModName), msg.Asset)
	case "download_start":
		fmt.Printf("  downloading %s\n", msg.Asset)
	case "download_success":
		fmt.Printf("%s downloaded %s\n", ui.Tick(), msg.Asset)
	case "error":
		name := msg.ModName
		if name == "" {
			name = msg.Asset
		}
		fmt.Printf("%s %s: %s\n", ui.Cross(), name, ui.Error(msg.Message))
	case "summary":
		fmt.Printf("\n%s\n", ui.Title(msg.Message))
	}
}

// runUpgrade executes the upgrade pipeline and reports whether anything
// failed. The progress channel receives status updates but is never
// closed here; the caller owns it.
func runUpgrade(localOnly bool, progress chan<- UpgradeProgressMsg) bool {
	cfg, client := bootstrap(".")
	profile := requireActiveProfile()

	inst := installer.New(profile.OutputDir, logger.Log)
	if err := inst.EnsureLayout(); err != nil {
		logger.Log.Fatalw("Failed to prepare game directory", zap.Error(err))
	}

	failed := false
	archiveOwner := map[string]uint{} // archive filename to mod ID

	if localOnly {
		progress <- UpgradeProgressMsg{Type: "status", Message: "Restoring archives from the local store..."}
		restored, err := inst.RestoreFromStore()
		if err != nil {
			logger.Log.Fatalw("Failed to restore archives from store", zap.Error(err))
		}
		progress <- UpgradeProgressMsg{Type: "status", Message: fmt.Sprintf("Restored %d archive(s)", restored)}
	} else {
		profileFilters, err := profile.FilterList()
		if err != nil {
			logger.Log.Fatalw("Failed to decode profile filters", zap.Error(err))
		}

		var mods []db.Mod
		for _, m := range profile.Mods {
			if !m.Enabled {
				progress <- UpgradeProgressMsg{Type: "status", Message: fmt.Sprintf("Skipping disabled mod %s", m.Name)}
				continue
			}
			mods = append(mods, m)
		}

		if len(mods) > 0 {
			engine := filter.NewEngine(filter.StubGroupSource{}, logger.Log)
			resolver := resolve.NewResolver(client, engine, logger.Log)
			orch := resolve.NewOrchestrator(resolver, int64(cfg.MaxConcurrent), logger.Log)

			progress <- UpgradeProgressMsg{Type: "status", Message: fmt.Sprintf("Resolving releases for %d mod(s)...", len(mods))}
			downloads, anyFailed := orch.Resolve(context.Background(), profileFilters, mods, func(o resolve.Outcome) {
				if o.Err != nil {
					progress <- UpgradeProgressMsg{Type: "error", ModName: o.Mod.Name, Message: o.Err.Error()}
					return
				}
				archiveOwner[o.Download.Filename()] = o.Mod.ID
				progress <- UpgradeProgressMsg{Type: "resolved", ModName: o.Mod.Name, Asset: o.Download.Filename()}
			})
			failed = anyFailed

			for _, dd := range downloads {
				if inst.InStore(dd.Filename()) {
					progress <- UpgradeProgressMsg{Type: "status", Message: fmt.Sprintf("%s already installed, skipping download", dd.Filename())}
					continue
				}
				progress <- UpgradeProgressMsg{Type: "download_start", Asset: dd.Filename()}
				if err := downloader.Download(context.Background(), nil, dd, profile.OutputDir, nil); err != nil {
					logger.Log.Errorw("Download failed", zap.String("asset", dd.Filename()), zap.Error(err))
					progress <- UpgradeProgressMsg{Type: "error", Asset: dd.Filename(), Message: err.Error()}
					failed = true
					continue
				}
				progress <- UpgradeProgressMsg{Type: "download_success", Asset: dd.Filename()}
			}
		}
	}

	progress <- UpgradeProgressMsg{Type: "status", Message: "Installing archives..."}
	report, err := inst.InstallAll()
	if err != nil {
		logger.Log.Fatalw("Installation failed", zap.Error(err))
	}
	for _, ae := range report.InstallErrors {
		progress <- UpgradeProgressMsg{Type: "error", Asset: ae.Archive, Message: ae.Err.Error()}
	}
	for _, ae := range report.MoveErrors {
		logger.Log.Warnw("Archive installed but not moved to store",
			zap.String("archive", ae.Archive),
			zap.Error(ae.Err),
		)
	}
	for _, name := range report.NoComponents {
		progress <- UpgradeProgressMsg{Type: "status", Message: fmt.Sprintf("%s contained no installable components", name)}
	}
	if report.Failed() {
		failed = true
	}

	refreshFileTracking(profile, report.Installed, archiveOwner)

	progress <- UpgradeProgressMsg{Type: "summary", Message: fmt.Sprintf(
		"Finished. Installed %d archive(s), %d failure(s).",
		len(report.Installed), len(report.InstallErrors),
	)}
	logger.Log.Infof("Upgrade finished. Installed %d archives, %d failures.",
		len(report.Installed), len(report.InstallErrors))
	return failed
}

// refreshFileTracking records which files each freshly installed archive
// contributed, keyed back to the owning mod. Enable and disable depend on
// these lists being current.
func refreshFileTracking(profile *db.Profile, installed []installer.InstalledArchive, archiveOwner map[string]uint) {
	for _, archive := range installed {
		modID, ok := archiveOwner[archive.Archive]
		if !ok {
			continue
		}
		for i := range profile.Mods {
			mod := &profile.Mods[i]
			if mod.ID != modID {
				continue
			}
			if err := mod.SetFileList(archive.Files); err != nil {
				logger.Log.Warnw("Failed to encode file list", zap.String("mod", mod.Name), zap.Error(err))
				break
			}
			if err := db.DB.Save(mod).Error; err != nil {
				logger.Log.Warnw("Failed to save file tracking", zap.String("mod", mod.Name), zap.Error(err))
			}
			break
		}
	}
}
