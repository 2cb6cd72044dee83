package cmd

import (
	"github.com/spf13/cobra"

	"realty-automation/browser"
	"realty-automation/notify"
	"realty-automation/scraper/rera"
	"realty-automation/services"
	"realty-automation/storage"
)

var monitorDryRun bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Scrape the RERA portal for projects approved since the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !monitorDryRun {
			if err := cfg.ValidateMonitor(); err != nil {
				return err
			}
		}
		if err := runMonitor(cmd); err != nil {
			logger.Error("[monitor] Fatal error: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorDryRun, "dry-run", false, "print the digest; do not save the checkpoint or send")
	rootCmd.AddCommand(monitorCmd)
}

// buildNotifier returns the digest destinations: Mailjet always, Telegram
// when a bot token is configured.
func buildNotifier() notify.Notifier {
	notifiers := notify.Multi{notify.NewMailjet(cfg.Mailjet, logger)}
	if cfg.Telegram.Token == "" {
		return notifiers
	}
	tg, err := notify.NewTelegram(cfg.Telegram, "", logger)
	if err != nil {
		logger.Warn("[monitor] Telegram disabled: %v", err)
		return notifiers
	}
	return append(notifiers, tg)
}

func runMonitor(cmd *cobra.Command) error {
	ctx := cmd.Context()

	archive, err := storage.NewArchive(ctx, cfg.Archive, logger)
	if err != nil {
		return err
	}
	defer archive.Close()

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	portal := rera.NewChromePortal(browser.NewPage(cfg.Browser.PageTimeout()), cfg.Monitor, logger)

	var notifier notify.Notifier
	if !monitorDryRun {
		notifier = buildNotifier()
	}

	runner := services.NewMonitorRunner(cfg.Monitor.Subject, monitorDryRun, services.MonitorDeps{
		Checkpoints: storage.NewCheckpointStore(cfg.Monitor.CheckpointPath, cfg.Monitor.DefaultCheckpoint, logger),
		Scanner:     rera.NewMonitor(portal, cfg.Monitor.MaxPages, logger),
		Archive:     archive,
		Notifier:    notifier,
		Logger:      logger,
		Out:         cmd.OutOrStdout(),
	})
	_, _, err = runner.Run(session.Context())
	return err
}
