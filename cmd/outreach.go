package cmd

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"realty-automation/browser"
	"realty-automation/config"
	"realty-automation/services"
	"realty-automation/storage"
	"realty-automation/utils"
	"realty-automation/webmail/gmail"
)

var outreachYes bool

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send one lead-registration email per row of a leads file",
	RunE: func(cmd *cobra.Command, args []string) error {
		oc := outreachSettings(cmd, cfg.Outreach)
		if err := oc.Validate(); err != nil {
			return err
		}

		if err := runOutreach(cmd, oc); err != nil {
			logger.Error("[outreach] Fatal error: %s", eris.ToString(err, true))
			return err
		}
		return nil
	},
}

func init() {
	outreachCmd.Flags().String("leads", "", "leads file (.csv or .xlsx)")
	outreachCmd.Flags().Int("delay", 0, "seconds between emails")
	outreachCmd.Flags().BoolVar(&outreachYes, "yes", false, "skip the confirmation prompts")
	rootCmd.AddCommand(outreachCmd)
}

// outreachSettings returns a copy of base with the --leads and --delay
// overrides applied. The loaded config is left untouched.
func outreachSettings(cmd *cobra.Command, base config.OutreachConfig) config.OutreachConfig {
	oc := base
	if cmd.Flags().Changed("leads") {
		oc.LeadsPath, _ = cmd.Flags().GetString("leads")
	}
	if cmd.Flags().Changed("delay") {
		oc.DelaySecs, _ = cmd.Flags().GetInt("delay")
	}
	return oc
}

func runOutreach(cmd *cobra.Command, oc config.OutreachConfig) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	leads, err := storage.ReadLeads(oc.LeadsPath, storage.LeadOptions{
		NameColumns:  oc.NameColumns,
		PhoneColumns: oc.PhoneColumns,
	})
	if err != nil {
		return err
	}
	logger.Info("[outreach] Loaded %d rows from %s", len(leads), oc.LeadsPath)

	archive, err := storage.NewArchive(ctx, cfg.Archive, logger)
	if err != nil {
		return err
	}
	defer archive.Close()

	report, err := storage.NewCSVReportWriter(oc.ReportPath)
	if err != nil {
		return err
	}
	defer report.Close()

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	prompter := utils.NewConsolePrompter(os.Stdin, out, outreachYes)
	jar := browser.NewCookieJar(oc.SessionFile)
	client := gmail.New(browser.NewPage(cfg.Browser.PageTimeout()), jar, prompter, oc, logger)

	campaign, err := services.NewCampaign(oc, services.CampaignDeps{
		Mailer:   client,
		Auth:     client,
		Prompter: prompter,
		Archive:  archive,
		Report:   report,
		Out:      out,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	bctx := session.Context()
	if err := campaign.Prepare(bctx); err != nil {
		return err
	}
	if err := campaign.Confirm(oc.LeadsPath); err != nil {
		return eris.Wrap(err, "outreach: confirmation")
	}

	summary, runErr := campaign.Run(bctx, leads)
	if summary != nil {
		if err := campaign.Finish(summary); err != nil {
			logger.Warn("[outreach] %v", err)
		}
	}
	return runErr
}
