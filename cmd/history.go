package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"realty-automation/services"
	"realty-automation/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recently archived projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Archive.Driver == "" {
			return eris.New("history: archive.driver is not configured")
		}

		archive, err := storage.NewArchive(cmd.Context(), cfg.Archive, logger)
		if err != nil {
			return err
		}
		defer archive.Close()

		projects, err := archive.RecentProjects(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		services.PrintHistory(cmd.OutOrStdout(), projects)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of projects to list")
	monitorCmd.AddCommand(historyCmd)
}
