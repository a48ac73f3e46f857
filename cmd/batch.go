package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"escriba/internal/config"
	"escriba/internal/csvio"
)

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run article production for every account in a CSV file",
	Long: `Reads the batch CSV (columns: account_uuid, kw, task_count, and
optionally tracker_task_ids and secondary_task_ids), produces and publishes
the requested articles per account, and closes the tracker tasks with the
published URLs. Any failure aborts the run so trackers never drift.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		rows, err := csvio.ParseFile(batchFile)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("batch file %s has no usable rows", batchFile)
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		if err := p.orchestrator.Run(cmd.Context(), rows); err != nil {
			return err
		}

		progress := p.orchestrator.Progress()
		fmt.Printf("\nBatch complete: %d articles published across %d accounts\n",
			len(progress.PublishedURLs), progress.TotalAccounts)
		for _, url := range progress.PublishedURLs {
			fmt.Printf("  %s\n", url)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "path to the batch CSV file")
	_ = batchCmd.MarkFlagRequired("file")
}
