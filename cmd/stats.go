package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/hiring"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show application statistics for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		stats(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int64("job", 0, "job id")
	statsCmd.MarkFlagRequired("job")
}

func stats(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	jobID, _ := cmd.Flags().GetInt64("job")

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	result, err := hiring.NewEngine(st, nil, logger).JobStatistics(ctx, jobID)
	if err != nil {
		logger.Fatal("collecting statistics", zap.Int64("job_id", jobID), zap.Error(err))
	}
	if err := writeJSON(os.Stdout, result); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}
