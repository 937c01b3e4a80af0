package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/hiring"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit a resume to one or more jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		apply(cmd)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().Int64("user", 0, "applicant id")
	applyCmd.Flags().Int64Slice("job", nil, "job id, repeatable")
	applyCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx, txt or md)")
	applyCmd.Flags().String("resume-text", "", "resume text, used instead of --resume")
	applyCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	applyCmd.MarkFlagRequired("user")
	applyCmd.MarkFlagRequired("job")
}

func apply(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	userID, _ := cmd.Flags().GetInt64("user")
	jobIDs, _ := cmd.Flags().GetInt64Slice("job")
	resumePath, _ := cmd.Flags().GetString("resume")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	resumeText, err := textInput(cmd, "resume", "resume-text")
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}
	if resumeText == "" {
		logger.Fatal("resume is empty, set --resume or --resume-text")
	}

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	analyzer, err := d.analyzer(ctx, analyzerOptions{cache: !noCache})
	if err != nil {
		logger.Fatal("preparing analyzer", zap.Error(err))
	}

	engine := hiring.NewEngine(st, analyzer, logger)

	if len(jobIDs) == 1 {
		res, err := engine.ProcessApplication(ctx, userID, jobIDs[0], resumeText, resumePath)
		if err != nil {
			logger.Fatal("processing application", zap.Int64("job_id", jobIDs[0]), zap.Error(err))
		}
		if err := writeJSON(os.Stdout, res); err != nil {
			logger.Fatal("writing result", zap.Error(err))
		}
		return
	}

	batch := engine.BatchApply(ctx, userID, jobIDs, resumeText, resumePath)
	if err := writeJSON(os.Stdout, batch); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}
