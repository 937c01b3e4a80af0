package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/store"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage job postings",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		jobCreate(cmd)
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		jobList(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobCreateCmd, jobListCmd)

	f := jobCreateCmd.Flags()
	f.String("title", "", "job title")
	f.String("company", "", "company name")
	f.String("description", "", "job description text")
	f.String("description-file", "", "file with the job description")
	f.String("requirements", "", "requirements text")
	f.String("location", "", "location")
	f.String("salary-range", "", "salary range")
	f.String("employment-type", "Full-time", "employment type")
	f.StringSlice("required-skill", nil, "required skill, repeatable")
	f.Float64("minimum-score", store.DefaultMinimumScore, "minimum match percentage for ranking")
	jobCreateCmd.MarkFlagRequired("title")

	jobListCmd.Flags().String("status", "", "filter by status: active, closed or draft")
	jobListCmd.Flags().Int("limit", 100, "maximum number of jobs")
}

func jobCreate(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	description, err := textInput(cmd, "description-file", "description")
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	f := cmd.Flags()
	job := store.Job{Description: description}
	job.Title, _ = f.GetString("title")
	job.Company, _ = f.GetString("company")
	job.Requirements, _ = f.GetString("requirements")
	job.Location, _ = f.GetString("location")
	job.SalaryRange, _ = f.GetString("salary-range")
	job.EmploymentType, _ = f.GetString("employment-type")
	job.RequiredSkills, _ = f.GetStringSlice("required-skill")
	job.MinimumScore, _ = f.GetFloat64("minimum-score")

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	id, err := st.CreateJob(ctx, job)
	if err != nil {
		logger.Fatal("creating job", zap.Error(err))
	}
	logger.Info("job created", zap.Int64("job_id", id), zap.String("title", job.Title))
}

func jobList(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	jobs, err := st.ListJobs(ctx, store.JobStatus(status), limit)
	if err != nil {
		logger.Fatal("listing jobs", zap.Error(err))
	}
	if err := writeJSON(os.Stdout, jobs); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}
