package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/hiring"
	"github.com/spigell/resume-matcher/internal/screening"
	"github.com/spigell/resume-matcher/internal/store"
)

const (
	promptDone = "Done"
	promptBack = "Back"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the candidates of a job",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	f := rankCmd.Flags()
	f.Int64("job", 0, "job id")
	f.Float64("min-score", 0, "minimum match score, defaults to the job minimum")
	f.Int("limit", hiring.DefaultRankLimit, "maximum number of candidates loaded")
	f.Int("top", 0, "keep only the best n candidates after screening")
	f.StringSlice("require-skill", nil, "candidate must have matched this skill, repeatable")
	f.StringSlice("status", nil, "keep only applications in these statuses, repeatable")
	f.StringSlice("skip", nil, "disable a screening step by name (min_score, required_skills, status, top_n)")
	f.BoolP("interactive", "i", false, "review candidates and update their status")
	rankCmd.MarkFlagRequired("job")
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	f := cmd.Flags()
	jobID, _ := f.GetInt64("job")
	limit, _ := f.GetInt("limit")
	top, _ := f.GetInt("top")
	skills, _ := f.GetStringSlice("require-skill")
	rawStatuses, _ := f.GetStringSlice("status")
	skipped, _ := f.GetStringSlice("skip")
	interactive, _ := f.GetBool("interactive")


	statuses := make([]store.ApplicationStatus, 0, len(rawStatuses))
	for _, raw := range rawStatuses {
		statuses = append(statuses, store.ApplicationStatus(strings.ToLower(strings.TrimSpace(raw))))
	}

	d := newDeps(config, logger)
	defer d.close()

	st, err := d.openStore(ctx)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	engine := hiring.NewEngine(st, nil, logger)

	job, err := st.GetJob(ctx, jobID)
	if err != nil {
		logger.Fatal("loading job", zap.Int64("job_id", jobID), zap.Error(err))
	}
	minScore := job.MinimumScore
	if f.Changed("min-score") {
		minScore, _ = f.GetFloat64("min-score")
	}

	// The score threshold is a screening step so that it can be skipped.
	noThreshold := 0.0
	candidates, err := engine.RankedCandidates(ctx, jobID, &noThreshold, limit)
	if err != nil {
		logger.Fatal("loading candidates", zap.Int64("job_id", jobID), zap.Error(err))
	}

	steps := screeningSteps(minScore, skills, statuses, top, skipped)
	for _, status := range screening.Describe(steps) {
		logger.Debug("screening configuration",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}

	candidates, err = screening.Run(ctx, logger, steps, candidates)
	if err != nil {
		logger.Fatal("screening candidates", zap.Error(err))
	}

	if !interactive {
		if err := writeJSON(os.Stdout, candidates); err != nil {
			logger.Fatal("writing result", zap.Error(err))
		}
		return
	}

	if err := review(ctx, engine, logger, candidates); err != nil && !errors.Is(err, promptui.ErrInterrupt) {
		logger.Fatal("reviewing candidates", zap.Error(err))
	}
}

// screeningSteps builds the rank pipeline in order: score threshold,
// required skills, status, then the top n cut. Steps named in skipped are
// kept but disabled.
func screeningSteps(minScore float64, skills []string, statuses []store.ApplicationStatus, top int, skipped []string) []screening.Filter {
	steps := []screening.Filter{
		screening.NewMinScore(minScore),
		screening.NewRequiredSkills(skills),
		screening.NewStatus(statuses...),
		screening.NewTopN(top),
	}
	for _, name := range skipped {
		screening.DisableByName(steps, name, "disabled by --skip")
	}
	return steps
}

// review lets the operator pick candidates one by one and move them through
// the application workflow.
func review(ctx context.Context, engine *hiring.Engine, logger *zap.Logger, candidates []store.Application) error {
	for {
		if len(candidates) == 0 {
			logger.Info("no candidates left to review")
			return nil
		}

		items := make([]string, 0, len(candidates)+1)
		for _, c := range candidates {
			items = append(items, fmt.Sprintf("%d %s <%s> / %.2f%% / %s",
				c.ID, c.UserName, c.UserEmail, c.MatchScore, c.Status,
			))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, promptDone),
			Size:  10,
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == promptDone {
			return nil
		}

		chosen := candidates[idx]
		logger.Info("candidate",
			zap.Int64("application_id", chosen.ID),
			zap.String("name", chosen.UserName),
			zap.Float64("match_score", chosen.MatchScore),
			zap.String("matched_skills", strings.Join(chosen.MatchedSkills, ", ")),
			zap.String("missing_skills", strings.Join(chosen.MissingSkills, ", ")),
		)

		statusItems := make([]string, 0, len(store.ApplicationStatuses)+1)
		for _, s := range store.ApplicationStatuses {
			statusItems = append(statusItems, string(s))
		}
		statusPrompt := promptui.Select{
			Label: "New status",
			Items: append(statusItems, promptBack),
		}

		_, status, err := statusPrompt.Run()
		if err != nil {
			return err
		}
		if status == promptBack {
			continue
		}

		notesPrompt := promptui.Prompt{Label: "Notes"}
		notes, err := notesPrompt.Run()
		if err != nil {
			return err
		}

		if err := engine.UpdateStatus(ctx, chosen.ID, status, notes); err != nil {
			return err
		}
		candidates[idx].Status = store.ApplicationStatus(status)
	}
}
