// Package hiring runs applications through the analyzer and ranks
// candidates for employers.
package hiring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/pipeline"
	"github.com/spigell/resume-matcher/internal/store"
)

// ErrJobInactive is returned when applying to a closed or draft posting.
var ErrJobInactive = errors.New("job is not active")

const (
	DefaultRankLimit   = 50
	DefaultTopN        = 10
	batchConcurrency   = 4
	excellentThreshold = 80.0
)

const (
	MsgExcellent    = "Excellent match! You are a strong candidate for this position."
	MsgGood         = "Good match! You meet the requirements and should have a good chance."
	MsgMeetsMinimum = "You meet the minimum threshold. Consider highlighting relevant experience."
	msgBelowFormat  = "Your match score is below the threshold (%g%%). Consider building skills in missing areas."
)

// Analyzer scores a resume against a job description.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobText string) *pipeline.Result
}

type Engine struct {
	store    *store.Store
	analyzer Analyzer
	logger   *zap.Logger
}

func NewEngine(st *store.Store, analyzer Analyzer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, analyzer: analyzer, logger: logger}
}

// ApplicationResult is returned to the applicant after applying.
type ApplicationResult struct {
	ApplicationID    int64            `json:"application_id"`
	JobID            int64            `json:"job_id"`
	MatchScore       float64          `json:"match_score"`
	SkillsMatchScore float64          `json:"skills_match_score"`
	MatchedSkills    []string         `json:"matched_skills"`
	MissingSkills    []string         `json:"missing_skills"`
	Threshold        float64          `json:"threshold"`
	MeetsThreshold   bool             `json:"meets_threshold"`
	Recommendation   string           `json:"recommendation"`
	Analysis         *pipeline.Result `json:"-"`
}

// ProcessApplication analyzes the resume against the job and stores the
// application. It fails with store.ErrNotFound for unknown jobs or users,
// ErrJobInactive for postings that are not active and store.ErrDuplicate
// when the user already applied.
func (e *Engine) ProcessApplication(ctx context.Context, userID, jobID int64, resumeText, resumePath string) (*ApplicationResult, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != store.JobActive {
		return nil, fmt.Errorf("job %d (%s): %w", jobID, job.Status, ErrJobInactive)
	}
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	log := e.logger.With(zap.Int64("job_id", jobID), zap.Int64("user_id", userID))
	log.Info("processing application")

	res := e.analyzer.Analyze(ctx, resumeText, pipeline.BuildJobDescription(jobPosting(job)))
	if !res.Success {
		return nil, fmt.Errorf("analyze application for job %d: %s", jobID, res.Error)
	}

	analysis, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}

	scores := res.Scores
	out := &ApplicationResult{
		JobID:            jobID,
		MatchScore:       scores.OverallPercentage,
		SkillsMatchScore: math.Round(scores.SkillsMatchRate*100*100) / 100,
		MatchedSkills:    scores.MatchedSkills,
		MissingSkills:    scores.MissingSkills,
		Threshold:        job.MinimumScore,
		MeetsThreshold:   scores.OverallPercentage >= job.MinimumScore,
		Recommendation:   Recommendation(scores.OverallPercentage, job.MinimumScore),
		Analysis:         res,
	}

	out.ApplicationID, err = e.store.CreateApplication(ctx, store.Application{
		JobID:            jobID,
		UserID:           userID,
		MatchScore:       out.MatchScore,
		SkillsMatchScore: out.SkillsMatchScore,
		MatchedSkills:    out.MatchedSkills,
		MissingSkills:    out.MissingSkills,
		Analysis:         analysis,
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateUserResume(ctx, userID, resumePath, resumeText, res.Resume.Keywords.TechnicalSkills); err != nil {
		log.Warn("could not update user resume", zap.Error(err))
	}

	log.Info("application stored",
		zap.Int64("application_id", out.ApplicationID),
		zap.Float64("match_score", out.MatchScore),
		zap.Bool("meets_threshold", out.MeetsThreshold),
	)
	return out, nil
}

// Outcome statuses of a batch application.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

type BatchOutcome struct {
	JobID          int64   `json:"job_id"`
	Status         string  `json:"status"`
	MatchScore     float64 `json:"match_score,omitempty"`
	MeetsThreshold bool    `json:"meets_threshold,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type BatchResult struct {
	TotalJobs    int            `json:"total_jobs"`
	Successful   int            `json:"successful_applications"`
	Failed       int            `json:"failed_applications"`
	Applications []BatchOutcome `json:"applications"`
}

// BatchApply applies to every job concurrently. Individual failures are
// reported per job; outcomes are sorted by match score, best first.
func (e *Engine) BatchApply(ctx context.Context, userID int64, jobIDs []int64, resumeText, resumePath string) *BatchResult {
	outcomes := make([]BatchOutcome, len(jobIDs))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for i, jobID := range jobIDs {
		g.Go(func() error {
			outcome := BatchOutcome{JobID: jobID}
			res, err := e.ProcessApplication(ctx, userID, jobID, resumeText, resumePath)
			switch {
			case errors.Is(err, store.ErrDuplicate):
				outcome.Status = OutcomeFailed
				outcome.Error = "already applied to this job"
			case err != nil:
				outcome.Status = OutcomeError
				outcome.Error = err.Error()
			default:
				outcome.Status = OutcomeSuccess
				outcome.MatchScore = res.MatchScore
				outcome.MeetsThreshold = res.MeetsThreshold
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{TotalJobs: len(jobIDs), Applications: outcomes}
	for _, o := range outcomes {
		if o.Status == OutcomeSuccess {
			result.Successful++
		} else {
			result.Failed++
		}
	}
	sort.SliceStable(result.Applications, func(i, j int) bool {
		return result.Applications[i].MatchScore > result.Applications[j].MatchScore
	})
	return result
}

// RankedCandidates lists a job's applications at or above minScore, best
// first. A nil minScore uses the job's own threshold.
func (e *Engine) RankedCandidates(ctx context.Context, jobID int64, minScore *float64, limit int) ([]store.Application, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if minScore == nil {
		minScore = &job.MinimumScore
	}
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	return e.store.ListApplications(ctx, store.ApplicationQuery{JobID: jobID, MinScore: minScore, Limit: limit})
}

// TopCandidates returns the best n applications regardless of threshold.
func (e *Engine) TopCandidates(ctx context.Context, jobID int64, n int) ([]store.Application, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	zero := 0.0
	return e.RankedCandidates(ctx, jobID, &zero, n)
}

func (e *Engine) JobStatistics(ctx context.Context, jobID int64) (*store.JobStats, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return e.store.JobStatistics(ctx, jobID, job.MinimumScore)
}

// UpdateStatus moves an application through the review workflow.
func (e *Engine) UpdateStatus(ctx context.Context, applicationID int64, status, notes string) error {
	parsed, err := store.ParseApplicationStatus(status)
	if err != nil {
		return err
	}
	if err := e.store.UpdateApplicationStatus(ctx, applicationID, parsed, notes); err != nil {
		return err
	}
	e.logger.Info("application status updated",
		zap.Int64("application_id", applicationID),
		zap.String("status", string(parsed)),
	)
	return nil
}

// Recommendation is the applicant-facing verdict for a score against a
// job's minimum.
func Recommendation(score, threshold float64) string {
	switch {
	case score >= excellentThreshold:
		return MsgExcellent
	case score >= threshold+10:
		return MsgGood
	case score >= threshold:
		return MsgMeetsMinimum
	default:
		return fmt.Sprintf(msgBelowFormat, threshold)
	}
}

func jobPosting(j *store.Job) pipeline.JobPosting {
	return pipeline.JobPosting{
		Title:          j.Title,
		Description:    j.Description,
		Requirements:   j.Requirements,
		Location:       j.Location,
		EmploymentType: j.EmploymentType,
	}
}

var _ Analyzer = (*pipeline.Analyzer)(nil)
