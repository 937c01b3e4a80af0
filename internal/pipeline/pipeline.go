// Package pipeline runs a full resume/job analysis and produces a result record.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/document"
	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/recommend"
	"github.com/spigell/resume-matcher/internal/semantic"
	"github.com/spigell/resume-matcher/internal/similarity"
)

// ErrEmptyJobDescription is reported when the job text is blank.
var ErrEmptyJobDescription = errors.New("job description is empty")

// Cache stores serialized results between runs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options enables the optional stages. Zero values disable them; a nil
// SemanticThreshold selects semantic.DefaultThreshold.
type Options struct {
	Semantic          *semantic.Matcher
	SemanticThreshold *float64
	Profiler          ai.ProfileExtractor
	Cache             Cache
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	extractor   *keywords.Extractor
	calculator  *similarity.Calculator
	opts        Options
	threshold   float64
	fingerprint string
	logger      *zap.Logger
}

func NewAnalyzer(extractor *keywords.Extractor, calculator *similarity.Calculator, opts Options, log *zap.Logger) *Analyzer {
	threshold := semantic.DefaultThreshold
	if opts.SemanticThreshold != nil {
		threshold = *opts.SemanticThreshold
	}
	a := &Analyzer{
		extractor:  extractor,
		calculator: calculator,
		opts:       opts,
		threshold:  threshold,
		logger:     logger.ForComponent(log, "pipeline", ""),
	}
	a.fingerprint = a.buildFingerprint()
	return a
}

// Fingerprint describes every setting that shapes a result. Cached results
// are only reused by analyzers with the same fingerprint.
func (a *Analyzer) Fingerprint() string { return a.fingerprint }

func (a *Analyzer) buildFingerprint() string {
	parts := []string{a.extractor.Fingerprint(), a.calculator.Fingerprint()}
	if a.opts.Semantic != nil {
		parts = append(parts, a.opts.Semantic.Fingerprint(), fmt.Sprintf("threshold:%g", a.threshold))
	}
	if a.opts.Profiler != nil {
		model := "unknown"
		if m, ok := a.opts.Profiler.(interface{ Model() string }); ok {
			model = m.Model()
		}
		parts = append(parts, "profile:"+model)
	}
	return strings.Join(parts, "|")
}

// AnalyzeFile reads the resume from a pdf, docx or text file and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, resumePath, jobText string) *Result {
	text, err := document.ReadFile(resumePath)
	if err != nil {
		a.logger.Warn("resume extraction failed", zap.String("path", resumePath), zap.Error(err))
		return failure(uuid.NewString(), fmt.Errorf("could not extract text from resume: %w", err))
	}
	return a.Analyze(ctx, text, jobText)
}

// Analyze scores resumeText against jobText. It never returns nil; failures
// are reported through Result.Success and Result.Error.
func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobText string) (result *Result) {
	id := uuid.NewString()
	log := a.logger.With(zap.String(logger.FieldAnalysisID, id))

	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis panicked", zap.Any("panic", r))
			result = failure(id, fmt.Errorf("analysis failed: %v", r))
		}
	}()

	if strings.TrimSpace(jobText) == "" {
		return failure(id, ErrEmptyJobDescription)
	}
	if err := ctx.Err(); err != nil {
		return failure(id, err)
	}

	key := CacheKey(resumeText, jobText, a.fingerprint)
	if cached := a.lookup(ctx, key, log); cached != nil {
		return cached
	}

	log.Info("analyzing",
		zap.Int("resume_length", utf8.RuneCountInString(resumeText)),
		zap.Int("job_length", utf8.RuneCountInString(jobText)),
	)

	resume, job, err := a.extractBoth(ctx, resumeText, jobText)
	if err != nil {
		log.Error("keyword extraction failed", zap.Error(err))
		return failure(id, err)
	}

	scores := a.calculator.Score(resumeText, jobText, resume, job)

	result = &Result{
		ID:      id,
		Success: true,
		Resume: &DocumentAnalysis{
			TextLength: utf8.RuneCountInString(resumeText),
			Keywords:   resume,
		},
		Job: &DocumentAnalysis{
			TextLength: utf8.RuneCountInString(jobText),
			Keywords:   job,
		},
		Scores:          &scores,
		Recommendations: recommend.Generate(scores),
		CreatedAt:       time.Now().UTC(),
	}

	a.enrich(ctx, result, resumeText, jobText, log)

	log.Info("analysis complete",
		zap.Float64("overall_percentage", scores.OverallPercentage),
		zap.String("match_level", scores.MatchLevel),
		zap.Bool("fallback_weights", scores.Fallback),
	)

	a.store(ctx, key, result, log)
	return result
}

func (a *Analyzer) extractBoth(ctx context.Context, resumeText, jobText string) (resume, job keywords.Bundle, err error) {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.extract("resume", resumeText, &resume)
	})
	g.Go(func() error {
		return a.extract("job", jobText, &job)
	})

	if err := g.Wait(); err != nil {
		return keywords.Bundle{}, keywords.Bundle{}, err
	}
	return resume, job, nil
}

func (a *Analyzer) extract(side, text string, out *keywords.Bundle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s keywords: %v", side, r)
		}
	}()
	*out = a.extractor.Extract(text)
	return nil
}

// enrich runs the optional stages. Their failures become warnings and never
// change the base score.
func (a *Analyzer) enrich(ctx context.Context, result *Result, resumeText, jobText string, log *zap.Logger) {
	if a.opts.Semantic == nil && a.opts.Profiler == nil {
		return
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	warn := func(stage string, err error) {
		log.Warn("optional stage failed", zap.String("stage", stage), zap.Error(err))
		mu.Lock()
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", stage, err))
		mu.Unlock()
	}

	if a.opts.Semantic != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverStage("semantic", warn)
			cmp, err := a.opts.Semantic.Compare(ctx, resumeText, jobText, a.threshold)
			if err != nil {
				warn("semantic", err)
				return
			}
			mu.Lock()
			result.Semantic = cmp
			mu.Unlock()
		}()
	}

	if a.opts.Profiler != nil && strings.TrimSpace(resumeText) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverStage("profile", warn)
			profile, err := a.opts.Profiler.ExtractProfile(ctx, resumeText)
			if err != nil {
				warn("profile", err)
				return
			}
			mu.Lock()
			result.Profile = profile
			mu.Unlock()
		}()
	}

	wg.Wait()
}

func recoverStage(stage string, warn func(string, error)) {
	if r := recover(); r != nil {
		warn(stage, fmt.Errorf("panic: %v", r))
	}
}

func (a *Analyzer) lookup(ctx context.Context, key string, log *zap.Logger) *Result {
	if a.opts.Cache == nil {
		return nil
	}

	data, ok, err := a.opts.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("result cache lookup failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var cached Result
	if err := json.Unmarshal(data, &cached); err != nil {
		log.Warn("cached result is corrupt", zap.Error(err))
		return nil
	}
	cached.Cached = true
	log.Debug("result served from cache", zap.String("cached_id", cached.ID))
	return &cached
}

func (a *Analyzer) store(ctx context.Context, key string, result *Result, log *zap.Logger) {
	if a.opts.Cache == nil || len(result.Warnings) > 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("encode result for cache", zap.Error(err))
		return
	}
	if err := a.opts.Cache.Set(ctx, key, data); err != nil {
		log.Warn("result cache write failed", zap.Error(err))
	}
}

// CacheKey identifies an analysis by its inputs and the analyzer fingerprint.
func CacheKey(resumeText, jobText, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(resumeText))
	h.Write([]byte{0})
	h.Write([]byte(jobText))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}
