package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/recommend"
	"github.com/spigell/resume-matcher/internal/semantic"
	"github.com/spigell/resume-matcher/internal/similarity"
	"github.com/spigell/resume-matcher/internal/vocabulary"
)

func newTestAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	extractor := keywords.NewExtractor(nil, nil, 0, zap.NewNop())
	calculator := similarity.NewCalculator(similarity.DefaultPolicy(), zap.NewNop())
	return NewAnalyzer(extractor, calculator, opts, zap.NewNop())
}

func TestAnalyzeFullOverlap(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, Options{})
	res := a.Analyze(context.Background(),
		"Python, Django, PostgreSQL, Docker, AWS, Git, REST API, Agile",
		"Must have: Python, Django, Docker, AWS, PostgreSQL",
	)

	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Scores)
	assert.Equal(t, []string{"aws", "django", "docker", "postgresql", "python"}, res.Scores.MatchedSkills)
	assert.Empty(t, res.Scores.MissingSkills)
	assert.Equal(t, 1.0, res.Scores.SkillsMatchRate)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, len("Must have: Python, Django, Docker, AWS, PostgreSQL"), res.Job.TextLength)
}

func TestAnalyzeNoOverlap(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, Options{})
	res := a.Analyze(context.Background(),
		"Registered nurse caring for patients in the emergency ward. Administered medication and monitored vital signs.",
		"Must have Kubernetes, Terraform and Jenkins. Build cloud infrastructure pipelines.",
	)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0.0, res.Scores.SkillsMatchRate)
	assert.Equal(t, similarity.LevelPoor, res.Scores.MatchLevel)
	assert.Contains(t, res.Recommendations, recommend.MsgLowMatch)
}

func TestAnalyzeEmptyJob(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, Options{})
	for _, job := range []string{"", "   \n\t"} {
		res := a.Analyze(context.Background(), "Python developer", job)
		require.NotNil(t, res)
		assert.False(t, res.Success)
		assert.Equal(t, ErrEmptyJobDescription.Error(), res.Error)
		assert.Nil(t, res.Scores)
	}
}

func TestAnalyzeEmptyResume(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, Options{})
	res := a.Analyze(context.Background(), "", "Looking for a Python engineer with Docker and Kubernetes experience.")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0.0, res.Scores.SkillsMatchRate)
	assert.Equal(t, 0.0, res.Scores.AllKeywordsMatchRate)
	assert.Equal(t, 0.0, res.Scores.OverallPercentage)
	assert.Equal(t, []string{"docker", "kubernetes", "python"}, res.Scores.MissingSkills)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(t, Options{})
	resume := "Senior data analyst. SQL, Tableau and Python.\nBuilt forecasting dashboards for supply chain teams."
	job := "Data analyst with SQL and Power BI. Forecasting experience is a plus.\nSupply chain background preferred."

	first := a.Analyze(context.Background(), resume, job)
	for range 5 {
		next := a.Analyze(context.Background(), resume, job)
		assert.Equal(t, first.Scores, next.Scores)
		assert.Equal(t, first.Recommendations, next.Recommendations)
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestAnalyzer(t, Options{}).Analyze(ctx, "Python", "Python")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "canceled")
}

type panicLinguist struct{}

func (panicLinguist) Keywords(string, int) ([]string, error) { panic("tagger crashed") }

func TestAnalyzeSurvivesLinguistPanic(t *testing.T) {
	t.Parallel()

	extractor := keywords.NewExtractor(nil, panicLinguist{}, 0, zap.NewNop())
	calculator := similarity.NewCalculator(similarity.DefaultPolicy(), nil)
	a := NewAnalyzer(extractor, calculator, Options{}, nil)

	res := a.Analyze(context.Background(), "Go and Docker", "Docker required")
	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Resume.Keywords.LinguisticKeywords)
}

func TestAnalyzeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resumePath, []byte("Python and Docker engineer"), 0o600))

	a := newTestAnalyzer(t, Options{})

	res := a.AnalyzeFile(context.Background(), resumePath, "Python and Docker")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1.0, res.Scores.SkillsMatchRate)

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o600))
	res = a.AnalyzeFile(context.Background(), blank, "Python")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "could not extract text")

	res = a.AnalyzeFile(context.Background(), filepath.Join(dir, "missing.pdf"), "Python")
	assert.False(t, res.Success)
}

type memoryCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestAnalyzeUsesCache(t *testing.T) {
	t.Parallel()

	cache := &memoryCache{data: map[string][]byte{}}
	a := newTestAnalyzer(t, Options{Cache: cache})

	first := a.Analyze(context.Background(), "Python", "Python and SQL")
	require.True(t, first.Success)
	assert.False(t, first.Cached)
	assert.Len(t, cache.data, 1)

	second := a.Analyze(context.Background(), "Python", "Python and SQL")
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Scores.OverallPercentage, second.Scores.OverallPercentage)
}

func TestAnalyzeIgnoresCacheErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	cache := &memoryCache{data: map[string][]byte{}, getErr: errors.New("connection refused")}
	a := NewAnalyzer(
		keywords.NewExtractor(nil, nil, 0, nil),
		similarity.NewCalculator(similarity.DefaultPolicy(), nil),
		Options{Cache: cache},
		zap.New(core),
	)

	res := a.Analyze(context.Background(), "Python", "Python")
	assert.True(t, res.Success)
	assert.Equal(t, 1, logs.FilterMessage("result cache lookup failed").Len())
}

type stubProfiler struct {
	profile *ai.Profile
	err     error
}

func (s stubProfiler) ExtractProfile(context.Context, string) (*ai.Profile, error) {
	return s.profile, s.err
}

func TestAnalyzeOptionalStages(t *testing.T) {
	t.Parallel()

	embedder := semantic.NewHashingEmbedder(0)
	vocab, err := vocabulary.NewLoader(embedder, "", 0, nil).Load(context.Background(), []string{"docker", "kubernetes", "python"})
	require.NoError(t, err)
	matcher, err := semantic.NewMatcher(vocab, embedder, nil)
	require.NoError(t, err)

	resume := "Python developer shipping Docker images"
	job := "We need Python and Kubernetes"

	t.Run("enrichment attached", func(t *testing.T) {
		a := newTestAnalyzer(t, Options{
			Semantic:          matcher,
			SemanticThreshold: threshold(0.99),
			Profiler:          stubProfiler{profile: &ai.Profile{TechnicalSkills: []ai.TechnicalSkill{{Name: "Python"}}}},
		})
		res := a.Analyze(context.Background(), resume, job)
		require.True(t, res.Success, res.Error)
		require.NotNil(t, res.Semantic)
		assert.Equal(t, []string{"python"}, res.Semantic.Matched)
		assert.Equal(t, []string{"kubernetes"}, res.Semantic.Missing)
		assert.Equal(t, []string{"docker"}, res.Semantic.Additional)
		require.NotNil(t, res.Profile)
		assert.Empty(t, res.Warnings)
	})

	t.Run("failures become warnings", func(t *testing.T) {
		base := newTestAnalyzer(t, Options{}).Analyze(context.Background(), resume, job)

		a := newTestAnalyzer(t, Options{
			Semantic:          matcher,
			SemanticThreshold: threshold(1.5),
			Profiler:          stubProfiler{err: errors.New("quota exceeded")},
		})
		res := a.Analyze(context.Background(), resume, job)
		require.True(t, res.Success, res.Error)
		assert.Len(t, res.Warnings, 2)
		assert.Nil(t, res.Semantic)
		assert.Nil(t, res.Profile)
		assert.Equal(t, base.Scores.OverallPercentage, res.Scores.OverallPercentage)
	})

	t.Run("zero threshold is honoured", func(t *testing.T) {
		a := newTestAnalyzer(t, Options{Semantic: matcher, SemanticThreshold: threshold(0)})
		res := a.Analyze(context.Background(), resume, job)
		require.True(t, res.Success, res.Error)
		require.NotNil(t, res.Semantic)
		assert.ElementsMatch(t, []string{"docker", "kubernetes", "python"}, res.Semantic.Matched)
		assert.Empty(t, res.Semantic.Missing)
	})
}

func threshold(v float64) *float64 { return &v }

func TestBuildJobDescription(t *testing.T) {
	t.Parallel()

	got := BuildJobDescription(JobPosting{
		Title:          "Backend Engineer",
		Description:    "Build APIs.",
		Requirements:   "Go, PostgreSQL",
		EmploymentType: "full-time",
	})

	want := strings.Join([]string{
		"Job Title: Backend Engineer",
		"\nDescription:\nBuild APIs.",
		"\nRequirements:\nGo, PostgreSQL",
		"\nEmployment Type: full-time",
	}, "\n")
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Location")
}

func TestCacheKeyDependsOnFingerprint(t *testing.T) {
	t.Parallel()

	plain := CacheKey("r", "j", "fp")
	assert.Equal(t, plain, CacheKey("r", "j", "fp"))
	assert.NotEqual(t, plain, CacheKey("j", "r", "fp"))
	assert.NotEqual(t, plain, CacheKey("r", "j", "other"))
}

func TestFingerprintTracksSettings(t *testing.T) {
	t.Parallel()

	textOnly := similarity.DefaultPolicy()
	textOnly.Primary = similarity.Weights{Text: 100}
	textOnly.Fallback = similarity.Weights{Text: 100}

	newAnalyzer := func(policy similarity.Policy, topN int, opts Options) *Analyzer {
		return NewAnalyzer(
			keywords.NewExtractor(nil, nil, topN, nil),
			similarity.NewCalculator(policy, nil),
			opts, nil,
		)
	}

	base := newAnalyzer(similarity.DefaultPolicy(), 0, Options{})
	assert.Equal(t, base.Fingerprint(), newAnalyzer(similarity.DefaultPolicy(), 0, Options{}).Fingerprint())

	variants := map[string]*Analyzer{
		"policy":   newAnalyzer(textOnly, 0, Options{}),
		"top n":    newAnalyzer(similarity.DefaultPolicy(), 5, Options{}),
		"profile":  newAnalyzer(similarity.DefaultPolicy(), 0, Options{Profiler: stubProfiler{}}),
		"linguist": NewAnalyzer(keywords.NewExtractor(nil, panicLinguist{}, 0, nil), similarity.NewCalculator(similarity.DefaultPolicy(), nil), Options{}, nil),
	}
	for name, a := range variants {
		assert.NotEqual(t, base.Fingerprint(), a.Fingerprint(), name)
	}
}

func TestCachedResultsAreNotSharedAcrossPolicies(t *testing.T) {
	t.Parallel()

	textOnly := similarity.DefaultPolicy()
	textOnly.Primary = similarity.Weights{Text: 100}
	textOnly.Fallback = similarity.Weights{Text: 100}

	cache := &memoryCache{data: map[string][]byte{}}
	analyzer := func(policy similarity.Policy) *Analyzer {
		return NewAnalyzer(keywords.NewExtractor(nil, nil, 0, nil), similarity.NewCalculator(policy, nil), Options{Cache: cache}, nil)
	}

	resume := "Python developer building REST APIs with Docker"
	job := "Senior Python engineer with Kubernetes, Docker and PostgreSQL"

	first := analyzer(similarity.DefaultPolicy()).Analyze(context.Background(), resume, job)
	require.True(t, first.Success, first.Error)

	second := analyzer(textOnly).Analyze(context.Background(), resume, job)
	require.True(t, second.Success, second.Error)
	assert.False(t, second.Cached)
	assert.Equal(t, textOnly.Primary, second.Scores.Weights)
	assert.Len(t, cache.data, 2)
}
