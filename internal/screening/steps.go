package screening

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/spigell/resume-matcher/internal/store"
)

type minScoreFilter struct {
	toggle
	threshold float64
}

// NewMinScore drops applications scoring below threshold percent.
func NewMinScore(threshold float64) Filter {
	return &minScoreFilter{threshold: threshold}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate() error {
	if f.threshold < 0 || f.threshold > 100 {
		return errors.New("minimum score must be within [0, 100]")
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, apps []store.Application) ([]store.Application, Step, error) {
	out, step := keep(apps, func(a store.Application) bool { return a.MatchScore >= f.threshold })
	return out, step, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.FormatFloat(f.threshold, 'f', -1, 64)},
	}
}

type requiredSkillsFilter struct {
	toggle
	skills []string
}

// NewRequiredSkills keeps applications whose matched skills include every
// required skill. Skills compare case-insensitively.
func NewRequiredSkills(skills []string) Filter {
	f := &requiredSkillsFilter{}
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			f.skills = append(f.skills, s)
		}
	}
	if len(f.skills) == 0 {
		f.Disable("no required skills configured")
	}
	return f
}

func (f *requiredSkillsFilter) Name() string { return "required_skills" }

func (f *requiredSkillsFilter) Validate() error { return nil }

func (f *requiredSkillsFilter) Apply(_ context.Context, apps []store.Application) ([]store.Application, Step, error) {
	out, step := keep(apps, func(a store.Application) bool {
		for _, skill := range f.skills {
			if !slices.Contains(a.MatchedSkills, skill) {
				return false
			}
		}
		return true
	})
	return out, step, nil
}

func (f *requiredSkillsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"skills": strings.Join(f.skills, ",")},
	}
}

type statusFilter struct {
	toggle
	statuses []store.ApplicationStatus
}

// NewStatus keeps applications in one of the given statuses. An empty list
// disables the step.
func NewStatus(statuses ...store.ApplicationStatus) Filter {
	f := &statusFilter{statuses: statuses}
	if len(statuses) == 0 {
		f.Disable("no statuses configured")
	}
	return f
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Validate() error {
	for _, s := range f.statuses {
		if _, err := store.ParseApplicationStatus(string(s)); err != nil {
			return err
		}
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, apps []store.Application) ([]store.Application, Step, error) {
	out, step := keep(apps, func(a store.Application) bool { return slices.Contains(f.statuses, a.Status) })
	return out, step, nil
}

type topNFilter struct {
	toggle
	n int
}

// NewTopN keeps the first n applications of an already ranked list. Zero
// disables the step.
func NewTopN(n int) Filter {
	f := &topNFilter{n: n}
	if n == 0 {
		f.Disable("no limit configured")
	}
	return f
}

func (f *topNFilter) Name() string { return "top_n" }

func (f *topNFilter) Validate() error {
	if f.n < 0 {
		return errors.New("top n must not be negative")
	}
	return nil
}

func (f *topNFilter) Apply(_ context.Context, apps []store.Application) ([]store.Application, Step, error) {
	initial := len(apps)
	if initial > f.n {
		apps = apps[:f.n]
	}
	return apps, Step{Initial: initial, Dropped: initial - len(apps), Left: len(apps)}, nil
}
