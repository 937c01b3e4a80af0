package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

//go:embed profile_schema.json
var profileSchemaJSON string

var profileSchema = mustSchema(profileSchemaJSON)

const (
	defaultMaxLogLength = 200
	maxResumeRunes      = 30000
)

// Extractor asks Gemini for a structured resume profile.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, maxLogLength int, log *zap.Logger) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{generator: generator, logger: log, maxLogLen: maxLogLength}
}

var _ ai.ProfileExtractor = (*Extractor)(nil)

// Model reports the generator model when the generator exposes one.
func (e *Extractor) Model() string {
	if m, ok := e.generator.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

func (e *Extractor) ExtractProfile(ctx context.Context, resumeText string) (*ai.Profile, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return nil, errors.New("resume text is required")
	}

	prompt := buildPrompt(resumeText)

	e.logger.Debug("gemini profile request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini profile response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	profile, err := parseProfile(raw)
	if err != nil {
		return nil, err
	}
	profile.Raw = raw
	return profile, nil
}

func buildPrompt(resumeText string) string {
	if runes := []rune(resumeText); len(runes) > maxResumeRunes {
		resumeText = string(runes[:maxResumeRunes])
	}
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{RESUME_TEXT}}", resumeText)
}

func parseProfile(raw string) (*ai.Profile, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	result, err := profileSchema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate gemini response: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("gemini response does not match profile schema: %s", strings.Join(problems, "; "))
	}

	years := coerceFloat(data["total_experience_years"])
	if math.IsNaN(years) || years < 0 {
		years = 0
	}
	data["total_experience_years"] = years

	var profile ai.Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       profileDecodeHook,
		WeaklyTypedInput: true,
		Result:           &profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	profile.TechnicalSkills = cleanRecords(profile.TechnicalSkills, func(s *ai.TechnicalSkill) string {
		s.Proficiency = normalizeProficiency(s.Proficiency)
		if s.YearsExperience != nil && (math.IsNaN(*s.YearsExperience) || *s.YearsExperience < 0) {
			s.YearsExperience = nil
		}
		return trimInPlace(&s.Name)
	})
	profile.SoftSkills = cleanRecords(profile.SoftSkills, func(s *ai.SoftSkill) string {
		trimInPlace(&s.Context)
		return trimInPlace(&s.Name)
	})
	profile.Certifications = cleanRecords(profile.Certifications, func(c *ai.Certification) string {
		trimInPlace(&c.Issuer)
		return trimInPlace(&c.Name)
	})
	profile.Education = cleanRecords(profile.Education, func(e *ai.Education) string {
		trimInPlace(&e.Institution)
		trimInPlace(&e.Field)
		return trimInPlace(&e.Degree) + "\x00" + strings.ToLower(e.Institution)
	})
	profile.JobTitles = cleanList(profile.JobTitles)
	profile.Industries = cleanList(profile.Industries)
	profile.Summary = strings.TrimSpace(profile.Summary)

	return &profile, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(val), "+ yearsYEARS"))
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// recordNameKeys maps profile record types to the field a bare string
// answer fills, so "Go" decodes like {"skill": "Go"}.
var recordNameKeys = map[reflect.Type]string{
	reflect.TypeOf(ai.TechnicalSkill{}): "skill",
	reflect.TypeOf(ai.SoftSkill{}):      "skill",
	reflect.TypeOf(ai.Certification{}):  "name",
	reflect.TypeOf(ai.Education{}):      "degree",
}

// profileDecodeHook lifts bare strings into records and parses numeric
// strings like "5 years" or "2019". Unparseable numbers leave optional
// fields unset.
func profileDecodeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	if key, ok := recordNameKeys[to]; ok {
		return map[string]any{key: data}, nil
	}
	if to.Kind() != reflect.Ptr {
		return data, nil
	}
	switch to.Elem().Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		f := coerceFloat(data)
		if math.IsNaN(f) {
			return nil, nil
		}
		if to.Elem().Kind() == reflect.Float32 || to.Elem().Kind() == reflect.Float64 {
			return f, nil
		}
		return int64(math.Round(f)), nil
	}
	return data, nil
}

func normalizeProficiency(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "", "null", "none", "n/a", "unknown":
		return ""
	case "advanced":
		return ai.ProficiencyExpert
	}
	return p
}

func trimInPlace(s *string) string {
	*s = strings.TrimSpace(*s)
	return strings.ToLower(*s)
}

// cleanRecords drops records whose key is empty and keeps the first record
// of each key. key may normalize the record in place.
func cleanRecords[T any](records []T, key func(*T) string) []T {
	out := make([]T, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		k := key(&records[i])
		if k == "" || k == "\x00" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, records[i])
	}
	return out
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid profile schema: %v", err))
	}
	return schema
}
