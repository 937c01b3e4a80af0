package similarity

import "fmt"

// Weights are integer percentages so that a weight set sums to exactly 100.
type Weights struct {
	Skills      int `json:"skills" mapstructure:"skills" validate:"gte=0,lte=100"`
	Salient     int `json:"salient" mapstructure:"salient" validate:"gte=0,lte=100"`
	AllKeywords int `json:"all_keywords" mapstructure:"all-keywords" validate:"gte=0,lte=100"`
	Text        int `json:"text" mapstructure:"text" validate:"gte=0,lte=100"`
}

// Sum returns the total weight in percent.
func (w Weights) Sum() int {
	return w.Skills + w.Salient + w.AllKeywords + w.Text
}

// Validate checks that the weights are non-negative and add up to 100.
func (w Weights) Validate() error {
	if w.Skills < 0 || w.Salient < 0 || w.AllKeywords < 0 || w.Text < 0 {
		return fmt.Errorf("weights must not be negative: %+v", w)
	}
	if sum := w.Sum(); sum != 100 {
		return fmt.Errorf("weights must sum to 100, got %d", sum)
	}
	return nil
}

// Thresholds are the lower bounds, in percent, of each match level.
type Thresholds struct {
	Excellent float64 `json:"excellent" mapstructure:"excellent" validate:"gte=0,lte=100"`
	Good      float64 `json:"good" mapstructure:"good" validate:"gte=0,lte=100"`
	Moderate  float64 `json:"moderate" mapstructure:"moderate" validate:"gte=0,lte=100"`
	Low       float64 `json:"low" mapstructure:"low" validate:"gte=0,lte=100"`
}

func (t Thresholds) Validate() error {
	if !(t.Excellent >= t.Good && t.Good >= t.Moderate && t.Moderate >= t.Low) {
		return fmt.Errorf("thresholds must be descending: %+v", t)
	}
	return nil
}

const (
	LevelExcellent = "Excellent Match"
	LevelGood      = "Good Match"
	LevelModerate  = "Moderate Match"
	LevelLow       = "Low Match"
	LevelPoor      = "Poor Match"
)

// Level maps a percentage to its match level.
func (t Thresholds) Level(percentage float64) string {
	switch {
	case percentage >= t.Excellent:
		return LevelExcellent
	case percentage >= t.Good:
		return LevelGood
	case percentage >= t.Moderate:
		return LevelModerate
	case percentage >= t.Low:
		return LevelLow
	default:
		return LevelPoor
	}
}

// Policy selects the weight set and match level for a score.
type Policy struct {
	Primary    Weights    `json:"primary" mapstructure:"weights"`
	Fallback   Weights    `json:"fallback" mapstructure:"fallback-weights"`
	Thresholds Thresholds `json:"thresholds" mapstructure:"thresholds"`
}

// DefaultPolicy: skills 50, salient 25, all keywords 15, text 10. Without job
// salient terms the salient share moves to skills (60) and all keywords (30).
func DefaultPolicy() Policy {
	return Policy{
		Primary:    Weights{Skills: 50, Salient: 25, AllKeywords: 15, Text: 10},
		Fallback:   Weights{Skills: 60, Salient: 0, AllKeywords: 30, Text: 10},
		Thresholds: Thresholds{Excellent: 80, Good: 65, Moderate: 50, Low: 35},
	}
}

func (p Policy) Validate() error {
	if err := p.Primary.Validate(); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	if err := p.Fallback.Validate(); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	if p.Fallback.Salient != 0 {
		return fmt.Errorf("fallback: salient weight must be 0, got %d", p.Fallback.Salient)
	}
	if err := p.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}

// weightsFor returns the fallback set when the job side has no salient terms.
func (p Policy) weightsFor(jobHasSalient bool) (Weights, bool) {
	if jobHasSalient {
		return p.Primary, false
	}
	return p.Fallback, true
}
