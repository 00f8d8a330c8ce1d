package scoring

import (
	"bytes"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"quiz-result-service/internal/domain"
)

// Band maps the percentage range [Min, Max) to a level. The highest band
// also includes its Max.
type Band struct {
	Level domain.Level `yaml:"level" json:"level"`
	Min   int          `yaml:"min" json:"min"`
	Max   int          `yaml:"max" json:"max"`
}

// Bands is an ordered, contiguous partition of [0,100].
type Bands []Band

// DefaultBands returns the standard four-level partition.
func DefaultBands() Bands {
	return Bands{
		{Level: domain.LevelNeedsImprovement, Min: 0, Max: 40},
		{Level: domain.LevelFair, Min: 40, Max: 70},
		{Level: domain.LevelGood, Min: 70, Max: 90},
		{Level: domain.LevelExcellent, Min: 90, Max: 100},
	}
}

// Validate checks the bands are ascending, contiguous and cover [0,100]
// with one band per level.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("no classification bands configured")
	}
	if b[0].Min != 0 {
		return fmt.Errorf("first band must start at 0, starts at %d", b[0].Min)
	}
	if last := b[len(b)-1]; last.Max != 100 {
		return fmt.Errorf("last band must end at 100, ends at %d", last.Max)
	}
	seen := make(map[domain.Level]bool, len(b))
	for i, band := range b {
		if !band.Level.Valid() {
			return fmt.Errorf("band %d: unknown level %q", i, band.Level)
		}
		if seen[band.Level] {
			return fmt.Errorf("band %d: level %q configured twice", i, band.Level)
		}
		seen[band.Level] = true
		if band.Min >= band.Max {
			return fmt.Errorf("band %d: empty range [%d,%d)", i, band.Min, band.Max)
		}
		if i > 0 && b[i-1].Max != band.Min {
			return fmt.Errorf("band %d: gap or overlap between %d and %d", i, b[i-1].Max, band.Min)
		}
	}
	return nil
}

// Match returns the level of the band containing p.
func (b Bands) Match(p int) (domain.Level, bool) {
	for i, band := range b {
		if p >= band.Min && p < band.Max {
			return band.Level, true
		}
		if i == len(b)-1 && p == band.Max {
			return band.Level, true
		}
	}
	return "", false
}

// nearest returns the level of the band closest to p.
func (b Bands) nearest(p int) domain.Level {
	best, bestDist := b[0].Level, -1
	for _, band := range b {
		dist := 0
		switch {
		case p < band.Min:
			dist = band.Min - p
		case p > band.Max:
			dist = p - band.Max
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = band.Level, dist
		}
	}
	return best
}

// ClassifierConfig configures bands and invariant handling.
// Strict makes a percentage outside every band an error; otherwise the
// nearest band is used and the violation logged.
type ClassifierConfig struct {
	Bands  Bands
	Strict bool
}

// Classification is the qualitative view of a percentage.
type Classification struct {
	Level           domain.Level `json:"level"`
	Feedback        string       `json:"feedback"`
	Recommendations []string     `json:"recommendations"`
}

// Classifier maps percentages to levels and their static content.
type Classifier struct {
	bands   Bands
	strict  bool
	content map[domain.Level]levelContent
	log     *zap.Logger
}

type levelContent struct {
	feedback        *template.Template
	recommendations []string
}

type feedbackData struct {
	Title      string
	Percentage int
	Level      domain.Level
}

// NewClassifier validates the configuration and compiles feedback templates.
func NewClassifier(cfg ClassifierConfig, log *zap.Logger) (*Classifier, error) {
	bands := cfg.Bands
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	content := make(map[domain.Level]levelContent, len(levelTexts))
	for level, text := range levelTexts {
		tmpl, err := template.New(string(level)).Parse(text.feedback)
		if err != nil {
			return nil, fmt.Errorf("parse feedback for %s: %w", level, err)
		}
		content[level] = levelContent{feedback: tmpl, recommendations: text.recommendations}
	}
	return &Classifier{bands: bands, strict: cfg.Strict, content: content, log: log}, nil
}

// Classify buckets a percentage and renders the level's feedback.
func (c *Classifier) Classify(quizTitle string, percentage int) (Classification, error) {
	level, ok := c.bands.Match(percentage)
	if !ok {
		if c.strict {
			return Classification{}, fmt.Errorf("%w: percentage %d", domain.ErrInvariantViolation, percentage)
		}
		level = c.bands.nearest(percentage)
		c.log.Error("percentage outside classification bands",
			zap.Int("percentage", percentage),
			zap.String("fallbackLevel", string(level)),
		)
	}

	content, ok := c.content[level]
	if !ok {
		return Classification{}, fmt.Errorf("%w: no content for level %q", domain.ErrInvariantViolation, level)
	}

	var buf bytes.Buffer
	if err := content.feedback.Execute(&buf, feedbackData{Title: quizTitle, Percentage: percentage, Level: level}); err != nil {
		return Classification{}, fmt.Errorf("render feedback: %w", err)
	}
	recs := make([]string, len(content.recommendations))
	copy(recs, content.recommendations)
	return Classification{Level: level, Feedback: buf.String(), Recommendations: recs}, nil
}
