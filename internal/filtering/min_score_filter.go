package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matching"
)

type minScoreFilter struct {
	toggle
	minimum float64
}

// NewMinScore creates a filter that removes rows scoring below matching.minimum-score.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minimum = 0
	if cfg != nil {
		f.minimum = cfg.MinimumScore
	}
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum score %.2f is outside [0, 100]", f.minimum)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, t *matching.Table) (*matching.Table, Step, error) {
	initial := t.Len()
	if f.minimum <= 0 {
		return t, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	out, dropped := keep(t, func(_ int, row matching.Result) bool {
		return row.Score >= f.minimum
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding resumes below minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Strings("excluded_resumes", dropped),
			zap.Int("resumes_left", out.Len()),
		)
	}

	return out, Step{Initial: initial, Dropped: len(dropped), Left: out.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	details := map[string]string{}
	if f.minimum > 0 {
		details["minimum_score"] = strconv.FormatFloat(f.minimum, 'f', 2, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
