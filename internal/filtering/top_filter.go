package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/resume-matcher/internal/matching"
)

type topFilter struct {
	toggle
	limit int
}

// NewTop creates a filter that keeps only the first matching.top rows.
func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg != nil {
		f.limit = cfg.Top
	}
	if f.limit < 0 {
		return fmt.Errorf("top must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *topFilter) Apply(_ context.Context, _ Deps, t *matching.Table) (*matching.Table, Step, error) {
	initial := t.Len()
	if f.limit == 0 || initial <= f.limit {
		return t, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	out, dropped := keep(t, func(idx int, _ matching.Result) bool {
		return idx < f.limit
	})

	return out, Step{Initial: initial, Dropped: len(dropped), Left: out.Len()}, nil
}

func (f *topFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["top"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
