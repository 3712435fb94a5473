package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matching"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes resumes listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, t *matching.Table) (*matching.Table, Step, error) {
	initial := t.Len()
	if f.path == "" {
		return t, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := GetExcludedResumesFromFile(f.path)
	if err != nil {
		return t, Step{}, fmt.Errorf("getting excluded resumes from file: %w", err)
	}

	names := make(map[string]struct{}, len(excluded.Items))
	for _, name := range excluded.Names() {
		names[name] = struct{}{}
	}

	out, removed := keep(t, func(_ int, row matching.Result) bool {
		_, skip := names[row.Name]
		return !skip
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding resumes based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_resumes", removed),
			zap.Int("resumes_left", out.Len()),
		)
	}

	return out, Step{Initial: initial, Dropped: len(removed), Left: out.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
