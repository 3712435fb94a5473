// Package pipeline runs one matching job: it normalizes the job description
// and every resume, then ranks the resumes and suggests missing keywords.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/textnorm"
)

var ErrDuplicateDocument = errors.New("duplicate document id")

// Document is one input text identified by a name unique within a run.
type Document struct {
	ID   string
	Text string
}

// Normalizer turns raw text into admitted tokens. *textnorm.Model satisfies it.
type Normalizer interface {
	Normalize(raw string) (textnorm.NormalizedText, error)
}

// Ranker scores normalized resumes against a normalized JD.
type Ranker interface {
	Rank(jd textnorm.NormalizedText, candidates []matching.Candidate) (*matching.Table, error)
}

// SkippedDocument is a resume left out of the ranking together with the reason.
type SkippedDocument struct {
	ID  string
	Err error
}

// Result is the output of one run.
type Result struct {
	RunID   string
	JD      textnorm.NormalizedText
	Table   *matching.Table
	Skipped []SkippedDocument
}

type Options struct {
	// Workers bounds parallel resume normalization. Non-positive means
	// runtime.NumCPU().
	Workers int
}

type Pipeline struct {
	normalizer Normalizer
	ranker     Ranker
	workers    int
	logger     *zap.Logger
	newRunID   func() string
}

func New(normalizer Normalizer, ranker Ranker, opts Options, log *zap.Logger) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pipeline{
		normalizer: normalizer,
		ranker:     ranker,
		workers:    workers,
		logger:     logger.WithFields(log),
		newRunID:   uuid.NewString,
	}
}

// Run normalizes jdRaw and resumes and returns the ranked table.
//
// A NormalizationError aborts the run. Any other failure of a single resume
// is recorded in Result.Skipped. matching.ErrEmptyInput is returned when no
// resume is left to rank.
func (p *Pipeline) Run(ctx context.Context, jdRaw string, resumes []Document) (*Result, error) {
	if err := checkUnique(resumes); err != nil {
		return nil, err
	}
	if p.normalizer == nil {
		return nil, &textnorm.NormalizationError{Message: "normalizer is not configured"}
	}

	runID := p.newRunID()
	log := logger.WithRun(p.logger, runID)

	jd, err := p.normalizer.Normalize(jdRaw)
	if err != nil {
		return nil, fmt.Errorf("normalize job description: %w", err)
	}
	log.Debug("pipeline step",
		zap.String("name", "normalize_jd"),
		zap.Int("tokens", len(jd)),
	)

	candidates, skipped, err := p.normalizeResumes(ctx, log, resumes)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline step",
		zap.String("name", "normalize_resumes"),
		zap.Int("initial", len(resumes)),
		zap.Int("dropped", len(skipped)),
		zap.Int("left", len(candidates)),
	)

	table, err := p.ranker.Rank(jd, candidates)
	if err != nil {
		return nil, fmt.Errorf("rank resumes: %w", err)
	}

	fields := []zap.Field{zap.String("name", "rank"), zap.Int("rows", table.Len())}
	if best := table.Best(); best != nil {
		fields = append(fields, zap.String("best", best.Name), zap.Float64("best_score", best.Score))
	}
	log.Info("pipeline step", fields...)

	return &Result{RunID: runID, JD: jd, Table: table, Skipped: skipped}, nil
}

func (p *Pipeline) normalizeResumes(ctx context.Context, log *zap.Logger, resumes []Document) ([]matching.Candidate, []SkippedDocument, error) {
	type outcome struct {
		tokens textnorm.NormalizedText
		err    error
	}

	outcomes := make([]outcome, len(resumes))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, doc := range resumes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			tokens, err := p.normalizeOne(doc)
			if errors.Is(err, textnorm.ErrNormalization) {
				return fmt.Errorf("normalize resume %q: %w", doc.ID, err)
			}
			outcomes[i] = outcome{tokens: tokens, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	candidates := make([]matching.Candidate, 0, len(resumes))
	var skipped []SkippedDocument
	for i, doc := range resumes {
		if err := outcomes[i].err; err != nil {
			log.Warn("skip resume", zap.String(logger.FieldResume, doc.ID), zap.Error(err))
			skipped = append(skipped, SkippedDocument{ID: doc.ID, Err: err})
			continue
		}
		if len(outcomes[i].tokens) == 0 {
			log.Debug("resume has no admitted tokens", zap.String(logger.FieldResume, doc.ID))
		}
		candidates = append(candidates, matching.Candidate{Name: doc.ID, Tokens: outcomes[i].tokens})
	}

	return candidates, skipped, nil
}

func (p *Pipeline) normalizeOne(doc Document) (tokens textnorm.NormalizedText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while normalizing: %v", r)
		}
	}()

	return p.normalizer.Normalize(doc.Text)
}

func checkUnique(docs []Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateDocument, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return nil
}
