package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/pipeline"
)

// MalformedSummary is the summary of an evaluation whose response could not be parsed.
const MalformedSummary = "LLM response could not be parsed as JSON."

// Kind tags how an Evaluation was obtained.
type Kind int

const (
	// KindParsed means the provider response matched the expected shape.
	KindParsed Kind = iota
	// KindMalformed means the response could not be parsed; Raw and
	// ParsedAttempt hold the payload for diagnostics.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindParsed:
		return "parsed"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Evaluation is a semantic assessment of one resume against a job description.
// It is shown next to the ranked table and never changes it.
type Evaluation struct {
	Kind              Kind
	Score             int
	Summary           string
	SuggestedKeywords []string
	Raw               string
	ParsedAttempt     string
}

// Malformed returns the degraded evaluation for an unparsable response.
func Malformed(raw, attempt string) *Evaluation {
	return &Evaluation{
		Kind:              KindMalformed,
		Score:             0,
		Summary:           MalformedSummary,
		SuggestedKeywords: []string{},
		Raw:               raw,
		ParsedAttempt:     attempt,
	}
}

func (e *Evaluation) IsMalformed() bool {
	return e != nil && e.Kind == KindMalformed
}

// KeywordString renders the suggested keywords on one line.
func (e *Evaluation) KeywordString() string {
	if e == nil {
		return ""
	}
	return strings.Join(e.SuggestedKeywords, ", ")
}

// Evaluator scores a resume against a job description with a language model.
// A response that cannot be parsed is returned as a KindMalformed evaluation,
// not as an error. Errors are reserved for transport and provider failures.
type Evaluator interface {
	Evaluate(ctx context.Context, jdText, resumeText string) (*Evaluation, error)
}

// Entry is the outcome of evaluating one resume.
type Entry struct {
	ID         string
	Evaluation *Evaluation
	Err        error
}

// EvaluateSelected evaluates docs one by one. A failed evaluation is recorded
// in its entry and the batch continues. Cancellation of ctx stops the batch and
// marks the remaining entries with the context error.
func EvaluateSelected(ctx context.Context, evaluator Evaluator, jdText string, docs []pipeline.Document, log *zap.Logger) []Entry {
	log = logger.WithFields(log)
	entries := make([]Entry, 0, len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			entries = append(entries, Entry{ID: doc.ID, Err: err})
			continue
		}

		evaluation, err := evaluator.Evaluate(ctx, jdText, doc.Text)
		if err == nil && evaluation == nil {
			err = errors.New("evaluator returned no result")
		}
		if err != nil {
			log.Warn("AI evaluation failed",
				zap.String(logger.FieldResume, doc.ID),
				zap.Error(err),
			)
			entries = append(entries, Entry{ID: doc.ID, Err: err})
			continue
		}

		if evaluation.IsMalformed() {
			log.Warn("AI response could not be parsed",
				zap.String(logger.FieldResume, doc.ID),
			)
		} else {
			log.Info("resume evaluated by AI",
				zap.String(logger.FieldResume, doc.ID),
				zap.Int("ai_score", evaluation.Score),
			)
		}

		entries = append(entries, Entry{ID: doc.ID, Evaluation: evaluation})
	}

	return entries
}
