package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/pipeline"
)

type stubEvaluator struct {
	results map[string]*Evaluation
	errs    map[string]error
	calls   []string
}

func (s *stubEvaluator) Evaluate(_ context.Context, jdText, resumeText string) (*Evaluation, error) {
	s.calls = append(s.calls, resumeText)
	if err, ok := s.errs[resumeText]; ok {
		return nil, err
	}
	return s.results[resumeText], nil
}

func TestEvaluateSelected(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	stub := &stubEvaluator{
		results: map[string]*Evaluation{
			"good": {Kind: KindParsed, Score: 87, Summary: "Strong fit", SuggestedKeywords: []string{"Airflow"}},
			"junk": Malformed("not json", "not json"),
		},
		errs: map[string]error{"down": errors.New("503 unavailable")},
	}

	entries := EvaluateSelected(context.Background(), stub, "jd", []pipeline.Document{
		{ID: "a.pdf", Text: "good"},
		{ID: "b.pdf", Text: "down"},
		{ID: "c.pdf", Text: "junk"},
	}, zap.New(core))

	require.Len(t, entries, 3)
	assert.Equal(t, []string{"good", "down", "junk"}, stub.calls)

	assert.Equal(t, "a.pdf", entries[0].ID)
	assert.Equal(t, 87, entries[0].Evaluation.Score)
	assert.NoError(t, entries[0].Err)

	assert.Equal(t, "b.pdf", entries[1].ID)
	assert.Nil(t, entries[1].Evaluation)
	assert.EqualError(t, entries[1].Err, "503 unavailable")

	assert.True(t, entries[2].Evaluation.IsMalformed())
	assert.Equal(t, MalformedSummary, entries[2].Evaluation.Summary)

	assert.Len(t, observed.FilterMessage("AI evaluation failed").All(), 1)
	assert.Len(t, observed.FilterMessage("AI response could not be parsed").All(), 1)
}

func TestEvaluateSelectedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubEvaluator{}
	entries := EvaluateSelected(ctx, stub, "jd", []pipeline.Document{{ID: "a", Text: "x"}}, nil)

	require.Len(t, entries, 1)
	assert.ErrorIs(t, entries[0].Err, context.Canceled)
	assert.Empty(t, stub.calls)
}

func TestMalformed(t *testing.T) {
	e := Malformed("raw", "attempt")

	assert.Equal(t, KindMalformed, e.Kind)
	assert.Equal(t, 0, e.Score)
	assert.Empty(t, e.SuggestedKeywords)
	assert.NotNil(t, e.SuggestedKeywords)
	assert.Equal(t, "raw", e.Raw)
	assert.Equal(t, "attempt", e.ParsedAttempt)
	assert.Equal(t, "malformed", e.Kind.String())
	assert.Equal(t, "", e.KeywordString())

	var nilEval *Evaluation
	assert.False(t, nilEval.IsMalformed())
}
