package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/history"
	"github.com/spigell/resume-matcher/internal/utils"
)

const rawPreviewLength = 300

func printEvaluations(w io.Writer, entries []ai.Entry) error {
	for _, entry := range entries {
		if err := printEvaluation(w, entry.ID, entry.Evaluation, entry.Err); err != nil {
			return err
		}
	}
	return nil
}

func printEvaluationRecords(w io.Writer, records []history.EvaluationRecord) error {
	for _, record := range records {
		if err := printEvaluation(w, record.Resume, record.Evaluation, nil); err != nil {
			return err
		}
	}
	return nil
}

// printEvaluation renders one AI result. It is shown next to the ranked
// table and never changes it.
func printEvaluation(w io.Writer, name string, e *ai.Evaluation, evalErr error) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n== %s ==\n", name)
	switch {
	case evalErr != nil:
		fmt.Fprintf(&b, "AI evaluation failed: %v\n", evalErr)
	case e == nil:
		b.WriteString("AI evaluation is missing\n")
	case e.IsMalformed():
		fmt.Fprintf(&b, "AI score: %d/100 (anomaly: %s)\n", e.Score, e.Summary)
		if raw := strings.TrimSpace(e.Raw); raw != "" {
			fmt.Fprintf(&b, "Raw response: %s\n", utils.TruncateForLog(raw, rawPreviewLength))
		}
	default:
		fmt.Fprintf(&b, "AI score: %d/100\n", e.Score)
		fmt.Fprintf(&b, "Summary: %s\n", e.Summary)
		if keywords := e.KeywordString(); keywords != "" {
			fmt.Fprintf(&b, "Suggested keywords: %s\n", keywords)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
