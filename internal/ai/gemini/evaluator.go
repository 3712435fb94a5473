package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 500
	noneValue               = "none"

	systemInstruction = "You are an AI hiring assistant. You compare a candidate resume with a job description " +
		"and answer strictly with the JSON object requested by the user message."
)

// PromptOverrides carries optional user preferences rendered into the prompt.
type PromptOverrides struct {
	ExtraCriteria    string
	CustomKeywords   string
	UserInstructions string
}

// Evaluator implements ai.Evaluator on top of Gemini.
type Evaluator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

var _ ai.Evaluator = (*Evaluator)(nil)

func NewEvaluator(generator contentGenerator, maxLogLength int, log *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) SetPromptOverrides(overrides PromptOverrides) {
	e.overrides = overrides
}

// Evaluate asks Gemini to score resumeText against jdText. Responses that are
// not valid JSON yield an ai.KindMalformed evaluation and no error.
func (e *Evaluator) Evaluate(ctx context.Context, jdText, resumeText string) (*ai.Evaluation, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("gemini generator is required")
	}

	prompt := e.buildPrompt(jdText, resumeText)

	e.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	evaluation := parseResponse(raw)
	if evaluation.IsMalformed() {
		e.logger.Debug("gemini response is not valid JSON",
			zap.String("parsed_attempt", utils.TruncateForLog(evaluation.ParsedAttempt, e.maxLogLen)),
		)
	}
	return evaluation, nil
}

func (e *Evaluator) buildPrompt(jdText, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JD_TEXT}}\n\nResume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{EXTRA_CRITERIA}}", orNone(sanitizeLine(e.overrides.ExtraCriteria)),
		"{{CUSTOM_KEYWORDS}}", orNone(sanitizeKeywords(e.overrides.CustomKeywords)),
		"{{USER_INSTRUCTIONS}}", userInstructionsBlock(e.overrides.UserInstructions),
		"{{JD_TEXT}}", strings.TrimSpace(jdText),
		"{{RESUME_TEXT}}", strings.TrimSpace(resumeText),
	)
	return replacer.Replace(template)
}

// sanitizeLine flattens value onto one line with square brackets replaced by
// parentheses.
func sanitizeLine(value string) string {
	value = neutralizeBrackets(value)
	return strings.Join(strings.Fields(value), " ")
}

func sanitizeKeywords(value string) string {
	parts := strings.Split(neutralizeBrackets(value), ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if keyword := strings.Join(strings.Fields(part), " "); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return strings.Join(keywords, ", ")
}

// userInstructionsBlock renders free-form instructions as an indented list,
// one entry per non-empty line, truncated to maxUserInstructionRunes.
func userInstructionsBlock(value string) string {
	value = neutralizeBrackets(strings.ReplaceAll(value, "\r\n", "\n"))

	budget := maxUserInstructionRunes
	var lines []string
	for _, line := range strings.Split(value, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if budget <= 0 {
			break
		}
		runes := []rune(line)
		if len(runes) > budget {
			runes = runes[:budget]
		}
		budget -= len(runes)
		lines = append(lines, "  - "+string(runes))
	}

	if len(lines) == 0 {
		return "  - " + noneValue
	}
	return strings.Join(lines, "\n")
}

func neutralizeBrackets(value string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(value)
}

func orNone(value string) string {
	if value == "" {
		return noneValue
	}
	return value
}

type responsePayload struct {
	Score   float64 `mapstructure:"score"`
	Summary string  `mapstructure:"summary"`
}

func parseResponse(raw string) *ai.Evaluation {
	attempt := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(attempt), &data); err != nil {
		return ai.Malformed(raw, attempt)
	}

	var payload responsePayload
	if err := mapstructure.WeakDecode(data, &payload); err != nil {
		return ai.Malformed(raw, attempt)
	}
	if math.IsNaN(payload.Score) {
		return ai.Malformed(raw, attempt)
	}

	return &ai.Evaluation{
		Kind:              ai.KindParsed,
		Score:             clampScore(payload.Score),
		Summary:           strings.TrimSpace(payload.Summary),
		SuggestedKeywords: coerceKeywords(data["suggested_keywords"]),
		Raw:               raw,
	}
}

// extractJSON strips Markdown code fences and keeps the text between the
// first '{' and the last '}'.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.IndexAny(text, " \t\r\n"); idx != -1 && !strings.ContainsAny(text[:idx], "{[\"") {
			text = text[idx:]
		}
		text = strings.TrimSpace(text)
		if strings.HasSuffix(text, "```") {
			text = strings.TrimSpace(text[:strings.LastIndex(text, "```")])
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		text = text[first : last+1]
	}
	return text
}

func clampScore(score float64) int {
	switch {
	case score <= 0:
		return 0
	case score >= 100:
		return 100
	default:
		return int(score)
	}
}

func coerceKeywords(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	keywords := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if keyword := strings.TrimSpace(fmt.Sprint(item)); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
