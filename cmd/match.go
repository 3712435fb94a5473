package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/documents"
	"github.com/spigell/resume-matcher/internal/export"
	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/history"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/pipeline"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/textnorm"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowTable   = "Show ranked table"
	PromptEvaluate    = "Evaluate resumes with AI"
	PromptExport      = "Dump table to file"
	PromptExclude     = "Exclude a resume"
	PromptExit        = "Exit"
	PromptBack        = "back"
	PromptEvaluateAll = "All resumes in the table"

	manualExcludeReason = "excluded manually"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match [resume files or directories...]",
	Short: "Rank resumes against a job description",
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("jd", "", "job description source: a file path, an http(s) URL or - for stdin")
	matchCmd.Flags().String("jd-text", "", "job description text (used instead of --jd)")
	matchCmd.Flags().StringSliceP("resumes", "r", nil, "resume files or directories")
	matchCmd.Flags().BoolP("yes", "y", false, "do not prompt: print the table, run enabled steps and exit")
	matchCmd.Flags().Bool("ai", false, "enable AI evaluation of resumes")
	matchCmd.Flags().StringP("output", "o", "", "write the ranked table to this file (format from extension)")
	matchCmd.Flags().String("format", "", "format for dumped tables: csv, json or yaml")
	matchCmd.Flags().Int("top", 0, "keep only the best N resumes. 0 keeps all")
	matchCmd.Flags().Float64("min-score", 0, "drop resumes scoring below this value")
	matchCmd.Flags().StringP("exclude-file", "e", "", "special file with resumes to exclude. Default is unset.")
	matchCmd.Flags().Int("workers", 0, "parallel resume normalization workers")

	viper.BindPFlag("ai.enabled", matchCmd.Flags().Lookup("ai"))
	viper.BindPFlag("output.file", matchCmd.Flags().Lookup("output"))
	viper.BindPFlag("output.format", matchCmd.Flags().Lookup("format"))
	viper.BindPFlag("matching.top", matchCmd.Flags().Lookup("top"))
	viper.BindPFlag("matching.minimum-score", matchCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("matching.exclude-file", matchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("matching.workers", matchCmd.Flags().Lookup("workers"))
}

// session holds the state of one interactive matching run.
type session struct {
	config    *Config
	logger    *zap.Logger
	out       io.Writer
	jdText    string
	runID     string
	docs      map[string]pipeline.Document
	ranked    *matching.Table
	table     *matching.Table
	evaluator ai.Evaluator
	store     *history.Store
}

// match is the main command for the cli.
func match(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, config := prepare()

	logger.Info("starting the resume-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	model, err := textnorm.NewModel(textnorm.Config{
		Lemmatizer:     config.Normalization.Lemmatizer,
		MinTokenLength: config.Normalization.MinTokenLength,
		Stopwords:      config.Normalization.Stopwords,
		StopwordsFile:  config.Normalization.StopwordsFile,
	})
	if err != nil {
		logger.Fatal("loading normalization model", zap.Error(err))
	}

	loader := documents.NewLoader(documents.Options{
		KeepEmpty: config.Documents.KeepEmpty,
		UserAgent: config.Documents.UserAgent,
		Timeout:   config.Documents.Timeout,
	}, logger)

	jdText, err := loadJD(ctx, cmd, loader)
	if err != nil {
		logger.Fatal("loading job description",
			zap.Error(err),
			zap.String("hint", "pass --jd <path|url|-> or --jd-text"),
		)
	}

	paths, _ := cmd.Flags().GetStringSlice("resumes")
	docs, err := loader.LoadResumes(ctx, append(paths, args...))
	if err != nil {
		logger.Fatal("loading resumes", zap.Error(err))
	}

	logger.Info("resumes loaded", zap.Int("count", len(docs)))

	ranker := matching.NewRanker(model.Stopwords(), matching.Options{
		MaxSuggestions: config.Matching.MaxSuggestions,
		Vector:         matching.VectorOptions{SublinearTF: config.Matching.SublinearTF},
	})

	result, err := pipeline.New(model, ranker, pipeline.Options{Workers: config.Matching.Workers}, logger).Run(ctx, jdText, docs)
	if err != nil {
		if errors.Is(err, matching.ErrEmptyInput) {
			logger.Fatal("nothing to rank", zap.Error(err), zap.String("hint", "every resume was skipped, see warnings above"))
		}
		logger.Fatal("matching failed", zap.Error(err))
	}

	for _, skipped := range result.Skipped {
		logger.Warn("resume skipped", zap.String("resume", skipped.ID), zap.Error(skipped.Err))
	}

	s := &session{
		config: config,
		logger: logger.With(zap.String("run_id", result.RunID)),
		out:    os.Stdout,
		jdText: jdText,
		runID:  result.RunID,
		docs:   make(map[string]pipeline.Document, len(docs)),
		ranked: result.Table,
	}
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}

	if err := s.applyFilters(ctx); err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if config.History.Enabled {
		store, err := s.saveHistory(ctx)
		if err != nil {
			logger.Warn("saving run history", zap.Error(err))
		} else {
			s.store = store
			defer store.Close()
		}
	}

	if config.AI.Enabled {
		evaluator, err := newAIEvaluator(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping AI evaluation", zap.Error(err))
		} else {
			s.evaluator = evaluator
		}
	}

	if err := s.showTable(); err != nil {
		logger.Fatal("printing table", zap.Error(err))
	}

	if config.Output.File != "" {
		if err := export.WriteFile(config.Output.File, s.table); err != nil {
			logger.Fatal("writing output file", zap.Error(err))
		}
		logger.Info("ranked table written", zap.String("filename", config.Output.File))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		if s.evaluator != nil {
			if err := s.evaluate(ctx, s.table.Names()); err != nil {
				logger.Fatal("evaluating resumes", zap.Error(err))
			}
		}
		return
	}

	for {
		prompt := promptui.Select{
			Label: "What next?",
			Items: s.actions(),
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// prepare builds the logger and the configuration shared by all commands.
func prepare() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}

func loadJD(ctx context.Context, cmd *cobra.Command, loader *documents.Loader) (string, error) {
	if text, _ := cmd.Flags().GetString("jd-text"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	source, _ := cmd.Flags().GetString("jd")
	return loader.LoadJD(ctx, source)
}

func (s *session) actions() []string {
	items := []string{PromptShowTable}
	if s.evaluator != nil && s.table.Len() > 0 {
		items = append(items, PromptEvaluate)
	}
	items = append(items, PromptExport)
	if s.config.Matching.ExcludeFile != "" && s.table.Len() > 0 {
		items = append(items, PromptExclude)
	}
	return append(items, PromptExit)
}

func (s *session) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptShowTable:
		return s.showTable()
	case PromptEvaluate:
		names, err := s.selectResumes()
		if err != nil || len(names) == 0 {
			return err
		}
		return s.evaluate(ctx, names)
	case PromptExport:
		format, err := export.ParseFormat(s.config.Output.Format)
		if err != nil {
			return err
		}
		filename, err := export.DumpToTmpFile(s.table, format)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExclude:
		return s.exclude(ctx)
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) applyFilters(ctx context.Context) error {
	steps := filtering.DefaultSteps()
	cfg := &filtering.Config{
		MinimumScore: s.config.Matching.MinimumScore,
		Top:          s.config.Matching.Top,
		ExcludeFile:  s.config.Matching.ExcludeFile,
	}

	table, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: s.logger}, steps, s.ranked)
	if err != nil {
		return err
	}

	for _, status := range filtering.Describe(steps) {
		s.logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.Any("details", status.Details),
		)
	}

	s.table = table
	return nil
}

func (s *session) showTable() error {
	if s.table.Len() == 0 {
		s.logger.Info("no resumes left after filters")
		return nil
	}

	if err := export.WriteTable(s.out, s.table); err != nil {
		return err
	}

	best := s.table.Best()
	s.logger.Info("best match",
		zap.String(logger.FieldResume, best.Name),
		zap.Float64("score", best.Score),
		zap.Int("count", s.table.Len()),
	)
	return nil
}

func (s *session) selectResumes() ([]string, error) {
	items := append([]string{PromptEvaluateAll}, s.table.Names()...)

	resumePrompt := promptui.Select{
		Label: "Choose a resume and press ENTER",
		Items: append(items, PromptBack),
	}

	_, selected, err := resumePrompt.Run()
	if err != nil {
		return nil, err
	}

	switch selected {
	case PromptBack:
		return nil, nil
	case PromptEvaluateAll:
		return s.table.Names(), nil
	default:
		return []string{selected}, nil
	}
}

func (s *session) evaluate(ctx context.Context, names []string) error {
	docs := make([]pipeline.Document, 0, len(names))
	for _, name := range names {
		doc, ok := s.docs[name]
		if !ok {
			return fmt.Errorf("there is no such resume %s", name)
		}
		docs = append(docs, doc)
	}

	entries := ai.EvaluateSelected(ctx, s.evaluator, s.jdText, docs, s.logger)

	if err := printEvaluations(s.out, entries); err != nil {
		return err
	}

	if s.store == nil {
		return nil
	}
	for _, entry := range entries {
		if entry.Evaluation == nil {
			continue
		}
		if err := s.store.SaveEvaluation(ctx, s.runID, entry.ID, entry.Evaluation); err != nil {
			s.logger.Warn("saving evaluation to history", zap.String(logger.FieldResume, entry.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *session) exclude(ctx context.Context) error {
	resumePrompt := promptui.Select{
		Label: "Choose a resume to exclude and press ENTER",
		Items: append(s.table.Names(), PromptBack),
	}

	_, selected, err := resumePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	excludeFile := s.config.Matching.ExcludeFile
	excluded := filtering.NewExcludedResumes(s.table, manualExcludeReason, selected)
	if err := filtering.AppendToFile(excludeFile, excluded); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file",
		zap.String("filename", excludeFile),
		zap.String(logger.FieldResume, selected),
	)

	return s.applyFilters(ctx)
}

func (s *session) saveHistory(ctx context.Context) (*history.Store, error) {
	store, err := history.Open(ctx, s.config.History.Path)
	if err != nil {
		return nil, err
	}

	run := &history.Run{
		ID:        s.runID,
		JDExcerpt: s.jdText,
		Table:     s.ranked,
	}
	if err := store.Save(ctx, run); err != nil {
		store.Close()
		return nil, err
	}

	s.logger.Debug("run saved to history", zap.String("path", s.config.History.Path))
	return store, nil
}

func newAIEvaluator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Evaluator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (or set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries,
		log.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries)))
	if err != nil {
		return nil, err
	}

	generator.SetRequestsPerMinute(cfg.Gemini.RequestsPerMinute)

	evaluatorLogger := logger.WithFields(log, logger.CommonFields("gemini", generator.Model())...)

	evaluator := gemini.NewEvaluator(generator, cfg.Gemini.MaxLogLength, evaluatorLogger)
	evaluator.SetPromptOverrides(gemini.PromptOverrides{
		ExtraCriteria:    cfg.ExtraCriteria,
		CustomKeywords:   strings.Join(cfg.Keywords, ", "),
		UserInstructions: cfg.Instructions,
	})

	return evaluator, nil
}
