// Package documents reads job descriptions and resumes from files, stdin or
// URLs and converts them into plain text.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/pipeline"
)

const (
	DefaultUserAgent = "resume-matcher/1.0"
	DefaultTimeout   = 15 * time.Second
	// StdinSource selects standard input as the job description source.
	StdinSource = "-"
)

var (
	ErrNoResumes = errors.New("no resumes found")
	ErrEmptyJD   = errors.New("job description is empty")
)

type Options struct {
	KeepEmpty bool
	UserAgent string
	Timeout   time.Duration
}

// Loader reads documents for one run.
type Loader struct {
	HTTPClient *http.Client
	UserAgent  string
	Stdin      io.Reader

	keepEmpty bool
	logger    *zap.Logger
}

func NewLoader(opts Options, log *zap.Logger) *Loader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Loader{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		Stdin:      os.Stdin,
		keepEmpty:  opts.KeepEmpty,
		logger:     logger.WithFields(log),
	}
}

// LoadJD returns the text of the job description at source: a file path,
// StdinSource or an http(s) URL.
func (l *Loader) LoadJD(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)

	var (
		text string
		err  error
	)
	switch {
	case source == "":
		return "", errors.New("job description source is required")
	case source == StdinSource:
		text, err = l.readStdin()
	case isURL(source):
		text, err = l.loadURL(ctx, source)
	default:
		text, err = l.loadFile(source, FormatText)
	}
	if err != nil {
		return "", fmt.Errorf("load job description from %q: %w", source, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyJD
	}

	l.logger.Debug("job description loaded",
		zap.String("source", source),
		zap.Int("length", len(text)),
	)
	return text, nil
}

// LoadResumes reads every supported file in paths, expanding directories one
// level deep. Documents are identified by base name and sorted by it.
func (l *Loader) LoadResumes(ctx context.Context, paths []string) ([]pipeline.Document, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	docs := make([]pipeline.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		format, ok := FormatFromPath(path)
		if !ok {
			l.logger.Debug("skip unsupported file", zap.String("path", path))
			continue
		}

		text, err := l.loadFile(path, format)
		if err != nil {
			l.logger.Warn("skip unreadable resume", zap.String("path", path), zap.Error(err))
			continue
		}

		if strings.TrimSpace(text) == "" {
			if !l.keepEmpty {
				l.logger.Info("skip resume without text", zap.String("path", path))
				continue
			}
			l.logger.Warn("resume has no extractable text", zap.String("path", path))
		}

		docs = append(docs, pipeline.Document{ID: filepath.Base(path), Text: text})
	}

	if len(docs) == 0 {
		return nil, ErrNoResumes
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	l.logger.Info("resumes loaded", zap.Int("count", len(docs)))
	return docs, nil
}

func (l *Loader) loadFile(path string, fallback Format) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	format, ok := FormatFromPath(path)
	if !ok {
		format = fallback
	}
	return Extract(format, data)
}

func (l *Loader) loadURL(ctx context.Context, url string) (string, error) {
	data, contentType, err := l.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	format, ok := FormatFromPath(url)
	if !ok {
		format = formatFromContentType(contentType)
	}
	if format != FormatPDF {
		if data, err = decodeCharset(data, contentType); err != nil {
			return "", err
		}
	}
	return Extract(format, data)
}

func (l *Loader) readStdin() (string, error) {
	if l.Stdin == nil {
		return "", errors.New("stdin is not available")
	}
	data, err := io.ReadAll(l.Stdin)
	if err != nil {
		return "", err
	}
	return normalizeWhitespace(string(data)), nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// expand resolves directories into their regular files. Hidden files are ignored.
func expand(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("resume path %q: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read resume directory %q: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if entry.Type()&fs.ModeType != 0 && entry.Type()&fs.ModeSymlink == 0 {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}
