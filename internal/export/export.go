// Package export writes ranked tables as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-matcher/internal/matching"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Header is the column order shared by every format.
var Header = []string{"Resume Name", "Match Score (%)", "Suggested Keywords"}

// Row is the exported shape of one ranked result.
type Row struct {
	Name        string  `json:"resume_name" yaml:"resume_name"`
	Score       float64 `json:"match_score" yaml:"match_score"`
	Suggestions string  `json:"suggested_keywords" yaml:"suggested_keywords"`
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", false
	}
	format, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return format, true
}

func Rows(t *matching.Table) []Row {
	rows := make([]Row, 0, t.Len())
	if t == nil {
		return rows
	}
	for _, r := range t.Rows {
		rows = append(rows, Row{Name: r.Name, Score: r.Score, Suggestions: r.SuggestionString()})
	}
	return rows
}

// Write encodes t to w in the given format.
func Write(w io.Writer, format Format, t *matching.Table) error {
	switch format {
	case FormatCSV, "":
		return writeCSV(w, t)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Rows(t))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Rows(t)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteFile writes t to path in the format given by the extension, or CSV when
// the extension is unknown.
func WriteFile(path string, t *matching.Table) error {
	format, ok := FormatFromPath(path)
	if !ok {
		format = FormatCSV
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := Write(file, format, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// DumpToTmpFile writes t into a new temporary file and returns its path.
func DumpToTmpFile(t *matching.Table, format Format) (string, error) {
	if format == "" {
		format = FormatCSV
	}

	file, err := os.CreateTemp("", "resume_match_scores_*."+string(format))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := Write(file, format, t); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// WriteTable renders t as an aligned plain-text table for terminals.
func WriteTable(w io.Writer, t *matching.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(Header, "\t"))
	for i, row := range Rows(t) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, row.Name, formatScore(row.Score), row.Suggestions)
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, t *matching.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range Rows(t) {
		if err := cw.Write([]string{row.Name, formatScore(row.Score), row.Suggestions}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}
