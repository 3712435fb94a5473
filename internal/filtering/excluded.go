package filtering

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/resume-matcher/internal/matching"
)

// ExcludedResumes is the content of an exclude file.
type ExcludedResumes struct {
	Items []*ExcludedResume
}

type ExcludedResume struct {
	Name       string
	Score      float64
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// NewExcludedResumes records the given rows of t as excluded now.
func NewExcludedResumes(t *matching.Table, reason string, names ...string) *ExcludedResumes {
	excluded := &ExcludedResumes{}
	now := time.Now().UTC()
	for _, name := range names {
		item := &ExcludedResume{Name: name, Reason: reason, ExcludedAt: now}
		if row := t.FindByName(name); row != nil {
			item.Score = row.Score
		}
		excluded.Items = append(excluded.Items, item)
	}
	return excluded
}

// GetExcludedResumesFromFile reads an exclude file. A missing or empty file
// yields an empty list.
func GetExcludedResumesFromFile(path string) (*ExcludedResumes, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedResumes{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedResumes{}, nil
	}

	var excluded ExcludedResumes
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds the items of s that are not excluded yet.
func (e *ExcludedResumes) Append(s *ExcludedResumes) {
	known := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		known[item.Name] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := known[item.Name]; ok {
			continue
		}
		known[item.Name] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedResumes) Names() []string {
	names := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		names = append(names, item.Name)
	}
	return names
}

func (e *ExcludedResumes) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return err
	}
	return nil
}

// AppendToFile merges s into the exclude file at path.
func AppendToFile(path string, s *ExcludedResumes) error {
	current, err := GetExcludedResumesFromFile(path)
	if err != nil {
		return err
	}
	current.Append(s)
	return current.ToFile(path)
}
