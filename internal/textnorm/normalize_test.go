package textnorm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	model, err := NewModel(cfg)
	require.NoError(t, err)
	return model
}

func TestNormalize_Basic(t *testing.T) {
	model := newTestModel(t, Config{})

	out, err := model.Normalize("Running servers with Python and SQL!")
	require.NoError(t, err)
	assert.Equal(t, NormalizedText{"run", "server", "python", "sql"}, out)
	assert.Equal(t, "run server python sql", out.String())
}

func TestNormalize_EmptyAndGarbage(t *testing.T) {
	model := newTestModel(t, Config{})

	for _, input := range []string{"", "   \n\t", "!!! ??? ...", "12 3.5 1,000 ten", "\xff\xfe\xfd"} {
		out, err := model.Normalize(input)
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, out, "input %q", input)
	}
}

func TestNormalize_AdmissionPolicy(t *testing.T) {
	model := newTestModel(t, Config{})

	out, err := model.Normalize("We are looking for 5 engineers in AI, ML and Kubernetes")
	require.NoError(t, err)

	assert.NotContains(t, out, "we")
	assert.NotContains(t, out, "are")
	assert.NotContains(t, out, "5")
	assert.NotContains(t, out, "ai")
	assert.NotContains(t, out, "ml")
	assert.Contains(t, out, lemmaOf(model.lemmatizer, "engineers"))
	assert.Contains(t, out, "look")
	for _, token := range out {
		assert.GreaterOrEqual(t, len([]rune(token)), DefaultMinTokenLength)
		assert.Equal(t, strings.ToLower(token), token)
	}
}

func TestNormalize_RejectsOrdinals(t *testing.T) {
	model := newTestModel(t, Config{})

	out, err := model.Normalize("Placed 1st and 2nd, 3rd on the 21st hackathon")
	require.NoError(t, err)

	for _, ordinal := range []string{"1st", "2nd", "3rd", "21st"} {
		assert.NotContains(t, out, ordinal)
	}
	assert.Contains(t, out, lemmaOf(model.lemmatizer, "hackathon"))
}

func TestNormalize_IrregularForms(t *testing.T) {
	model := newTestModel(t, Config{Lemmatizer: LemmatizerNone})

	out, err := model.Normalize("She taught children and wrote reports")
	require.NoError(t, err)
	assert.Equal(t, NormalizedText{"teach", "child", "write", "reports"}, out)
}

func TestNormalize_MergesInflectedForms(t *testing.T) {
	model := newTestModel(t, Config{})

	groups := [][]string{
		{"experience", "experienced", "experiences", "experiencing"},
		{"reference", "referenced", "referencing"},
		{"work", "worked", "working", "works"},
		{"manage", "managed", "managing"},
	}

	for _, group := range groups {
		want, err := model.Normalize(group[0])
		require.NoError(t, err)
		require.Len(t, want, 1, group[0])

		for _, word := range group[1:] {
			got, err := model.Normalize(word)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s and %s", group[0], word)
		}
	}
}

func TestNormalize_KeepsProgrammingLanguageSuffixes(t *testing.T) {
	model := newTestModel(t, Config{})

	out, err := model.Normalize("Strong C++ background")
	require.NoError(t, err)
	assert.Contains(t, out, "c++")
}

func TestNormalize_Idempotent(t *testing.T) {
	model := newTestModel(t, Config{})

	inputs := []string{
		"Looking for a data scientist with Python and SQL experience.",
		"Experienced data scientist skilled in Python and SQL.",
		"Graphic designer with Photoshop skills.",
		"Über-naïve résumé; v1.2 releases, C++ & C# developers (2019-2024)",
		"Пожалуйста используйте русский язык. 必要に応じて日本語。",
		"generously generalizing organizational operationalization",
		"Experienced engineer referenced and experiencing speedy needed processing",
	}

	for _, input := range inputs {
		first, err := model.Normalize(input)
		require.NoError(t, err)

		second, err := model.Normalize(first.String())
		require.NoError(t, err)

		assert.Equal(t, first, second, "input %q", input)
	}
}

func TestNormalize_Unicode(t *testing.T) {
	model := newTestModel(t, Config{})

	out, err := model.Normalize("Ｐｙｔｈｏｎ ＤＥＶＥＬＯＰＥＲ 日本語 Ärzte")
	require.NoError(t, err)
	assert.Contains(t, out, "python")
	assert.NotEmpty(t, out)
}

func TestNormalize_ExtraStopwords(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(file, []byte("# custom\nkubernetes\n"), 0o644))

	model := newTestModel(t, Config{Stopwords: []string{" Python "}, StopwordsFile: file})

	out, err := model.Normalize("python kubernetes terraform")
	require.NoError(t, err)
	assert.Equal(t, NormalizedText{"terraform"}, out)
	assert.True(t, model.Stopwords().Contains("python"))
}

func TestNormalize_MinTokenLength(t *testing.T) {
	model := newTestModel(t, Config{MinTokenLength: 6})

	out, err := model.Normalize("python sql terraform")
	require.NoError(t, err)
	assert.Equal(t, NormalizedText{"python", "terraform"}, out)
	assert.Equal(t, 6, model.Policy().MinLength)
}

func TestNewModel_Errors(t *testing.T) {
	_, err := NewModel(Config{Lemmatizer: "spacy"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNormalization))

	_, err = NewModel(Config{StopwordsFile: filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)

	var normErr *NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "load stopwords", normErr.Message)
}

func TestNormalize_NilModel(t *testing.T) {
	var model *Model
	_, err := model.Normalize("text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNormalization)
}

func TestNormalizedTextSet(t *testing.T) {
	set := NormalizedText{"python", "sql", "python"}.Set()
	assert.Len(t, set, 2)
	assert.Contains(t, set, "sql")
}
