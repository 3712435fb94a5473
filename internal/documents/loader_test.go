package documents

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadResumes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zoe.txt", "Go engineer\n\n with   Kubernetes")
	writeFile(t, dir, "adam.html", "<html><body><script>var x = 1;</script><h1>Data Scientist</h1><ul><li>Python</li><li>SQL</li></ul></body></html>")
	writeFile(t, dir, "notes.docx", "binary")
	writeFile(t, dir, ".hidden.txt", "secret")
	writeFile(t, dir, "blank.md", "   \n")
	writeFile(t, dir, "broken.pdf", "not a pdf at all")

	loader := NewLoader(Options{KeepEmpty: true}, zap.NewNop())
	docs, err := loader.LoadResumes(context.Background(), []string{dir})
	require.NoError(t, err)

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"adam.html", "blank.md", "zoe.txt"}, ids)

	assert.Equal(t, "Data Scientist\nPython\nSQL", docs[0].Text)
	assert.NotContains(t, docs[0].Text, "var x")
	assert.Equal(t, "", docs[1].Text)
	assert.Equal(t, "Go engineer with Kubernetes", docs[2].Text)
}

func TestLoadResumesDropsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", "")
	full := writeFile(t, dir, "full.txt", "python")

	loader := NewLoader(Options{KeepEmpty: false}, zap.NewNop())
	docs, err := loader.LoadResumes(context.Background(), []string{filepath.Join(dir, "blank.txt"), full})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "full.txt", docs[0].ID)
}

func TestLoadResumesErrors(t *testing.T) {
	loader := NewLoader(Options{}, zap.NewNop())

	_, err := loader.LoadResumes(context.Background(), []string{t.TempDir()})
	require.ErrorIs(t, err, ErrNoResumes)

	_, err = loader.LoadResumes(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoResumes)

	_, err = loader.LoadResumes(context.Background(), []string{filepath.Join(t.TempDir(), "missing.pdf")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadJDFromFileAndStdin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jd", "Looking for a data scientist")

	loader := NewLoader(Options{}, zap.NewNop())

	text, err := loader.LoadJD(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Looking for a data scientist", text)

	loader.Stdin = strings.NewReader("  Python\nSQL  ")
	text, err = loader.LoadJD(context.Background(), StdinSource)
	require.NoError(t, err)
	assert.Equal(t, "Python SQL", text)

	loader.Stdin = strings.NewReader(" \n ")
	_, err = loader.LoadJD(context.Background(), StdinSource)
	require.ErrorIs(t, err, ErrEmptyJD)

	_, err = loader.LoadJD(context.Background(), "")
	require.Error(t, err)
}

func TestLoadJDFromURL(t *testing.T) {
	var gotAgent, gotEncoding string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotEncoding = r.Header.Get("Accept-Encoding")

		switch r.URL.Path {
		case "/gzip":
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			_, _ = gz.Write([]byte("<html><body><p>Go developer</p><p>gRPC</p></body></html>"))
			_ = gz.Close()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("Rust engineer"))
		case "/latin1":
			w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
			_, _ = w.Write([]byte("Caf\xe9 manager"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(Options{UserAgent: "tester/0.1"}, zap.NewNop())
	loader.HTTPClient = server.Client()
	// Let the loader handle gzip itself instead of the transport.
	loader.HTTPClient.Transport = &http.Transport{DisableCompression: true}

	text, err := loader.LoadJD(context.Background(), server.URL+"/gzip")
	require.NoError(t, err)
	assert.Equal(t, "Go developer\ngRPC", text)
	assert.Equal(t, "tester/0.1", gotAgent)
	assert.Equal(t, "gzip", gotEncoding)

	text, err = loader.LoadJD(context.Background(), server.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "Rust engineer", text)

	text, err = loader.LoadJD(context.Background(), server.URL+"/latin1")
	require.NoError(t, err)
	assert.Equal(t, "Café manager", text)

	_, err = loader.LoadJD(context.Background(), server.URL+"/missing")
	require.ErrorContains(t, err, "bad status")
}

func TestExtract(t *testing.T) {
	_, err := Extract(FormatPDF, []byte("garbage"))
	require.Error(t, err)

	_, err = Extract(Format("docx"), nil)
	require.Error(t, err)

	text, err := Extract(FormatHTML, []byte("<div>only <b>body</b> text</div>"))
	require.NoError(t, err)
	assert.Equal(t, "only body text", text)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"cv.PDF":       FormatPDF,
		"page.htm":     FormatHTML,
		"readme.md":    FormatText,
		"https://x/jd": "",
	}
	for path, expect := range tests {
		got, ok := FormatFromPath(path)
		assert.Equal(t, expect != "", ok, path)
		assert.Equal(t, expect, got, path)
	}

	assert.Equal(t, FormatHTML, formatFromContentType("text/html; charset=utf-8"))
	assert.Equal(t, FormatPDF, formatFromContentType("application/pdf"))
	assert.Equal(t, FormatText, formatFromContentType(""))
}

func TestExtractHTMLKeepsAllBlocks(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "div and span text next to paragraphs",
			input:  "<div>Senior Kubernetes engineer wanted</div><div><span>Terraform required</span></div><p>Nice office.</p>",
			expect: "Senior Kubernetes engineer wanted\nTerraform required\nNice office.",
		},
		{
			name:   "nested table in list item is read once",
			input:  "<ul><li><table><tr><td>Golang</td><td>gRPC</td></tr></table></li></ul>",
			expect: "Golang\ngRPC",
		},
		{
			name:   "inline markup stays on its line",
			input:  "<section><h2>Skills</h2>Python, <b>SQL</b> and <i>Spark</i><br>Airflow</section>",
			expect: "Skills\nPython, SQL and Spark\nAirflow",
		},
		{
			name:   "head and comments are ignored",
			input:  "<html><head><title>CV</title></head><body><!-- hidden --><div>Go</div></body></html>",
			expect: "Go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(FormatHTML, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expect, text)
		})
	}
}

func TestExtractPDF(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "resume.pdf"))
	require.NoError(t, err)

	text, err := Extract(FormatPDF, data)
	require.NoError(t, err)
	assert.Equal(t, "Go engineer with Kubernetes and Terraform experience", text)
}

func TestLoadResumesReadsPDF(t *testing.T) {
	loader := NewLoader(Options{}, zap.NewNop())

	docs, err := loader.LoadResumes(context.Background(), []string{filepath.Join("testdata", "resume.pdf")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "resume.pdf", docs[0].ID)
	assert.Contains(t, docs[0].Text, "Kubernetes")
	assert.Contains(t, docs[0].Text, "Terraform")
}
