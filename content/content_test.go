package content

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/internal/testutil"
)

const caseStudiesJSON = `[
	{"title": "Redesign", "description": "A full site redesign.", "year": 2024, "stack": ["go"]},
	{"title": "Migration", "description": "Moving the data layer."}
]`

func newTestTemplate(t *testing.T, text string) *template.Template {
	t.Helper()
	tmpl, err := template.New("test").Parse(text)
	require.NoError(t, err)
	return tmpl
}

func writeContentFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case-studies.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestFileSource_Fetch(t *testing.T) {
	src := FileSource{Path: writeContentFile(t, caseStudiesJSON)}

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Redesign", records[0].Title)
	assert.Equal(t, "A full site redesign.", records[0].Description)
}

func TestRecord_ExtraFieldsPreserved(t *testing.T) {
	src := FileSource{Path: writeContentFile(t, caseStudiesJSON)}

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(2024), records[0].Extra["year"])
	assert.Equal(t, []any{"go"}, records[0].Extra["stack"])
	assert.NotContains(t, records[0].Extra, "title")
	assert.Nil(t, records[1].Extra, "records without extra fields keep a nil map")
}

func TestFileSource_MissingFile(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}

	_, err := src.Fetch(context.Background())
	assert.True(t, core.HasCode(err, core.CodeContentUnavailable))
}

func TestFileSource_MalformedJSON(t *testing.T) {
	src := FileSource{Path: writeContentFile(t, "{not an array")}

	_, err := src.Fetch(context.Background())
	assert.True(t, core.HasCode(err, core.CodeContentUnavailable))
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(caseStudiesJSON))
	}))
	defer srv.Close()

	src := HTTPSource{URL: srv.URL, Client: srv.Client()}

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := HTTPSource{URL: srv.URL, Client: srv.Client()}

	_, err := src.Fetch(context.Background())
	assert.True(t, core.HasCode(err, core.CodeContentUnavailable))
}

func TestFromSpec(t *testing.T) {
	src, err := FromSpec("data.json", "")
	require.NoError(t, err)
	assert.IsType(t, FileSource{}, src)

	src, err = FromSpec("", "https://example.com/data.json")
	require.NoError(t, err)
	assert.IsType(t, HTTPSource{}, src)

	_, err = FromSpec("data.json", "https://example.com/data.json")
	assert.Error(t, err)

	_, err = FromSpec("", "")
	assert.Error(t, err)
}

func TestRender_WritesRecordMarkup(t *testing.T) {
	loader := NewLoader("case studies", FileSource{Path: writeContentFile(t, caseStudiesJSON)})

	var out strings.Builder
	require.NoError(t, loader.Render(context.Background(), &out))

	html := out.String()
	assert.Contains(t, html, `<ul class="content-list">`)
	assert.Contains(t, html, "<h3>Redesign</h3>")
	assert.Contains(t, html, "<p>Moving the data layer.</p>")
}

func TestRender_FailureWritesErrorParagraph(t *testing.T) {
	logger := testutil.NewCapturingLogger()
	loader := NewLoader("case studies",
		FileSource{Path: filepath.Join(t.TempDir(), "absent.json")},
		WithLoaderLogger(logger))

	var out strings.Builder
	err := loader.Render(context.Background(), &out)

	assert.Error(t, err)
	assert.Equal(t, `<p class="content-error">Error loading case studies.</p>`, out.String())
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestRender_CustomTemplate(t *testing.T) {
	tmpl := newTestTemplate(t, `{{range .}}[{{.Title}}]{{end}}`)
	loader := NewLoader("projects",
		FileSource{Path: writeContentFile(t, caseStudiesJSON)},
		WithTemplate(tmpl))

	var out strings.Builder
	require.NoError(t, loader.Render(context.Background(), &out))
	assert.Equal(t, "[Redesign][Migration]", out.String())
}

func TestRender_EscapesRecordContent(t *testing.T) {
	data := `[{"title": "<script>alert(1)</script>", "description": "safe"}]`
	loader := NewLoader("projects", FileSource{Path: writeContentFile(t, data)})

	var out strings.Builder
	require.NoError(t, loader.Render(context.Background(), &out))
	assert.NotContains(t, out.String(), "<script>")
}
