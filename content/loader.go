package content

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/lumafield/enginemesh/logging"
)

// defaultTemplate is the per-record markup sections render with unless
// overridden.
var defaultTemplate = template.Must(template.New("records").Parse(
	`<ul class="content-list">{{range .}}<li class="content-item"><h3>{{.Title}}</h3><p>{{.Description}}</p></li>{{end}}</ul>`))

// Loader renders a named content section from a source. The name appears
// verbatim in the user-visible error paragraph ("Error loading case
// studies."), so it should read naturally: "case studies", "projects".
type Loader struct {
	name     string
	source   Source
	template *template.Template
	logger   logging.Logger
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Template overrides the per-record markup. It is executed with the
	// []Record slice.
	Template *template.Template

	// Logger receives fetch failures. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithTemplate overrides the record markup.
func WithTemplate(t *template.Template) func(o *LoaderOptions) {
	return func(o *LoaderOptions) { o.Template = t }
}

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(l logging.Logger) func(o *LoaderOptions) {
	return func(o *LoaderOptions) { o.Logger = l }
}

// NewLoader creates a loader for the named section.
func NewLoader(name string, source Source, optFns ...func(o *LoaderOptions)) *Loader {
	opts := LoaderOptions{
		Template: defaultTemplate,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Loader{name: name, source: source, template: opts.Template, logger: opts.Logger}
}

// Name returns the section name.
func (l *Loader) Name() string { return l.name }

// Records fetches the current records from the source.
func (l *Loader) Records(ctx context.Context) ([]Record, error) {
	return l.source.Fetch(ctx)
}

// Render fetches the records and writes their markup to w. A source
// failure writes the error paragraph instead and returns the underlying
// error for callers that want to know; the page output stays intact either
// way.
func (l *Loader) Render(ctx context.Context, w io.Writer) error {
	records, err := l.source.Fetch(ctx)
	if err != nil {
		l.logger.Warn("content fetch failed section=%s err=%v", l.name, err)
		fmt.Fprintf(w, `<p class="content-error">Error loading %s.</p>`, template.HTMLEscapeString(l.name))
		return err
	}
	return l.template.Execute(w, records)
}
