// Package content loads the static JSON records that drive the site's
// content sections (case studies, projects, writings) and renders them into
// HTML. A failing source degrades to the literal "Error loading <name>."
// paragraph instead of propagating the failure to the page.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/lumafield/enginemesh/core"
)

// Record is one content item. Sources deliver arrays of these; unknown
// fields beyond title/description are preserved in Extra.
type Record struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Extra       map[string]any `json:"-"`
}

// UnmarshalJSON captures title and description and stashes every other
// field in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["title"]; ok {
		if err := json.Unmarshal(v, &r.Title); err != nil {
			return err
		}
		delete(raw, "title")
	}
	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &r.Description); err != nil {
			return err
		}
		delete(raw, "description")
	}

	if len(raw) > 0 {
		r.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return err
			}
			r.Extra[k] = value
		}
	}
	return nil
}

// Source supplies content records.
type Source interface {
	// Fetch returns the current records. Failures are wrapped in a
	// CONTENT_UNAVAILABLE error.
	Fetch(ctx context.Context) ([]Record, error)
}

// FileSource reads records from a JSON file on disk.
type FileSource struct {
	Path string
}

// Fetch reads and decodes the file.
func (s FileSource) Fetch(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, core.NewError(core.CodeContentUnavailable, "read %s: %v", s.Path, err)
	}
	return decodeRecords(data, s.Path)
}

// HTTPSource fetches records from a URL. A nil Client uses
// http.DefaultClient.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch performs the GET and decodes the body.
func (s HTTPSource) Fetch(ctx context.Context) ([]Record, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, core.NewError(core.CodeContentUnavailable, "request %s: %v", s.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.NewError(core.CodeContentUnavailable, "fetch %s: %v", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewError(core.CodeContentUnavailable, "fetch %s: status %d", s.URL, resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, core.NewError(core.CodeContentUnavailable, "decode %s: %v", s.URL, err)
	}
	return records, nil
}

func decodeRecords(data []byte, origin string) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, core.NewError(core.CodeContentUnavailable, "decode %s: %v", origin, err)
	}
	return records, nil
}

// FromSpec builds a Source from a declarative name/path/url triple such as
// the mesh config's content section.
func FromSpec(path, url string) (Source, error) {
	switch {
	case path != "" && url != "":
		return nil, fmt.Errorf("content source: path and url are mutually exclusive")
	case path != "":
		return FileSource{Path: path}, nil
	case url != "":
		return HTTPSource{URL: url}, nil
	default:
		return nil, fmt.Errorf("content source: path or url required")
	}
}
