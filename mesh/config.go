package mesh

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumafield/enginemesh/engine"
)

// EngineSpec declares one engine in a mesh config file.
type EngineSpec struct {
	Name       string `yaml:"name"`
	HistoryCap *int   `yaml:"history_cap,omitempty"`
	Overwrite  *bool  `yaml:"overwrite,omitempty"`
}

// LinkConfig declares one synergy link in a mesh config file. Rule names
// are resolved against the rule set passed to FromConfig; an empty rule
// produces a notification-only link.
type LinkConfig struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
	Rule    string `yaml:"rule,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// ContentSpec declares one static content source in a mesh config file.
// Exactly one of Path or URL should be set; the content package consumes
// these specs.
type ContentSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// Config is the YAML shape wiring a mesh: engines, synergy links and
// static content sources.
type Config struct {
	Engines []EngineSpec  `yaml:"engines"`
	Links   []LinkConfig  `yaml:"links,omitempty"`
	Content []ContentSpec `yaml:"content,omitempty"`
}

// LoadConfig parses a mesh config from YAML.
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mesh config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mesh config: %w", err)
	}
	return &cfg, nil
}

// FromConfig builds a Mesh from a parsed config. Link rules are resolved by
// name from the rules map; an unknown rule name fails construction, while
// an empty rule field yields a notification-only link.
func FromConfig(cfg *Config, rules map[string]Rule, optFns ...func(o *Options)) (*Mesh, error) {
	m := New(optFns...)

	for _, spec := range cfg.Engines {
		if spec.Name == "" {
			return nil, fmt.Errorf("mesh config: engine with empty name")
		}
		engineOpts := []func(o *engine.Options){}
		if spec.HistoryCap != nil {
			engineOpts = append(engineOpts, engine.WithHistoryCap(*spec.HistoryCap))
		}
		if spec.Overwrite != nil {
			engineOpts = append(engineOpts, engine.WithOverwrite(*spec.Overwrite))
		}
		if _, err := m.AddEngine(spec.Name, engineOpts...); err != nil {
			return nil, err
		}
	}

	for _, lc := range cfg.Links {
		spec := LinkSpec{Name: lc.Name, Source: lc.Source, Target: lc.Target}

		if lc.Rule != "" {
			rule, ok := rules[lc.Rule]
			if !ok {
				return nil, fmt.Errorf("mesh config: link %q references unknown rule %q", lc.Name, lc.Rule)
			}
			spec.Rule = rule
		}
		if lc.Timeout != "" {
			timeout, err := time.ParseDuration(lc.Timeout)
			if err != nil {
				return nil, fmt.Errorf("mesh config: link %q has invalid timeout: %w", lc.Name, err)
			}
			spec.Timeout = timeout
		}

		if err := m.AddLink(spec); err != nil {
			return nil, err
		}
	}

	return m, nil
}
