package fetch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source names one law to crawl.
type Source struct {
	LawID string `yaml:"law_id"`
	Name  string `yaml:"name,omitempty"`
	// Scope overrides the token scope for this law's sections. Empty means
	// use the law ID.
	Scope string `yaml:"scope,omitempty"`
}

// TokenScope returns the scope to tokenize this law's sections under.
func (s Source) TokenScope() string {
	if s.Scope != "" {
		return s.Scope
	}
	return s.LawID
}

type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the YAML crawl list.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources %s: no laws listed", path)
	}
	for i, s := range f.Sources {
		if s.LawID == "" {
			return nil, fmt.Errorf("sources %s: entry %d missing law_id", path, i)
		}
	}
	return f.Sources, nil
}
