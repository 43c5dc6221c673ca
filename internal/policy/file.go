package policy

import (
	"fmt"
	"io"
	"os"

	"nullid/internal/domain"

	"gopkg.in/yaml.v3"
)

type fileRule struct {
	Pattern    string   `yaml:"pattern"`
	Principal  string   `yaml:"principal"`
	Operations []string `yaml:"operations"`
}

type fileTable struct {
	Rules []fileRule `yaml:"rules"`
}

// Load reads a table from YAML:
//
//	rules:
//	  - pattern: uploads/*
//	    principal: authenticated
//	    operations: [read, write]
func Load(r io.Reader) (*Table, error) {
	var ft fileTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ft); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}

	rules := make([]Rule, 0, len(ft.Rules))
	for _, fr := range ft.Rules {
		ops := make([]domain.Operation, 0, len(fr.Operations))
		for _, o := range fr.Operations {
			ops = append(ops, domain.Operation(o))
		}
		rules = append(rules, Rule{
			Pattern:    fr.Pattern,
			Principal:  domain.PrincipalClass(fr.Principal),
			Operations: ops,
		})
	}
	return NewTable(rules...)
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Marshal renders the table in the format accepted by Load.
func (t *Table) Marshal() ([]byte, error) {
	ft := fileTable{Rules: make([]fileRule, 0, len(t.rules))}
	for _, r := range t.rules {
		ops := make([]string, 0, len(r.Operations))
		for _, o := range r.Operations {
			ops = append(ops, string(o))
		}
		ft.Rules = append(ft.Rules, fileRule{Pattern: r.Pattern, Principal: string(r.Principal), Operations: ops})
	}
	return yaml.Marshal(ft)
}
