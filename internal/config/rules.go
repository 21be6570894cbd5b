// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/covera/internal/recommend"
)

// rulesDelim never appears in sub-sector labels, which may contain dots.
const rulesDelim = "\x1f"

// LoadRuleTable returns the built-in rule table when path is empty, or the
// table read from a YAML file of the form:
//
//	rules:
//	  "SANTE ET ACTION SOCIALE":
//	    - "ASSURANCE MALADIE"
//	    - "RESPONSABILITÉ CIVILE"
func LoadRuleTable(path string) (*recommend.RuleTable, error) {
	if path == "" {
		return recommend.DefaultRuleTable(), nil
	}

	k := koanf.New(rulesDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load rules file %s: %w", path, err)
	}

	var rules map[string][]string
	if err := k.Unmarshal("rules", &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no sub-sectors", path)
	}
	return recommend.NewRuleTable(rules), nil
}
