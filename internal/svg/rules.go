package svg

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules tunes pin-marker detection for SVG authoring conventions the
// built-in heuristics do not know about.
type Rules struct {
	// IDTokens are substrings that mark an element id as a pin marker.
	IDTokens []string `yaml:"idTokens"`
	// Aliases maps a logical connector id to the exact element id used
	// in a drawing, for catalogs whose descriptors and drawings disagree.
	Aliases map[string]string `yaml:"aliases"`
}

// DefaultRules returns the conventions used by stock fritzing parts.
func DefaultRules() *Rules {
	return &Rules{
		IDTokens: []string{"connector", "pin", "pad", "terminal"},
	}
}

// ParseRules parses a YAML rules file.
func ParseRules(filePath string) (*Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseRulesFromReader(file)
}

// ParseRulesFromReader parses rules from an io.Reader. Tokens from the
// file extend the defaults rather than replacing them.
func ParseRulesFromReader(r io.Reader) (*Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}

	merged := DefaultRules()
	for _, tok := range rules.IDTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" && !merged.hasToken(tok) {
			merged.IDTokens = append(merged.IDTokens, tok)
		}
	}
	merged.Aliases = rules.Aliases

	return merged, nil
}

func (r *Rules) hasToken(tok string) bool {
	for _, t := range r.IDTokens {
		if t == tok {
			return true
		}
	}
	return false
}

// matchesToken reports whether an element id looks like a pin marker.
func (r *Rules) matchesToken(id string) bool {
	if id == "" {
		return false
	}
	lower := strings.ToLower(id)
	for _, tok := range r.IDTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
