package svg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/component-visualizer/backend/internal/models"
)

func TestParseRulesMergesDefaults(t *testing.T) {
	in := strings.NewReader(`
idTokens:
  - leg
  - PIN
aliases:
  connector0: anode
`)
	rules, err := ParseRulesFromReader(in)
	if err != nil {
		t.Fatalf("ParseRulesFromReader: %v", err)
	}

	// Stock tokens survive, case-folded extras are appended once.
	for _, tok := range []string{"connector", "pin", "pad", "terminal", "leg"} {
		if !rules.hasToken(tok) {
			t.Errorf("token %q missing after merge", tok)
		}
	}
	count := 0
	for _, tok := range rules.IDTokens {
		if tok == "pin" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("token %q appears %d times", "pin", count)
	}
	if rules.Aliases["connector0"] != "anode" {
		t.Errorf("aliases = %v", rules.Aliases)
	}
}

func TestParseRulesEmptyFile(t *testing.T) {
	rules, err := ParseRulesFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseRulesFromReader: %v", err)
	}
	if len(rules.IDTokens) != len(DefaultRules().IDTokens) {
		t.Errorf("empty file changed defaults: %v", rules.IDTokens)
	}
}

func TestParseRulesBadYaml(t *testing.T) {
	if _, err := ParseRulesFromReader(strings.NewReader("idTokens: [unterminated")); err == nil {
		t.Fatal("expected error for broken yaml")
	}
}

func TestParseRulesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pinrules.yaml")
	if err := os.WriteFile(path, []byte("idTokens:\n  - anchor\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := ParseRules(path)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if !rules.hasToken("anchor") {
		t.Errorf("file token not loaded: %v", rules.IDTokens)
	}

	if _, err := ParseRules(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMatchesToken(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		id   string
		want bool
	}{
		{"connector0pin", true},
		{"Connector12terminal", true},
		{"solderPad3", true},
		{"body", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := rules.matchesToken(tt.id); got != tt.want {
			t.Errorf("matchesToken(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestAliasResolution(t *testing.T) {
	rules, err := ParseRulesFromReader(strings.NewReader("aliases:\n  connector0: anode\n"))
	if err != nil {
		t.Fatal(err)
	}

	doc := mustParse(t, `<svg viewBox="0 0 10 10">
  <circle id="anode" cx="3" cy="3" r="1"/>
</svg>`)
	decls := []models.ConnectorDeclaration{{ID: "connector0", Name: "anode"}}

	got := NewResolver(rules).Resolve(doc, decls, models.ViewBreadboard)
	if got[0].SvgID != "anode" {
		t.Fatalf("matched %q, want the aliased element", got[0].SvgID)
	}
	if got[0].Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %v, want medium", got[0].Confidence)
	}
}
