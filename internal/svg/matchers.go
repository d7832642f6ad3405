package svg

import (
	"strings"

	"github.com/component-visualizer/backend/internal/models"
)

// pinMatcher is one strategy for binding a declaration to a candidate.
// Strategies run in a fixed order; the first hit wins, so new authoring
// conventions slot in without disturbing resolution order guarantees.
//
// Match returns an index into pins, or -1. Implementations must skip
// claimed pins: contention between declarations is settled strictly
// first-declaration-wins.
type pinMatcher interface {
	Name() string
	Confidence() models.Confidence
	Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int
}

func newMatcherChain(rules *Rules) []pinMatcher {
	return []pinMatcher{
		terminalMatcher{},
		svgIDMatcher{},
		aliasMatcher{rules: rules},
		conventionMatcher{},
		nameMatcher{},
		unclaimedMatcher{},
	}
}

func findUnclaimedID(id string, pins []Pin, claimed []bool) int {
	if id == "" {
		return -1
	}
	for i, p := range pins {
		if !claimed[i] && p.SvgID == id {
			return i
		}
	}
	return -1
}

// terminalMatcher matches the declared terminalId. Terminals are the
// most precise anchor fritzing drawings offer, so they outrank the pin
// shape itself.
type terminalMatcher struct{}

func (terminalMatcher) Name() string                  { return "terminal-id" }
func (terminalMatcher) Confidence() models.Confidence { return models.ConfidenceHigh }

func (terminalMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	ref, ok := decl.Refs[view]
	if !ok {
		return -1
	}
	return findUnclaimedID(ref.TerminalID, pins, claimed)
}

// svgIDMatcher matches the declared svgId exactly.
type svgIDMatcher struct{}

func (svgIDMatcher) Name() string                  { return "svg-id" }
func (svgIDMatcher) Confidence() models.Confidence { return models.ConfidenceHigh }

func (svgIDMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	ref, ok := decl.Refs[view]
	if !ok {
		return -1
	}
	return findUnclaimedID(ref.SvgID, pins, claimed)
}

// aliasMatcher consults the rules file for catalogs whose drawings and
// descriptors disagree on element ids.
type aliasMatcher struct {
	rules *Rules
}

func (aliasMatcher) Name() string                  { return "alias" }
func (aliasMatcher) Confidence() models.Confidence { return models.ConfidenceMedium }

func (m aliasMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	return findUnclaimedID(m.rules.Aliases[decl.ID], pins, claimed)
}

// conventionMatcher derives the marker id from the logical connector id
// the way stock fritzing drawings do ("connector0" -> "connector0pin").
type conventionMatcher struct{}

func (conventionMatcher) Name() string                  { return "convention" }
func (conventionMatcher) Confidence() models.Confidence { return models.ConfidenceMedium }

func (conventionMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	for _, id := range []string{decl.ID + "pin", decl.ID + "terminal", decl.ID, decl.ID + "pad"} {
		if i := findUnclaimedID(id, pins, claimed); i >= 0 {
			return i
		}
	}
	return -1
}

// nameMatcher matches a declaration's human-readable name against a
// marker's id or label.
type nameMatcher struct{}

func (nameMatcher) Name() string                  { return "name-similarity" }
func (nameMatcher) Confidence() models.Confidence { return models.ConfidenceMedium }

func (nameMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	name := strings.ToLower(strings.TrimSpace(decl.Name))
	// Single-character names ("1", "A") collide with too many ids.
	if len(name) < 2 {
		return -1
	}
	for i, p := range pins {
		if claimed[i] {
			continue
		}
		if strings.Contains(strings.ToLower(p.SvgID), name) {
			return i
		}
		if p.label != "" && strings.EqualFold(p.label, name) {
			return i
		}
	}
	return -1
}

// unclaimedMatcher is the last resort: the best-ranked unclaimed
// candidate in document order.
type unclaimedMatcher struct{}

func (unclaimedMatcher) Name() string                  { return "first-unclaimed" }
func (unclaimedMatcher) Confidence() models.Confidence { return models.ConfidenceLow }

func (unclaimedMatcher) Match(decl models.ConnectorDeclaration, view string, pins []Pin, claimed []bool) int {
	best := -1
	for i, p := range pins {
		if claimed[i] {
			continue
		}
		if best < 0 || p.rank < pins[best].rank {
			best = i
		}
	}
	return best
}
