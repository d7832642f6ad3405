package svg

import (
	"fmt"

	"github.com/component-visualizer/backend/internal/models"
)

// Candidate ranks, best first. When several candidates could satisfy one
// declaration, a token-bearing id beats a referenced leaf shape, which
// beats an anonymous synthetic element.
const (
	rankToken = iota
	rankReferenced
	rankLeafID
	rankSynthetic
)

// Pin is a pin-marker candidate located in a parsed view, with its
// anchor already mapped into absolute coordinates.
type Pin struct {
	SvgID string
	X, Y  float64

	rank  int
	label string
	order int
}

// ResolvedPin binds one connector declaration to the pin chosen for it
// in a single view.
type ResolvedPin struct {
	ConnectorID string
	SvgID       string
	X, Y        float64
	Confidence  models.Confidence
}

// Resolver locates pin markers and matches them against connector
// declarations. It is stateless apart from its rules and safe for
// concurrent use.
type Resolver struct {
	rules    *Rules
	matchers []pinMatcher
}

// NewResolver creates a resolver. A nil rules argument uses the stock
// fritzing conventions.
func NewResolver(rules *Rules) *Resolver {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Resolver{
		rules:    rules,
		matchers: newMatcherChain(rules),
	}
}

// Resolve matches every declaration against the view's pin markers.
// The output has exactly one entry per declaration, in declaration
// order. Declarations that no candidate could satisfy come back with an
// empty SvgID and the view origin as a low-confidence anchor.
func (r *Resolver) Resolve(doc *Document, decls []models.ConnectorDeclaration, view string) []ResolvedPin {
	pins := r.CollectPins(doc, decls, view)
	claimed := make([]bool, len(pins))

	out := make([]ResolvedPin, 0, len(decls))
	for _, decl := range decls {
		idx := -1
		conf := models.ConfidenceNone
		for _, m := range r.matchers {
			if j := m.Match(decl, view, pins, claimed); j >= 0 {
				idx = j
				conf = m.Confidence()
				break
			}
		}

		if idx >= 0 {
			p := pins[idx]
			claimed[idx] = true
			out = append(out, ResolvedPin{
				ConnectorID: decl.ID,
				SvgID:       p.SvgID,
				X:           p.X,
				Y:           p.Y,
				Confidence:  conf,
			})
			continue
		}

		// No candidate left at all: anchor at the view origin so the
		// declaration still carries a usable position.
		out = append(out, ResolvedPin{
			ConnectorID: decl.ID,
			X:           doc.ViewBox.MinX,
			Y:           doc.ViewBox.MinY,
			Confidence:  models.ConfidenceLow,
		})
	}

	return out
}

// CollectPins walks the element tree depth-first, composing ancestor
// transforms, and returns every pin-marker candidate in document order.
func (r *Resolver) CollectPins(doc *Document, decls []models.ConnectorDeclaration, view string) []Pin {
	referenced := referencedIDs(decls, view, r.rules)

	var pins []Pin
	counter := 0
	var walk func(e *Element, acc Transform)
	walk = func(e *Element, acc Transform) {
		acc = acc.Mul(e.Transform)
		counter++

		if p, ok := r.candidate(e, acc, referenced, counter); ok {
			p.order = len(pins)
			pins = append(pins, p)
		}

		for _, child := range e.Children {
			if skippedContainers[child.Tag] {
				continue
			}
			walk(child, acc)
		}
	}

	for _, child := range doc.Root.Children {
		if skippedContainers[child.Tag] {
			continue
		}
		walk(child, doc.Root.Transform)
	}

	return pins
}

// candidate decides whether a single element is a pin marker and, if so,
// computes its absolute anchor. acc already includes the element's own
// transform.
func (r *Resolver) candidate(e *Element, acc Transform, referenced map[string]bool, counter int) (Pin, bool) {
	isLeafShape := shapeTags[e.Tag] && len(e.Children) == 0

	var rank int
	switch {
	case e.ID != "" && r.rules.matchesToken(e.ID):
		rank = rankToken
	case e.ID != "" && referenced[e.ID]:
		rank = rankReferenced
	case isLeafShape && e.ID != "":
		rank = rankLeafID
	case isLeafShape:
		rank = rankSynthetic
	default:
		return Pin{}, false
	}

	var x, y float64
	if shapeTags[e.Tag] {
		lx, ly, ok := localCenter(e)
		if !ok {
			return Pin{}, false
		}
		x, y = acc.Apply(lx, ly)
	} else {
		// Group marker: anchor at the center of its rendered subtree.
		sb := subtreeBounds(e, acc)
		if !sb.ok {
			return Pin{}, false
		}
		x, y = sb.center()
	}

	id := e.ID
	if id == "" {
		id = fmt.Sprintf("element%d", counter)
	}

	return Pin{SvgID: id, X: x, Y: y, rank: rank, label: e.Label}, true
}

// referencedIDs collects every element id any declaration points at for
// the given view, plus alias targets from the rules.
func referencedIDs(decls []models.ConnectorDeclaration, view string, rules *Rules) map[string]bool {
	ids := make(map[string]bool)
	for _, d := range decls {
		if ref, ok := d.Refs[view]; ok {
			if ref.SvgID != "" {
				ids[ref.SvgID] = true
			}
			if ref.TerminalID != "" {
				ids[ref.TerminalID] = true
			}
		}
		if alias, ok := rules.Aliases[d.ID]; ok && alias != "" {
			ids[alias] = true
		}
	}
	return ids
}
