package svg

import (
	"testing"

	"github.com/component-visualizer/backend/internal/models"
)

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func decl(id, name string, view string, ref models.ViewRef) models.ConnectorDeclaration {
	d := models.ConnectorDeclaration{ID: id, Name: name, Type: "male"}
	if view != "" {
		d.Refs = map[string]models.ViewRef{view: ref}
	}
	return d
}

// Two declared connectors whose markers sit inside a translated group.
// The resolved anchors must be the marker centers mapped through the
// group transform, not the raw local coordinates.
func TestResolveNestedTransform(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <g transform="translate(10,20)">
    <circle id="connector0pin" cx="5" cy="5" r="1"/>
    <circle id="connector1pin" cx="15" cy="5" r="1"/>
  </g>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "PIN1", models.ViewBreadboard, models.ViewRef{SvgID: "connector0pin"}),
		decl("connector1", "PIN2", models.ViewBreadboard, models.ViewRef{SvgID: "connector1pin"}),
	}

	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if len(got) != 2 {
		t.Fatalf("got %d resolutions, want 2", len(got))
	}

	want := []ResolvedPin{
		{ConnectorID: "connector0", SvgID: "connector0pin", X: 15, Y: 25, Confidence: models.ConfidenceHigh},
		{ConnectorID: "connector1", SvgID: "connector1pin", X: 25, Y: 25, Confidence: models.ConfidenceHigh},
	}
	for i, w := range want {
		g := got[i]
		if g.ConnectorID != w.ConnectorID || g.SvgID != w.SvgID || g.Confidence != w.Confidence {
			t.Errorf("[%d] = %+v, want %+v", i, g, w)
		}
		if !almostEqual(g.X, w.X) || !almostEqual(g.Y, w.Y) {
			t.Errorf("[%d] anchor = (%v,%v), want (%v,%v)", i, g.X, g.Y, w.X, w.Y)
		}
	}
}

func TestResolveDeeplyNestedTransforms(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <g transform="translate(10,0)">
    <g transform="scale(2)">
      <circle id="connector0pin" cx="3" cy="4" r="1"/>
    </g>
  </g>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "A1", models.ViewBreadboard, models.ViewRef{SvgID: "connector0pin"}),
	}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	// translate(10,0) applied after scale(2): (3,4) -> (6,8) -> (16,8)
	if !almostEqual(got[0].X, 16) || !almostEqual(got[0].Y, 8) {
		t.Errorf("anchor = (%v,%v), want (16,8)", got[0].X, got[0].Y)
	}
}

func TestResolveTerminalBeatsPin(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <circle id="connector0pin" cx="10" cy="10" r="3"/>
  <circle id="connector0terminal" cx="10" cy="7" r="0.1"/>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "PIN1", models.ViewBreadboard,
			models.ViewRef{SvgID: "connector0pin", TerminalID: "connector0terminal"}),
	}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if got[0].SvgID != "connector0terminal" {
		t.Fatalf("matched %q, want the terminal", got[0].SvgID)
	}
	if !almostEqual(got[0].Y, 7) {
		t.Errorf("anchor Y = %v, want 7", got[0].Y)
	}
	if got[0].Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %v", got[0].Confidence)
	}
}

func TestResolveConventionFallback(t *testing.T) {
	// Descriptor declares no svgId at all; the drawing follows the stock
	// "<connectorId>pin" convention.
	doc := mustParse(t, `<svg viewBox="0 0 20 20">
  <circle id="connector0pin" cx="2" cy="2" r="1"/>
</svg>`)

	decls := []models.ConnectorDeclaration{decl("connector0", "PIN1", "", models.ViewRef{})}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if got[0].SvgID != "connector0pin" {
		t.Fatalf("matched %q", got[0].SvgID)
	}
	if got[0].Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %v, want medium", got[0].Confidence)
	}
}

func TestResolveMoreDeclarationsThanMarkers(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <circle id="connector0pin" cx="1" cy="1" r="1"/>
  <circle id="connector1pin" cx="2" cy="2" r="1"/>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "PIN1", models.ViewBreadboard, models.ViewRef{SvgID: "connector0pin"}),
		decl("connector1", "PIN2", models.ViewBreadboard, models.ViewRef{SvgID: "connector1pin"}),
		decl("connector2", "PIN3", models.ViewBreadboard, models.ViewRef{SvgID: "connector2pin"}),
	}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want one per declaration", len(got))
	}

	last := got[2]
	if last.ConnectorID != "connector2" {
		t.Fatalf("order not preserved: %+v", last)
	}
	if last.SvgID != "" {
		t.Errorf("starved declaration got SvgID %q, want empty", last.SvgID)
	}
	if last.Confidence != models.ConfidenceLow {
		t.Errorf("confidence = %v, want low", last.Confidence)
	}
	if last.X != 0 || last.Y != 0 {
		t.Errorf("orphan anchor = (%v,%v), want view origin", last.X, last.Y)
	}
}

func TestResolveFirstDeclarationWins(t *testing.T) {
	// Both declarations point at the same marker. The first keeps it, the
	// second falls through to the remaining candidate.
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <circle id="sharedpin" cx="1" cy="1" r="1"/>
  <circle id="otherpin" cx="9" cy="9" r="1"/>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "PIN1", models.ViewBreadboard, models.ViewRef{SvgID: "sharedpin"}),
		decl("connector1", "PIN2", models.ViewBreadboard, models.ViewRef{SvgID: "sharedpin"}),
	}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if got[0].SvgID != "sharedpin" {
		t.Errorf("first declaration matched %q", got[0].SvgID)
	}
	if got[1].SvgID != "otherpin" {
		t.Errorf("second declaration matched %q, want the leftover candidate", got[1].SvgID)
	}
	if got[1].Confidence != models.ConfidenceLow {
		t.Errorf("leftover confidence = %v, want low", got[1].Confidence)
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <g transform="rotate(90, 50, 50)">
    <circle id="connector0pin" cx="10" cy="10" r="1"/>
    <rect id="connector1pad" x="20" y="20" width="4" height="4"/>
  </g>
</svg>`)

	decls := []models.ConnectorDeclaration{
		decl("connector0", "PIN1", models.ViewBreadboard, models.ViewRef{SvgID: "connector0pin"}),
		decl("connector1", "PIN2", models.ViewBreadboard, models.ViewRef{SvgID: "connector1pad"}),
	}
	r := NewResolver(nil)
	first := r.Resolve(doc, decls, models.ViewBreadboard)
	second := r.Resolve(doc, decls, models.ViewBreadboard)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("[%d] differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCollectPinsSyntheticIDs(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 10 10">
  <circle cx="1" cy="1" r="1"/>
  <circle cx="2" cy="2" r="1"/>
</svg>`)

	pins := NewResolver(nil).CollectPins(doc, nil, models.ViewBreadboard)
	if len(pins) != 2 {
		t.Fatalf("got %d pins, want 2", len(pins))
	}
	if pins[0].SvgID == "" || pins[1].SvgID == "" {
		t.Fatal("anonymous shapes must get synthetic ids")
	}
	if pins[0].SvgID == pins[1].SvgID {
		t.Errorf("synthetic ids collide: %q", pins[0].SvgID)
	}
	if pins[0].rank != rankSynthetic {
		t.Errorf("rank = %d, want synthetic", pins[0].rank)
	}
}

func TestCollectPinsSkipsDefs(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 10 10">
  <defs>
    <circle id="connector0pin" cx="1" cy="1" r="1"/>
  </defs>
  <circle id="connector0pin" cx="5" cy="5" r="1"/>
</svg>`)

	pins := NewResolver(nil).CollectPins(doc, nil, models.ViewBreadboard)
	if len(pins) != 1 {
		t.Fatalf("got %d pins, want 1 (defs subtree excluded)", len(pins))
	}
	if pins[0].X != 5 {
		t.Errorf("picked the defs copy: %+v", pins[0])
	}
}

func TestCollectPinsGroupMarker(t *testing.T) {
	// A token-bearing group with no own geometry anchors at the center of
	// its rendered subtree.
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
  <g id="connector0pin">
    <rect x="10" y="10" width="4" height="4"/>
    <rect x="20" y="10" width="4" height="4"/>
  </g>
</svg>`)

	pins := NewResolver(nil).CollectPins(doc, nil, models.ViewBreadboard)
	// The group plus its two anonymous rects are each candidates; the
	// group must be first in document order and carry the token rank.
	if len(pins) == 0 {
		t.Fatal("no pins found")
	}
	g := pins[0]
	if g.SvgID != "connector0pin" || g.rank != rankToken {
		t.Fatalf("first pin = %+v", g)
	}
	if !almostEqual(g.X, 17) || !almostEqual(g.Y, 12) {
		t.Errorf("group anchor = (%v,%v), want (17,12)", g.X, g.Y)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="5 7 100 100"></svg>`)
	decls := []models.ConnectorDeclaration{decl("connector0", "PIN1", "", models.ViewRef{})}
	got := NewResolver(nil).Resolve(doc, decls, models.ViewBreadboard)
	if len(got) != 1 {
		t.Fatalf("got %d entries", len(got))
	}
	if got[0].SvgID != "" || got[0].X != 5 || got[0].Y != 7 {
		t.Errorf("origin fallback = %+v, want viewBox min corner", got[0])
	}
}
