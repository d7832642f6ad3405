package svg

import (
	"errors"
	"testing"
)

func TestParseDocument(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50" width="100px" height="50px">
  <defs><circle id="connector9pin" cx="1" cy="1" r="1"/></defs>
  <g id="breadboard" transform="translate(10,20)">
    <circle id="connector0pin" cx="5" cy="5" r="2"/>
    <rect id="body" x="0" y="0" width="30" height="10"/>
  </g>
</svg>`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Root == nil || doc.Root.Tag != "svg" {
		t.Fatalf("root = %+v", doc.Root)
	}
	if !doc.HasViewBox {
		t.Error("viewBox not captured")
	}
	if doc.ViewBox.Width != 100 || doc.ViewBox.Height != 50 {
		t.Errorf("viewBox = %+v", doc.ViewBox)
	}
	if !doc.HasSize || doc.Width != "100px" || doc.Height != "50px" {
		t.Errorf("size = %q x %q (has=%v)", doc.Width, doc.Height, doc.HasSize)
	}

	// defs come first, so the group is the second child.
	if len(doc.Root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(doc.Root.Children))
	}
	g := doc.Root.Children[1]
	if g.ID != "breadboard" {
		t.Fatalf("second child id = %q", g.ID)
	}
	if x, y := g.Transform.Apply(0, 0); x != 10 || y != 20 {
		t.Errorf("group transform applied to origin = (%v,%v)", x, y)
	}
	if len(g.Children) != 2 {
		t.Fatalf("group has %d children, want 2", len(g.Children))
	}
	c := g.Children[0]
	if c.Tag != "circle" || c.Attrs["cx"] != "5" {
		t.Errorf("circle = %+v", c)
	}
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated markup", `<svg><g><circle cx="1"`},
		{"not xml at all", `this is a png, honest`},
		{"empty input", ``},
		{"wrong root", `<html><body/></html>`},
		{"mismatched close", `<svg><g></svg></g>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("error %v does not wrap ErrInvalidDocument", err)
			}
		})
	}
}

func TestParseDocumentBrokenTransformIgnored(t *testing.T) {
	doc, err := Parse([]byte(`<svg><g transform="translate(oops)"><circle cx="1" cy="1" r="1"/></g></svg>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g := doc.Root.Children[0]
	if !g.Transform.IsIdentity() {
		t.Errorf("broken transform should fall back to identity, got %+v", g.Transform)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"3.5", 3.5, true},
		{"3.5px", 3.5, true},
		{" 10in ", 10, true},
		{"0.9144mm", 0.9144, true},
		{"px", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLength(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseLength(%q) = (%v,%v), want (%v,%v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
