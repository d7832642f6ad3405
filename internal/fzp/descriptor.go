// Package fzp parses fritzing-style .fzp component descriptors.
package fzp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/component-visualizer/backend/internal/models"
)

// ErrMalformedDescriptor marks a catalog entry whose metadata cannot be
// used: missing identity fields, no connector list, or duplicate
// connector ids. Such entries are skipped from listings.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// Raw XML structures. Only the fields the engine consumes are mapped.

type moduleXML struct {
	XMLName    xml.Name       `xml:"module"`
	ModuleID   string         `xml:"moduleId,attr"`
	Title      string         `xml:"title"`
	Label      string         `xml:"label"`
	Tags       []string       `xml:"tags>tag"`
	Properties []propertyXML  `xml:"properties>property"`
	Views      viewsXML       `xml:"views"`
	Connectors *connectorsXML `xml:"connectors"`
}

type propertyXML struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type viewsXML struct {
	Breadboard viewXML `xml:"breadboardView"`
	Schematic  viewXML `xml:"schematicView"`
	Icon       viewXML `xml:"iconView"`
}

type viewXML struct {
	Layers layersXML `xml:"layers"`
}

type layersXML struct {
	Image string `xml:"image,attr"`
}

type connectorsXML struct {
	Connectors []connectorXML `xml:"connector"`
}

type connectorXML struct {
	ID    string           `xml:"id,attr"`
	Name  string           `xml:"name,attr"`
	Type  string           `xml:"type,attr"`
	Views connectorViewXML `xml:"views"`
}

type connectorViewXML struct {
	Breadboard []pinRefXML `xml:"breadboardView>p"`
	Schematic  []pinRefXML `xml:"schematicView>p"`
	Icon       []pinRefXML `xml:"iconView>p"`
}

type pinRefXML struct {
	Layer      string `xml:"layer,attr"`
	SvgID      string `xml:"svgId,attr"`
	TerminalID string `xml:"terminalId,attr"`
}

// Parse turns raw descriptor bytes into a ComponentDescriptor. It is a
// pure function: no filesystem access, no mutation of shared state.
//
// Connectors that omit per-view SVG references still appear in the
// declaration list; their resolution is deferred to the SVG stage
// rather than failing the load.
func Parse(data []byte) (*models.ComponentDescriptor, error) {
	var raw moduleXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	if strings.TrimSpace(raw.ModuleID) == "" {
		return nil, fmt.Errorf("%w: missing moduleId", ErrMalformedDescriptor)
	}
	if raw.Connectors == nil {
		return nil, fmt.Errorf("%w: missing connectors section", ErrMalformedDescriptor)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Label)
	}
	if title == "" {
		title = raw.ModuleID
	}

	desc := &models.ComponentDescriptor{
		FritzingID: strings.TrimSpace(raw.ModuleID),
		Title:      title,
		Category:   category(raw),
		Connectors: make([]models.ConnectorDeclaration, 0, len(raw.Connectors.Connectors)),
		ViewImages: viewImages(raw.Views),
	}

	seen := make(map[string]bool, len(raw.Connectors.Connectors))
	for _, c := range raw.Connectors.Connectors {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: connector with empty id", ErrMalformedDescriptor)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate connector id %q", ErrMalformedDescriptor, id)
		}
		seen[id] = true

		decl := models.ConnectorDeclaration{
			ID:   id,
			Name: strings.TrimSpace(c.Name),
			Type: strings.TrimSpace(c.Type),
			Refs: make(map[string]models.ViewRef, 3),
		}
		addRef(decl.Refs, models.ViewBreadboard, c.Views.Breadboard)
		addRef(decl.Refs, models.ViewSchematic, c.Views.Schematic)
		addRef(decl.Refs, models.ViewIcon, c.Views.Icon)

		desc.Connectors = append(desc.Connectors, decl)
	}

	return desc, nil
}

// addRef records the first <p> element of a view. Fritzing descriptors
// may list one <p> per layer; the first carries the pin binding.
func addRef(refs map[string]models.ViewRef, view string, ps []pinRefXML) {
	if len(ps) == 0 {
		return
	}
	p := ps[0]
	if p.SvgID == "" && p.TerminalID == "" {
		return
	}
	refs[view] = models.ViewRef{
		SvgID:      strings.TrimSpace(p.SvgID),
		TerminalID: strings.TrimSpace(p.TerminalID),
		Layer:      strings.TrimSpace(p.Layer),
	}
}

// category prefers the "family" property, then the first tag.
func category(raw moduleXML) string {
	for _, p := range raw.Properties {
		if strings.EqualFold(p.Name, "family") {
			if v := strings.TrimSpace(p.Value); v != "" {
				return v
			}
		}
	}
	for _, t := range raw.Tags {
		if v := strings.TrimSpace(t); v != "" {
			return v
		}
	}
	return "Uncategorized"
}

func viewImages(v viewsXML) map[string]string {
	images := make(map[string]string, 3)
	if img := strings.TrimSpace(v.Breadboard.Layers.Image); img != "" {
		images[models.ViewBreadboard] = img
	}
	if img := strings.TrimSpace(v.Schematic.Layers.Image); img != "" {
		images[models.ViewSchematic] = img
	}
	if img := strings.TrimSpace(v.Icon.Layers.Image); img != "" {
		images[models.ViewIcon] = img
	}
	return images
}
