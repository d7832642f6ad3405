// Package catalog loads component descriptors and their view drawings,
// resolves connectors, and serves the normalized records.
package catalog

import (
	"github.com/component-visualizer/backend/internal/models"
	"github.com/component-visualizer/backend/internal/svg"
)

// ViewResolution is the outcome of resolving one view of a component.
// Err is non-nil when the view's SVG could not be parsed; Pins is then
// empty.
type ViewResolution struct {
	View string
	Err  error
	Pins []svg.ResolvedPin
}

// Normalize merges per-view resolution results into the single
// connector list returned for a component.
//
// The primary view is the first entry of models.ViewOrder that resolved
// without error; its coordinates and svgIds are reported. Every
// declaration yields exactly one ResolvedConnector, in declaration
// order. When every view failed, the entry carries an empty svgId and
// explicit-null coordinates instead of being dropped.
func Normalize(desc *models.ComponentDescriptor, views []ViewResolution) models.ComponentRecord {
	record := models.ComponentRecord{
		ID:         desc.ID,
		FritzingID: desc.FritzingID,
		Title:      desc.Title,
		Category:   desc.Category,
		Connectors: make([]models.ResolvedConnector, 0, len(desc.Connectors)),
	}

	primary := primaryView(views)

	var byConnector map[string]svg.ResolvedPin
	if primary != nil {
		byConnector = make(map[string]svg.ResolvedPin, len(primary.Pins))
		for _, p := range primary.Pins {
			byConnector[p.ConnectorID] = p
		}
	}

	for _, decl := range desc.Connectors {
		rc := models.ResolvedConnector{
			ID:         decl.ID,
			Confidence: models.ConfidenceNone,
		}
		if pin, ok := byConnector[decl.ID]; ok {
			x, y := pin.X, pin.Y
			rc.SvgID = pin.SvgID
			rc.X = &x
			rc.Y = &y
			rc.Confidence = pin.Confidence
		}
		record.Connectors = append(record.Connectors, rc)
	}

	return record
}

// primaryView picks the first successfully resolved view in preference
// order (breadboard > schematic > icon).
func primaryView(views []ViewResolution) *ViewResolution {
	for _, name := range models.ViewOrder {
		for i := range views {
			if views[i].View == name && views[i].Err == nil {
				return &views[i]
			}
		}
	}
	return nil
}
