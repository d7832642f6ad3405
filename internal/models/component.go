package models

// View names for the alternate drawings of a component.
const (
	ViewBreadboard = "breadboard"
	ViewSchematic  = "schematic"
	ViewIcon       = "icon"
)

// ViewOrder is the preference order used when picking the primary view
// for reported coordinates.
var ViewOrder = []string{ViewBreadboard, ViewSchematic, ViewIcon}

// IsValidView reports whether name is one of the known view names.
func IsValidView(name string) bool {
	for _, v := range ViewOrder {
		if v == name {
			return true
		}
	}
	return false
}

// ComponentDescriptor is the parsed form of an .fzp metadata file.
// It is built once per catalog entry and never mutated afterwards.
type ComponentDescriptor struct {
	ID         string
	FritzingID string
	Title      string
	Category   string
	Connectors []ConnectorDeclaration
	// ViewImages maps a view name to the SVG image path declared in the
	// descriptor (e.g. "breadboard/led_breadboard.svg").
	ViewImages map[string]string
}

// ConnectorDeclaration is one expected electrical terminal on a component.
type ConnectorDeclaration struct {
	ID   string
	Name string
	Type string
	// Refs maps a view name to the SVG element references declared for
	// that view. Views without a declared reference are simply absent.
	Refs map[string]ViewRef
}

// ViewRef points a connector declaration at concrete elements inside one
// view's SVG document.
type ViewRef struct {
	SvgID      string
	TerminalID string
	Layer      string
}

// Confidence classifies how a connector's anchor was obtained.
type Confidence int

const (
	// ConfidenceNone means resolution failed in every view.
	ConfidenceNone Confidence = iota
	// ConfidenceLow means a best-effort fallback (unclaimed candidate or
	// view origin) supplied the anchor.
	ConfidenceLow
	// ConfidenceMedium means a heuristic (conventional id, name
	// similarity, alias) supplied the match.
	ConfidenceMedium
	// ConfidenceHigh means the declared svgId or terminalId matched
	// exactly.
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// ResolvedConnector is the wire shape returned for one connector.
// X and Y are pointers so that "no data" serializes as an explicit null
// instead of a silent 0,0 (0,0 is a legitimate pin position).
type ResolvedConnector struct {
	ID    string   `json:"id"`
	SvgID string   `json:"svgId"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`

	// Confidence is surfaced through catalog stats and logs, not the API.
	Confidence Confidence `json:"-"`
}

// ComponentRecord is the normalized component returned by the listing API.
// Connectors preserves the declaration order of the descriptor and always
// has exactly one entry per declared connector.
type ComponentRecord struct {
	ID         string              `json:"id"`
	FritzingID string              `json:"fritzingId"`
	Title      string              `json:"title"`
	Category   string              `json:"category"`
	Connectors []ResolvedConnector `json:"connectors"`
}

// CatalogStats aggregates resolution outcomes across a catalog load.
type CatalogStats struct {
	ComponentsLoaded  int `json:"componentsLoaded"`
	ComponentsSkipped int `json:"componentsSkipped"`
	ViewsFailed       int `json:"viewsFailed"`

	ConnectorsResolved      int `json:"connectorsResolved"`
	ConnectorsLowConfidence int `json:"connectorsLowConfidence"`
	ConnectorsUnresolved    int `json:"connectorsUnresolved"`
}
