package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidDocument marks a view asset whose markup could not be parsed.
// Callers degrade to the next preferred view instead of failing the
// component.
var ErrInvalidDocument = errors.New("invalid svg document")

// Element is one node of a parsed SVG document. The tree is never
// mutated after Parse returns.
type Element struct {
	Tag       string
	ID        string
	Label     string
	Transform Transform
	Attrs     map[string]string
	Children  []*Element
}

// ViewBox is the parsed viewBox attribute of the root element.
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// Document is a transient, component-scoped parse tree for one view.
type Document struct {
	Root    *Element
	ViewBox ViewBox
	// HasViewBox / HasSize record whether the source asset carried the
	// attributes downstream scaling depends on.
	HasViewBox bool
	HasSize    bool
	Width      string
	Height     string
}

// geometry attributes captured per element; everything else is dropped.
var geometryAttrs = map[string]bool{
	"cx": true, "cy": true, "r": true, "rx": true, "ry": true,
	"x": true, "y": true, "width": true, "height": true,
	"x1": true, "y1": true, "x2": true, "y2": true,
	"d": true, "points": true,
}

// elements whose subtrees never contain visible pin markers.
var skippedContainers = map[string]bool{
	"defs": true, "metadata": true, "style": true, "title": true,
	"desc": true, "symbol": true,
}

// Parse builds the element tree for one SVG view. Malformed markup fails
// with an error wrapping ErrInvalidDocument.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	doc := &Document{}
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Tag:       t.Name.Local,
				Transform: Identity(),
			}
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "id":
					el.ID = strings.TrimSpace(a.Value)
				case "label":
					el.Label = strings.TrimSpace(a.Value)
				case "transform":
					// A broken transform on one element should not sink
					// the whole view; fall back to identity.
					if tf, err := ParseTransform(a.Value); err == nil {
						el.Transform = tf
					}
				default:
					if geometryAttrs[a.Name.Local] {
						if el.Attrs == nil {
							el.Attrs = make(map[string]string, 4)
						}
						el.Attrs[a.Name.Local] = a.Value
					}
				}
			}

			if doc.Root == nil && el.Tag == "svg" {
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "viewBox":
						if vb, ok := parseViewBox(a.Value); ok {
							doc.ViewBox = vb
							doc.HasViewBox = true
						}
					case "width":
						doc.Width = strings.TrimSpace(a.Value)
					case "height":
						doc.Height = strings.TrimSpace(a.Value)
					}
				}
				doc.HasSize = doc.Width != "" && doc.Height != ""
			}

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if doc.Root == nil {
				doc.Root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidDocument)
	}
	if doc.Root.Tag != "svg" {
		return nil, fmt.Errorf("%w: root element is <%s>, not <svg>", ErrInvalidDocument, doc.Root.Tag)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: %d unclosed elements", ErrInvalidDocument, len(stack))
	}

	return doc, nil
}

func parseViewBox(s string) (ViewBox, bool) {
	nums, err := parseNumberList(s)
	if err != nil || len(nums) < 4 {
		return ViewBox{}, false
	}
	return ViewBox{MinX: nums[0], MinY: nums[1], Width: nums[2], Height: nums[3]}, true
}

// attrFloat parses one geometry attribute, stripping a trailing unit
// suffix (tool-generated SVGs occasionally write "3.5px").
func (e *Element) attrFloat(name string) (float64, bool) {
	raw, ok := e.Attrs[name]
	if !ok {
		return 0, false
	}
	return parseLength(raw)
}

func parseLength(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
