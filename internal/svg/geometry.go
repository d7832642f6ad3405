package svg

import "strconv"

// bbox is an accumulating bounding box.
type bbox struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b *bbox) add(x, y float64) {
	if !b.ok {
		b.minX, b.maxX = x, x
		b.minY, b.maxY = y, y
		b.ok = true
		return
	}
	if x < b.minX {
		b.minX = x
	}
	if x > b.maxX {
		b.maxX = x
	}
	if y < b.minY {
		b.minY = y
	}
	if y > b.maxY {
		b.maxY = y
	}
}

func (b *bbox) union(o bbox) {
	if !o.ok {
		return
	}
	b.add(o.minX, o.minY)
	b.add(o.maxX, o.maxY)
}

func (b bbox) center() (float64, float64) {
	return (b.minX + b.maxX) / 2, (b.minY + b.maxY) / 2
}

// shape tags whose local center defines a pin anchor.
var shapeTags = map[string]bool{
	"circle": true, "ellipse": true, "rect": true, "line": true,
	"polyline": true, "polygon": true, "path": true, "use": true,
	"image": true,
}

// localCenter computes the geometric center of a shape in its own
// coordinate space: a circle's (cx, cy), otherwise the bounding-box
// center. Returns false for shapes with no usable geometry.
func localCenter(e *Element) (float64, float64, bool) {
	switch e.Tag {
	case "circle", "ellipse":
		cx, okX := e.attrFloat("cx")
		cy, okY := e.attrFloat("cy")
		if okX || okY {
			return cx, cy, true
		}
		return 0, 0, false
	default:
		b, ok := localBounds(e)
		if !ok {
			return 0, 0, false
		}
		x, y := b.center()
		return x, y, true
	}
}

// localBounds computes a shape's bounding box in its own coordinate
// space.
func localBounds(e *Element) (bbox, bool) {
	var b bbox
	switch e.Tag {
	case "circle":
		cx, okX := e.attrFloat("cx")
		cy, okY := e.attrFloat("cy")
		r, okR := e.attrFloat("r")
		if !okX && !okY && !okR {
			return b, false
		}
		b.add(cx-r, cy-r)
		b.add(cx+r, cy+r)
	case "ellipse":
		cx, _ := e.attrFloat("cx")
		cy, _ := e.attrFloat("cy")
		rx, _ := e.attrFloat("rx")
		ry, _ := e.attrFloat("ry")
		b.add(cx-rx, cy-ry)
		b.add(cx+rx, cy+ry)
	case "rect", "use", "image":
		x, okX := e.attrFloat("x")
		y, okY := e.attrFloat("y")
		w, okW := e.attrFloat("width")
		h, _ := e.attrFloat("height")
		if !okX && !okY && !okW {
			return b, false
		}
		b.add(x, y)
		b.add(x+w, y+h)
	case "line":
		x1, _ := e.attrFloat("x1")
		y1, _ := e.attrFloat("y1")
		x2, _ := e.attrFloat("x2")
		y2, _ := e.attrFloat("y2")
		b.add(x1, y1)
		b.add(x2, y2)
	case "polyline", "polygon":
		pts, err := parseNumberList(e.Attrs["points"])
		if err != nil || len(pts) < 2 {
			return b, false
		}
		for i := 0; i+1 < len(pts); i += 2 {
			b.add(pts[i], pts[i+1])
		}
	case "path":
		pb, ok := pathBounds(e.Attrs["d"])
		if !ok {
			return b, false
		}
		b = pb
	default:
		return b, false
	}
	return b, b.ok
}

// subtreeBounds computes the absolute bounding box of an element and its
// descendants. acc already includes the element's own transform.
func subtreeBounds(e *Element, acc Transform) bbox {
	var b bbox
	if shapeTags[e.Tag] {
		if lb, ok := localBounds(e); ok {
			// Map all four corners; affine transforms do not preserve
			// axis alignment.
			for _, p := range [4][2]float64{
				{lb.minX, lb.minY}, {lb.maxX, lb.minY},
				{lb.minX, lb.maxY}, {lb.maxX, lb.maxY},
			} {
				x, y := acc.Apply(p[0], p[1])
				b.add(x, y)
			}
		}
	}
	for _, child := range e.Children {
		if skippedContainers[child.Tag] {
			continue
		}
		b.union(subtreeBounds(child, acc.Mul(child.Transform)))
	}
	return b
}

// pathBounds scans SVG path data and accumulates every coordinate the
// path touches, including curve control points. The bounding box is an
// approximation (control points can lie outside the exact outline), but
// its center is what pin anchoring needs.
func pathBounds(d string) (bbox, bool) {
	var b bbox
	var cpx, cpy float64 // current point
	var spx, spy float64 // subpath start
	i := 0
	cmd := byte(0)

	nextNumber := func() (float64, bool) {
		for i < len(d) {
			c := d[i]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
				i++
				continue
			}
			break
		}
		if i >= len(d) {
			return 0, false
		}
		start := i
		if d[i] == '+' || d[i] == '-' {
			i++
		}
		seenDigit, seenDot := false, false
		for i < len(d) {
			c := d[i]
			if c >= '0' && c <= '9' {
				seenDigit = true
				i++
				continue
			}
			if c == '.' && !seenDot {
				seenDot = true
				i++
				continue
			}
			if (c == 'e' || c == 'E') && seenDigit {
				j := i + 1
				if j < len(d) && (d[j] == '+' || d[j] == '-') {
					j++
				}
				if j < len(d) && d[j] >= '0' && d[j] <= '9' {
					i = j
					continue
				}
			}
			break
		}
		if !seenDigit {
			i = start
			return 0, false
		}
		v, err := strconv.ParseFloat(d[start:i], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	pair := func(rel bool) (float64, float64, bool) {
		x, ok := nextNumber()
		if !ok {
			return 0, 0, false
		}
		y, ok := nextNumber()
		if !ok {
			return 0, 0, false
		}
		if rel {
			x += cpx
			y += cpy
		}
		return x, y, true
	}

	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
			continue
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			cmd = c
			i++
			if cmd == 'Z' || cmd == 'z' {
				cpx, cpy = spx, spy
				continue
			}
		default:
			if cmd == 0 {
				return b, false
			}
			// Implicit command repetition: fall through with prior cmd.
		}

		rel := cmd >= 'a' && cmd <= 'z'
		switch cmd {
		case 'M', 'm', 'L', 'l', 'T', 't':
			x, y, ok := pair(rel)
			if !ok {
				return b, b.ok
			}
			cpx, cpy = x, y
			if cmd == 'M' || cmd == 'm' {
				spx, spy = x, y
				// Subsequent implicit pairs are linetos.
				if cmd == 'M' {
					cmd = 'L'
				} else {
					cmd = 'l'
				}
			}
			b.add(cpx, cpy)
		case 'H', 'h':
			x, ok := nextNumber()
			if !ok {
				return b, b.ok
			}
			if rel {
				x += cpx
			}
			cpx = x
			b.add(cpx, cpy)
		case 'V', 'v':
			y, ok := nextNumber()
			if !ok {
				return b, b.ok
			}
			if rel {
				y += cpy
			}
			cpy = y
			b.add(cpx, cpy)
		case 'C', 'c':
			for k := 0; k < 3; k++ {
				x, y, ok := pair(rel)
				if !ok {
					return b, b.ok
				}
				b.add(x, y)
				if k == 2 {
					cpx, cpy = x, y
				}
			}
		case 'S', 's', 'Q', 'q':
			for k := 0; k < 2; k++ {
				x, y, ok := pair(rel)
				if !ok {
					return b, b.ok
				}
				b.add(x, y)
				if k == 1 {
					cpx, cpy = x, y
				}
			}
		case 'A', 'a':
			// rx ry rot large-arc sweep x y; only the endpoint counts.
			for k := 0; k < 5; k++ {
				if _, ok := nextNumber(); !ok {
					return b, b.ok
				}
			}
			x, y, ok := pair(rel)
			if !ok {
				return b, b.ok
			}
			cpx, cpy = x, y
			b.add(cpx, cpy)
		default:
			return b, b.ok
		}
	}

	return b, b.ok
}
