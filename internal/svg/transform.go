package svg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Transform is a 2D affine transform using SVG's matrix layout:
//
//	| A C E |
//	| B D F |
//
// Transforms are immutable values. Traversal threads an accumulated
// Transform down the element tree instead of mutating shared state.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translate returns a translation transform.
func Translate(tx, ty float64) Transform {
	return Transform{A: 1, D: 1, E: tx, F: ty}
}

// Scale returns a scale transform.
func Scale(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Rotate returns a rotation transform for an angle in degrees.
func Rotate(deg float64) Transform {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

// Mul composes two transforms. The receiver is the outer (ancestor)
// transform: (t.Mul(u)).Apply(p) == t.Apply(u.Apply(p)).
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		A: t.A*u.A + t.C*u.B,
		B: t.B*u.A + t.D*u.B,
		C: t.A*u.C + t.C*u.D,
		D: t.B*u.C + t.D*u.D,
		E: t.A*u.E + t.C*u.F + t.E,
		F: t.B*u.E + t.D*u.F + t.F,
	}
}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.E, t.B*x + t.D*y + t.F
}

// IsIdentity reports whether the transform is the identity.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// ParseTransform parses an SVG transform attribute such as
// "translate(10,20) scale(2) matrix(1,0,0,1,5,5)". The listed operations
// compose left to right, matching SVG semantics. Unknown operation names
// are skipped so one exotic authoring tool does not fail a whole view.
func ParseTransform(attr string) (Transform, error) {
	result := Identity()
	s := strings.TrimSpace(attr)

	for len(s) > 0 {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return result, fmt.Errorf("transform %q: missing '('", attr)
		}
		close := strings.IndexByte(s[open:], ')')
		if close < 0 {
			return result, fmt.Errorf("transform %q: missing ')'", attr)
		}
		close += open

		name := strings.TrimSpace(s[:open])
		args, err := parseNumberList(s[open+1 : close])
		if err != nil {
			return result, fmt.Errorf("transform %q: %w", attr, err)
		}

		op, err := transformOp(name, args)
		if err != nil {
			return result, fmt.Errorf("transform %q: %w", attr, err)
		}
		result = result.Mul(op)

		s = strings.TrimLeft(s[close+1:], " \t\r\n,")
	}

	return result, nil
}

func transformOp(name string, args []float64) (Transform, error) {
	switch name {
	case "translate":
		switch len(args) {
		case 1:
			return Translate(args[0], 0), nil
		case 2:
			return Translate(args[0], args[1]), nil
		}
	case "scale":
		switch len(args) {
		case 1:
			return Scale(args[0], args[0]), nil
		case 2:
			return Scale(args[0], args[1]), nil
		}
	case "rotate":
		switch len(args) {
		case 1:
			return Rotate(args[0]), nil
		case 3:
			// rotate(a, cx, cy) = translate(cx,cy) rotate(a) translate(-cx,-cy)
			return Translate(args[1], args[2]).Mul(Rotate(args[0])).Mul(Translate(-args[1], -args[2])), nil
		}
	case "matrix":
		if len(args) == 6 {
			return Transform{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]}, nil
		}
	case "skewX":
		if len(args) == 1 {
			return Transform{A: 1, C: math.Tan(args[0] * math.Pi / 180), D: 1}, nil
		}
	case "skewY":
		if len(args) == 1 {
			return Transform{A: 1, B: math.Tan(args[0] * math.Pi / 180), D: 1}, nil
		}
	default:
		// Unknown operation: treat as identity.
		return Identity(), nil
	}
	return Identity(), fmt.Errorf("%s: wrong argument count %d", name, len(args))
}

// parseNumberList splits a comma/whitespace separated list of numbers.
func parseNumberList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}
