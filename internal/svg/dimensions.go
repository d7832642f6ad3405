package svg

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultDimension is used when a source asset carries neither a viewBox
// nor usable width/height attributes.
const defaultDimension = 100.0

// EnsureDimensions guarantees that a served SVG document carries a
// viewBox and explicit width/height attributes, injecting the missing
// ones into the root tag. Downstream scaling breaks without both, so an
// incomplete source asset must never be propagated as-is.
//
// The document body is left byte-for-byte untouched; only root tag
// attributes are added, and only when absent.
func EnsureDimensions(raw []byte) ([]byte, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if doc.HasViewBox && doc.HasSize {
		return raw, nil
	}

	var inject []string
	switch {
	case doc.HasViewBox && !doc.HasSize:
		if doc.Width == "" {
			inject = append(inject, fmt.Sprintf(`width="%s"`, formatDim(doc.ViewBox.Width)))
		}
		if doc.Height == "" {
			inject = append(inject, fmt.Sprintf(`height="%s"`, formatDim(doc.ViewBox.Height)))
		}
	case !doc.HasViewBox && doc.HasSize:
		w, okW := parseLength(doc.Width)
		h, okH := parseLength(doc.Height)
		if !okW || w <= 0 {
			w = defaultDimension
		}
		if !okH || h <= 0 {
			h = defaultDimension
		}
		inject = append(inject, fmt.Sprintf(`viewBox="0 0 %s %s"`, formatDim(w), formatDim(h)))
	default:
		inject = append(inject,
			fmt.Sprintf(`viewBox="0 0 %s %s"`, formatDim(defaultDimension), formatDim(defaultDimension)),
			fmt.Sprintf(`width="%s"`, formatDim(defaultDimension)),
			fmt.Sprintf(`height="%s"`, formatDim(defaultDimension)),
		)
	}

	return injectRootAttrs(raw, inject)
}

// injectRootAttrs splices attributes into the opening <svg> tag.
func injectRootAttrs(raw []byte, attrs []string) ([]byte, error) {
	s := string(raw)

	start := findRootTag(s)
	if start < 0 {
		return nil, fmt.Errorf("%w: no <svg> root tag", ErrInvalidDocument)
	}

	// Find the tag's closing '>' while respecting quoted attribute
	// values.
	end := -1
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == '>' {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated <svg> tag", ErrInvalidDocument)
	}

	insertAt := end
	if s[end-1] == '/' {
		insertAt = end - 1
	}

	var sb strings.Builder
	sb.WriteString(s[:insertAt])
	if s[insertAt-1] != ' ' {
		sb.WriteByte(' ')
	}
	sb.WriteString(strings.Join(attrs, " "))
	if insertAt != end {
		sb.WriteByte(' ')
	}
	sb.WriteString(s[insertAt:])

	return []byte(sb.String()), nil
}

// findRootTag locates the opening "<svg" of the root element, skipping
// prologues, comments and doctype declarations.
func findRootTag(s string) int {
	for i := 0; i+4 <= len(s); i++ {
		j := strings.Index(s[i:], "<svg")
		if j < 0 {
			return -1
		}
		j += i
		after := j + 4
		if after >= len(s) {
			return -1
		}
		switch s[after] {
		case ' ', '\t', '\n', '\r', '>', '/':
			return j
		}
		i = j
	}
	return -1
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
