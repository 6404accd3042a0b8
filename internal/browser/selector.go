package browser

import (
	"strconv"
	"strings"
)

// Selector is a library-neutral query expression. Exactly one of CSS, Role or
// Text anchors the query; HasText and Has narrow the matches and Scope
// restricts the search to descendants of another selector's matches.
type Selector struct {
	CSS  string `json:"css,omitempty"`
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`
	// Exact makes Text and Name compare the whole normalized text,
	// case-sensitively, instead of a case-insensitive substring.
	Exact   bool      `json:"exact,omitempty"`
	HasText string    `json:"hasText,omitempty"`
	Has     *Selector `json:"has,omitempty"`
	Only    bool      `json:"first,omitempty"`
	Scope   *Selector `json:"scope,omitempty"`
}

// CSS selects by CSS selector.
func CSS(css string) Selector {
	return Selector{CSS: css}
}

// Role selects by ARIA role and accessible name. An empty name matches any
// element with the role.
func Role(role, name string) Selector {
	return Selector{Role: role, Name: name}
}

// Text selects the innermost elements whose text contains text.
func Text(text string) Selector {
	return Selector{Text: text}
}

// ExactText selects the innermost elements whose whole text is text.
func ExactText(text string) Selector {
	return Selector{Text: text, Exact: true}
}

// Within scopes s to descendants of parent.
func (s Selector) Within(parent Selector) Selector {
	p := parent
	if s.Scope != nil {
		inner := s.Scope.Within(parent)
		s.Scope = &inner
		return s
	}
	s.Scope = &p
	return s
}

// Filter keeps matches whose text contains text.
func (s Selector) Filter(text string) Selector {
	s.HasText = text
	return s
}

// Exactly makes the text or name match exact.
func (s Selector) Exactly() Selector {
	s.Exact = true
	return s
}

// Containing keeps matches that have a descendant matching child.
func (s Selector) Containing(child Selector) Selector {
	s.Has = &child
	return s
}

// First keeps only the first match.
func (s Selector) First() Selector {
	s.Only = true
	return s
}

// IsZero reports whether the selector has no anchor.
func (s Selector) IsZero() bool {
	return s.CSS == "" && s.Role == "" && s.Text == ""
}

// String renders the canonical form, used in logs and as a lookup key.
func (s Selector) String() string {
	var b strings.Builder
	if s.Scope != nil {
		b.WriteString(s.Scope.String())
		b.WriteString(" >> ")
	}
	switch {
	case s.CSS != "":
		b.WriteString("css=")
		b.WriteString(s.CSS)
	case s.Role != "":
		b.WriteString("role=")
		b.WriteString(s.Role)
		if s.Name != "" {
			b.WriteString("[name=")
			b.WriteString(strconv.Quote(s.Name))
			b.WriteString("]")
		}
	case s.Text != "":
		b.WriteString("text=")
		b.WriteString(strconv.Quote(s.Text))
	default:
		b.WriteString("<empty>")
	}
	if s.Exact {
		b.WriteString("[exact]")
	}
	if s.HasText != "" {
		b.WriteString("[has-text=")
		b.WriteString(strconv.Quote(s.HasText))
		b.WriteString("]")
	}
	if s.Has != nil {
		b.WriteString("[has=")
		b.WriteString(strconv.Quote(s.Has.String()))
		b.WriteString("]")
	}
	if s.Only {
		b.WriteString(" >> nth=0")
	}
	return b.String()
}
