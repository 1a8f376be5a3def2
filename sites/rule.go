package sites

import (
	"regexp"
	"strings"
)

// ContainerOpen and ContainerClose delimit a synthesized paper container.
// Sites whose markup has no element per paper insert them in preprocessing
// so their List step can select "div.paper-container".
const (
	ContainerOpen     = `<div class="paper-container">`
	ContainerClose    = `</div>`
	ContainerSelector = "div.paper-container"
)

// Rule is one textual substitution applied to raw HTML before parsing.
// Replacement may reference submatches ($1, ${name}). Limit 0 replaces every
// match; n > 0 replaces only the first n. A rule with Requires set only
// applies to html that contains it.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Limit       int
	Requires    string
}

// Literal builds a rule that replaces a fixed string.
func Literal(old, replacement string, limit int) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(regexp.QuoteMeta(old)),
		Replacement: strings.ReplaceAll(replacement, "$", "$$"),
		Limit:       limit,
	}
}

// Pattern builds a rule from a regular expression.
func Pattern(expr, replacement string, limit int) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(expr),
		Replacement: replacement,
		Limit:       limit,
	}
}

// When returns a copy of r that only applies when html contains s.
func (r Rule) When(s string) Rule {
	r.Requires = s
	return r
}

// Apply rewrites html. A pattern that doesn't match leaves html unchanged.
func (r Rule) Apply(html string) string {
	if r.Pattern == nil {
		return html
	}
	if r.Requires != "" && !strings.Contains(html, r.Requires) {
		return html
	}
	if r.Limit <= 0 {
		return r.Pattern.ReplaceAllString(html, r.Replacement)
	}

	matches := r.Pattern.FindAllStringSubmatchIndex(html, r.Limit)
	if len(matches) == 0 {
		return html
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(html[last:m[0]])
		b.Write(r.Pattern.ExpandString(nil, r.Replacement, html, m))
		last = m[1]
	}
	b.WriteString(html[last:])

	return b.String()
}
