package script

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"interaction-timeline/internal/interaction"
)

var templateFuncs = template.FuncMap{
	"seconds": func(frame, fps int) float64 {
		if fps <= 0 {
			return 0
		}
		return float64(frame) / float64(fps)
	},
	"percent": func(n, of int) int {
		if of <= 0 {
			return 0
		}
		return int(math.Round(float64(n) * 100 / float64(of)))
	},
	"upper": strings.ToUpper,
}

// branch is one resolved text: a template when present, else literal text.
type branch struct {
	text string
	tmpl *template.Template
}

func (b branch) render(d interaction.DerivedState) string {
	if b.tmpl == nil {
		return b.text
	}
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, d); err != nil {
		return b.text
	}
	return sb.String()
}

type compiledRule struct {
	active    []string
	fadedOut  []string
	optimized *bool
	branch
}

func (r compiledRule) matches(d interaction.DerivedState) bool {
	if len(r.active) > 0 && !anyOf(r.active, d.IsActive) {
		return false
	}
	if len(r.fadedOut) > 0 && !anyOf(r.fadedOut, d.HasFadedOut) {
		return false
	}
	if r.optimized != nil && *r.optimized != d.IsOptimized {
		return false
	}
	return true
}

func anyOf(names []string, pred func(string) bool) bool {
	for _, n := range names {
		if pred(n) {
			return true
		}
	}
	return false
}

// compile turns c into engine content. Literal content stays literal so the
// engine can tell it apart from computed content.
func (c Content) compile(field string) (interaction.Content[string], error) {
	if c.isLiteral() {
		return interaction.Text(c.Text), nil
	}

	def, err := newBranch(field, c.Text, c.Template)
	if err != nil {
		return interaction.Content[string]{}, err
	}
	rules := make([]compiledRule, 0, len(c.When))
	for i, r := range c.When {
		name := fmt.Sprintf("%s.when[%d]", field, i)
		if len(r.Active) == 0 && len(r.FadedOut) == 0 && r.Optimized == nil {
			return interaction.Content[string]{}, fmt.Errorf("%w: %s has no condition", ErrInvalidDocument, name)
		}
		b, err := newBranch(name, r.Text, r.Template)
		if err != nil {
			return interaction.Content[string]{}, err
		}
		rules = append(rules, compiledRule{active: r.Active, fadedOut: r.FadedOut, optimized: r.Optimized, branch: b})
	}

	return interaction.Computed(func(d interaction.DerivedState) string {
		for _, r := range rules {
			if r.matches(d) {
				return r.render(d)
			}
		}
		return def.render(d)
	}), nil
}

func newBranch(name, text, tmpl string) (branch, error) {
	b := branch{text: text}
	if tmpl == "" {
		return b, nil
	}
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return branch{}, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, name, err)
	}
	b.tmpl = t
	return b, nil
}
