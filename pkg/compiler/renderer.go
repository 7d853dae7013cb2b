package compiler

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// skillsSection is the reserved section name the base template uses to
// place the merged skill content
const skillsSection = "skills"

// SkillRef is the view of one skill exposed to partial templates
type SkillRef struct {
	ID          string
	Category    string
	Description string
}

// templateContext is the data every partial and base template renders
// against
type templateContext struct {
	Agent  string
	Skills []SkillRef
}

// renderer executes the profile's templates. Partials render against
// the agent context; the base template additionally resolves named
// sections through the section function, recording a warning for every
// unresolved name instead of failing.
type renderer struct {
	ctx templateContext
}

func newRenderer(agent string, skills []SkillRef) *renderer {
	return &renderer{ctx: templateContext{Agent: agent, Skills: skills}}
}

// render executes a single partial template
func (r *renderer) render(name, body string) (string, error) {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse template %q", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, r.ctx); err != nil {
		return "", errors.Wrapf(err, "failed to execute template %q", name)
	}

	return buf.String(), nil
}

// renderBase executes the base template with the section function bound
// to the rendered section map. Unresolved sections substitute empty
// content and are returned as warnings, never as errors.
func (r *renderer) renderBase(body string, sections map[string]string) (string, []Warning, error) {
	var warnings []Warning

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"section": func(name string) string {
			content, ok := sections[name]
			if !ok {
				warnings = append(warnings, Warning{Agent: r.ctx.Agent, Section: name})
				return ""
			}
			return content
		},
	}).Parse(body)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to parse base template")
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, r.ctx); err != nil {
		return "", nil, errors.Wrap(err, "failed to execute base template")
	}

	return buf.String(), warnings, nil
}
