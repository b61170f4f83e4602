package llm

import (
	"bytes"
	"text/template"
)

// PromptTemplate is a prompt with text/template placeholders that can be
// rendered against a set of named inputs.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a PromptTemplate from the given template string.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{
		Template: template,
	}
}

// NewPromptTemplateRendered parses and renders a template in one step.
func NewPromptTemplateRendered(template string, inputs map[string]any) (string, error) {
	return NewPromptTemplate(template).Render(inputs)
}

// Render fills the template with the provided inputs.
func (pt PromptTemplate) Render(inputs map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Parse(pt.Template)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, inputs); err != nil {
		return "", err
	}
	return buf.String(), nil
}
