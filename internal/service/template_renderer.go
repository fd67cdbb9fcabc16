package service

import (
	"fmt"
	"regexp"
	"strings"

	"orchid/internal/domain"
)

// RenderMode controls what happens to a placeholder whose field path does
// not resolve against the event data. The two modes are deliberately kept
// distinct: config rendering leaves unresolved placeholders verbatim so a
// downstream consumer can detect them, while plain message rendering
// blanks them. Templates authored for one mode silently change meaning
// under the other.
type RenderMode int

const (
	// RenderModeKeep leaves unresolved {{placeholders}} verbatim
	RenderModeKeep RenderMode = iota
	// RenderModeBlank replaces unresolved {{placeholders}} with ""
	RenderModeBlank
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// TemplateRenderer substitutes {{field.path}} placeholders with values
// from event data
type TemplateRenderer interface {
	Render(template string, event *domain.TriggerContext, mode RenderMode) string
	RenderConfig(config map[string]interface{}, event *domain.TriggerContext) map[string]interface{}
}

type templateRenderer struct{}

// NewTemplateRenderer creates a new template renderer
func NewTemplateRenderer() TemplateRenderer {
	return &templateRenderer{}
}

// Render replaces every {{field.path}} placeholder in template with the
// field's string form from event data
func (t *templateRenderer) Render(template string, event *domain.TriggerContext, mode RenderMode) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-2])

		if value, ok := ResolveField(event.Data, path); ok {
			return stringify(value)
		}

		if mode == RenderModeBlank {
			return ""
		}
		return match
	})
}

// RenderConfig renders every string value inside an action config,
// recursing through nested maps and lists. Config rendering always uses
// RenderModeKeep. The input is not mutated.
func (t *templateRenderer) RenderConfig(config map[string]interface{}, event *domain.TriggerContext) map[string]interface{} {
	rendered := make(map[string]interface{}, len(config))
	for key, value := range config {
		rendered[key] = t.renderValue(value, event)
	}
	return rendered
}

func (t *templateRenderer) renderValue(value interface{}, event *domain.TriggerContext) interface{} {
	switch v := value.(type) {
	case string:
		return t.Render(v, event, RenderModeKeep)
	case map[string]interface{}:
		return t.RenderConfig(v, event)
	case []interface{}:
		rendered := make([]interface{}, len(v))
		for i, item := range v {
			rendered[i] = t.renderValue(item, event)
		}
		return rendered
	default:
		return value
	}
}

// stringify formats a resolved field value for substitution
func stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	// Avoid the "1.5e+06" float form for whole numbers coming out of JSON
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
