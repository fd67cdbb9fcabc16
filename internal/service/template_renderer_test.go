package service

import (
	"testing"

	"orchid/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderEvent() *domain.TriggerContext {
	return domain.NewTriggerContext(domain.TriggerTypeOrderShipped, "order", "order-7", map[string]interface{}{
		"order_id": "A-1001",
		"total":    float64(250),
		"customer": map[string]interface{}{
			"name": "Riley",
		},
	})
}

func TestRenderSubstitution(t *testing.T) {
	renderer := NewTemplateRenderer()
	event := renderEvent()

	tests := []struct {
		name     string
		template string
		mode     RenderMode
		want     string
	}{
		{
			name:     "simple placeholder",
			template: "order {{order_id}} shipped",
			mode:     RenderModeBlank,
			want:     "order A-1001 shipped",
		},
		{
			name:     "nested placeholder",
			template: "hi {{customer.name}}",
			mode:     RenderModeBlank,
			want:     "hi Riley",
		},
		{
			name:     "whole float renders as integer",
			template: "total: {{total}}",
			mode:     RenderModeBlank,
			want:     "total: 250",
		},
		{
			name:     "multiple placeholders",
			template: "{{customer.name}} / {{order_id}}",
			mode:     RenderModeKeep,
			want:     "Riley / A-1001",
		},
		{
			name:     "no placeholders passes through",
			template: "plain text",
			mode:     RenderModeBlank,
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderer.Render(tt.template, event, tt.mode))
		})
	}
}

func TestRenderUnresolvedPlaceholderModes(t *testing.T) {
	renderer := NewTemplateRenderer()
	event := renderEvent()

	template := "carrier: {{shipment.carrier}}"

	t.Run("keep mode leaves placeholder verbatim", func(t *testing.T) {
		assert.Equal(t, "carrier: {{shipment.carrier}}", renderer.Render(template, event, RenderModeKeep))
	})

	t.Run("blank mode empties placeholder", func(t *testing.T) {
		assert.Equal(t, "carrier: ", renderer.Render(template, event, RenderModeBlank))
	})
}

func TestRenderConfig(t *testing.T) {
	renderer := NewTemplateRenderer()
	event := renderEvent()

	config := map[string]interface{}{
		"url": "https://hooks.example.com/orders",
		"payload": map[string]interface{}{
			"order":    "{{order_id}}",
			"customer": "{{customer.name}}",
			"missing":  "{{not.there}}",
			"count":    3,
		},
		"headers": []interface{}{"x-order: {{order_id}}"},
	}

	rendered := renderer.RenderConfig(config, event)

	payload, ok := rendered["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A-1001", payload["order"])
	assert.Equal(t, "Riley", payload["customer"])
	// Config rendering keeps unresolved placeholders for the receiver
	assert.Equal(t, "{{not.there}}", payload["missing"])
	assert.Equal(t, 3, payload["count"])

	headers, ok := rendered["headers"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, "x-order: A-1001", headers[0])

	// The original config is untouched
	originalPayload := config["payload"].(map[string]interface{})
	assert.Equal(t, "{{order_id}}", originalPayload["order"])
}
