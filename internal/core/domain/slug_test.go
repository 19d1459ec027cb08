package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Slugify Tests
// =============================================================================

func TestSlugify_Basic(t *testing.T) {
	result := Slugify("Staging Chat")
	assert.Equal(t, "staging-chat", result)
}

func TestSlugify_TimestampIDUnchanged(t *testing.T) {
	result := Slugify("20260830-154212-9f3ac1d2")
	assert.Equal(t, "20260830-154212-9f3ac1d2", result)
}

func TestSlugify_RemovesPathSeparators(t *testing.T) {
	result := Slugify("../etc/passwd")
	assert.Equal(t, "etcpasswd", result)
}

func TestSlugify_PreservesUnderscores(t *testing.T) {
	result := Slugify("runai_prod")
	assert.Equal(t, "runai_prod", result)
}

// =============================================================================
// Table-Driven Tests
// =============================================================================

func TestSlugify_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic", "Hello World", "hello-world"},
		{"lowercase", "already lowercase", "already-lowercase"},
		{"uppercase", "UPPERCASE", "uppercase"},
		{"mixed", "MiXeD CaSe", "mixed-case"},
		{"numbers", "Test123App", "test123app"},
		{"special chars", "Hello! World?", "hello-world"},
		{"hyphens preserved", "my-app", "my-app"},
		{"underscores preserved", "hello_world", "hello_world"},
		{"dots removed", "app.v2", "appv2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
