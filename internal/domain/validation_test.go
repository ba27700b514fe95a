package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Valid email", "test@example.com", true},
		{"Valid email with subdomain", "user@mail.example.com", true},
		{"Valid email with plus", "user+tag@example.com", true},
		{"Valid email with surrounding spaces", "  user@example.com  ", true},
		{"Invalid email - no @", "testexample.com", false},
		{"Invalid email - no domain", "test@", false},
		{"Invalid email - no tld", "a@b", false},
		{"Invalid email - no local part", "@example.com", false},
		{"Invalid email - multiple @", "test@@example.com", false},
		{"Invalid email - inner space", "test @example.com", false},
		{"Invalid email - no-break space", "a\u00a0b@example.com", false},
		{"Invalid email - ideographic space in domain", "a@exa\u3000mple.com", false},
		{"Invalid email - zero width no-break space", "a@example.\ufeffcom", false},
		{"Invalid email - vertical tab", "a\vb@example.com", false},
		{"Invalid email - empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidEmail(tt.email))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.co", SanitizeEmail("  A@B.Co "))

	t.Run("幂等", func(t *testing.T) {
		once := SanitizeEmail(" Ocean@Refuge.ORG\t")
		assert.Equal(t, once, SanitizeEmail(once))
	})
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "Hello there", "Hello there"},
		{"trims whitespace", "  Ann \n", "Ann"},
		{"script tag brackets removed", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"javascript protocol removed", "JavaScript:alert(1)", "alert(1)"},
		{"inline handler removed", `img onerror = "x"`, `img  "x"`},
		{"mixed case handler", "OnClick=run()", "run()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeInput(tt.input))
		})
	}

	t.Run("输出不含尖括号和 javascript:", func(t *testing.T) {
		out := SanitizeInput("<b>javascript:</b><i onload=x>")
		assert.NotContains(t, out, "<")
		assert.NotContains(t, out, ">")
		assert.NotContains(t, out, "javascript:")
	})
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+1 (555) 123-4567"))
	assert.True(t, IsValidPhone("5551234567"))
	assert.True(t, IsValidPhone("555\u00a0123\u00a04567"))
	assert.False(t, IsValidPhone("555-1234"))
	assert.False(t, IsValidPhone("call me maybe"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", FormatPhone("555.123.4567"))
	assert.Equal(t, "+92 444999332", FormatPhone("+92 444999332"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 5, 2025", FormatDate(time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)))
}

func TestParseContactSource(t *testing.T) {
	assert.Equal(t, SourceWebsiteContactForm, ParseContactSource(""))
	assert.Equal(t, SourceAPI, ParseContactSource("api"))
	assert.Equal(t, SourceOther, ParseContactSource("newsletter-popup"))
}
