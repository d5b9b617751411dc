package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/crossfeed/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Ada Lovelace", "Ada Lovelace"},
		{"trims", "  Ada  ", "Ada"},
		{"strips tags", "<b>Acme</b> Corp", "Acme Corp"},
		{"keeps ampersand", "Smith & Sons", "Smith & Sons"},
		{"keeps apostrophe", "O'Brien", "O'Brien"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlainText_RemovesScript(t *testing.T) {
	got := htmlsanitize.PlainText(`Eve<script>alert("x")</script>`)
	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Errorf("script survived: %q", got)
	}
}

func TestPlainText_RemovesEventHandlers(t *testing.T) {
	got := htmlsanitize.PlainText(`<img src=x onerror="steal()">Mallory`)
	if strings.Contains(got, "onerror") || strings.Contains(got, "<img") {
		t.Errorf("markup survived: %q", got)
	}
	if got != "Mallory" {
		t.Errorf("expected %q, got %q", "Mallory", got)
	}
}

func TestPlainText_EscapedMarkupStaysInert(t *testing.T) {
	got := htmlsanitize.PlainText("&lt;script&gt;x")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("angle brackets survived: %q", got)
	}
}
