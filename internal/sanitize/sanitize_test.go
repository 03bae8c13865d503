package sanitize

import "testing"

func TestHTML_StripsScript(t *testing.T) {
	got := HTML(`<p class="center">Hello</p><script>alert(1)</script>`)
	if got != `<p class="center">Hello</p>` {
		t.Errorf("unexpected output %q", got)
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Launch plan", "Launch plan"},
		{"tags removed", "<b>Bold</b> name", "Bold name"},
		{"script removed", `Roadmap<script>alert("x")</script>`, "Roadmap"},
		{"entities decoded", "Q&amp;A", "Q&A"},
		{"trimmed", "  padded  ", "padded"},
		{"brackets kept", "[draft] plan", "[draft] plan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
