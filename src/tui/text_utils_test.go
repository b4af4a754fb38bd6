package tui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		ellipsis bool
		want     string
	}{
		{"fits", "app-build", 20, true, "app-build"},
		{"ellipsis", "integration-tests-nightly", 10, true, "integra..."},
		{"hard cut", "integration-tests-nightly", 5, false, "integ"},
		{"zero width", "app", 0, true, ""},
		{"wide runes", "ビルド確認ジョブ", 6, false, "ビルド"},
		{"strips escapes", "\x1b[31mred-job\x1b[0m", 20, false, "red-job"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max, tt.ellipsis); got != tt.want {
				t.Errorf("Truncate(%q, %d, %v) = %q, want %q", tt.in, tt.max, tt.ellipsis, got, tt.want)
			}
		})
	}
}

func TestTruncateAndPad(t *testing.T) {
	got := TruncateAndPad("lint", 8, false)
	if got != "lint    " {
		t.Errorf("TruncateAndPad() = %q, want %q", got, "lint    ")
	}
	if w := VisualWidth(TruncateAndPad("ビルド", 8, false)); w != 8 {
		t.Errorf("padded width = %d, want 8", w)
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  \x1b[1mbold\x1b[0m  "); got != "bold" {
		t.Errorf("CleanText() = %q, want %q", got, "bold")
	}
}
